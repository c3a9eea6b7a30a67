// Package store is the persistence layer for users, articles, revision
// history, discussions and uploads. Every exported method takes a context and
// is bounded by the configured busy timeout.
package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBusyTimeout bounds every store call when Options.BusyTimeout is zero.
const DefaultBusyTimeout = 5 * time.Second

// Options configures a Store.
type Options struct {
	BusyTimeout time.Duration
	Logger      *zap.Logger
	// Now and Intn are replaceable in tests.
	Now  func() time.Time
	Intn func(n int) int
}

// Store wraps a gorm handle. A Store returned inside WithTx is bound to the transaction.
type Store struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
	intn    func(int) int
	inTx    bool
}

// New creates a Store over db.
func New(db *gorm.DB, opts Options) *Store {
	s := &Store{
		db:      db,
		log:     opts.Logger,
		timeout: opts.BusyTimeout,
		now:     opts.Now,
		intn:    opts.Intn,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultBusyTimeout
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.intn == nil {
		s.intn = rand.Intn
	}
	return s
}

// DB exposes the underlying handle for components that need raw access (migrations, stats).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Now is the store clock, used for every timestamp it writes.
func (s *Store) Now() time.Time {
	return s.now()
}

// Dialect is the gorm dialector name, "sqlite" or "mysql".
func (s *Store) Dialect() string {
	return s.db.Dialector.Name()
}

// run executes fn under the busy timeout. Outside a transaction a busy store
// is retried once after a short jittered pause.
func (s *Store) run(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	if s.inTx {
		return classify(fn(s.db.WithContext(ctx)))
	}

	b := &backoff.Backoff{Min: 50 * time.Millisecond, Max: 250 * time.Millisecond, Factor: 2, Jitter: true}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.attempt(ctx, fn)
		if !errors.Is(err, ErrStoreUnavailable) || ctx.Err() != nil || attempt == 1 {
			break
		}
		wait := b.Duration()
		s.log.Warn("store busy, retrying", zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return classify(ctx.Err())
		case <-time.After(wait):
		}
	}
	return err
}

func (s *Store) attempt(ctx context.Context, fn func(db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return classify(fn(s.db.WithContext(ctx)))
}

// WithTx runs fn inside one transaction. The Store passed to fn shares the
// transaction; its calls are not retried individually, the whole transaction is.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.run(ctx, "tx", func(db *gorm.DB) error {
		return db.Transaction(func(gtx *gorm.DB) error {
			txStore := *s
			txStore.db = gtx
			txStore.inTx = true
			return fn(&txStore)
		})
	})
}
