// Package storetest opens throwaway SQLite stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/awe/config"
	"github.com/cppla/awe/store"
)

// Open returns a migrated Store over a fresh database file in t.TempDir().
func Open(t testing.TB, opts store.Options) *store.Store {
	t.Helper()
	db := OpenDB(t)
	st := store.New(db, opts)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// OpenDB returns the raw handle, configured the way the server configures it.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "awe.db")
	db, err := gorm.Open(sqlite.Open(config.SQLiteDSN(path, 5000)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Clock is a manual clock for Options.Now. Each call advances it by one second
// so rows written in sequence get distinct timestamps.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock starts a Clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{t: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}
