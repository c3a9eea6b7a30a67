package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.username"), ErrConflict},
		{"mysql duplicate", errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'slug'"), ErrConflict},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, ErrNotFound},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), ErrNotFound},
		{"mysql foreign key", errors.New("Error 1452 (23000): Cannot add or update a child row"), ErrNotFound},
		{"sqlite locked", errors.New("database is locked (5) (SQLITE_BUSY)"), ErrStoreUnavailable},
		{"sqlite table locked", errors.New("database table is locked: articles"), ErrStoreUnavailable},
		{"mysql lock wait", errors.New("Error 1205 (HY000): Lock wait timeout exceeded"), ErrStoreUnavailable},
		{"mysql deadlock", errors.New("Error 1213 (40001): Deadlock found"), ErrStoreUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrStoreUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.in)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.in, "the driver error stays inspectable")
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	assert.NoError(t, classify(nil))

	other := errors.New("syntax error")
	assert.Same(t, other, classify(other))

	already := fmt.Errorf("%w: article %q", ErrNotFound, "Go")
	assert.Same(t, already, classify(already))
}
