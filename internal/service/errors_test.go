package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyBusy(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		busy bool
	}{
		{"lock timeout", &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}, true},
		{"deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"deadline", fmt.Errorf("begin: %w", context.DeadlineExceeded), true},
		{"sqlite locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"canceled", context.Canceled, false},
		{"domain", ErrProductNotFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyBusy(tc.err)
			assert.Equal(t, tc.busy, errors.Is(got, ErrBusy))
			if !tc.busy {
				assert.Equal(t, tc.err, got)
			}
		})
	}
	assert.NoError(t, classifyBusy(nil))
}

func TestTypedErrorsUnwrap(t *testing.T) {
	t.Parallel()
	var err error = &StockError{ProductID: 3, Available: 1, Requested: 2}
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 1, requested 2")

	err = &ValidationError{Fields: map[string]string{"b": "x", "a": "y"}}
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation: a: y; b: x", err.Error())
}

func TestWrapMissing(t *testing.T) {
	t.Parallel()
	err := wrapMissing(gorm.ErrRecordNotFound, ErrStoreNotFound, "store %d", 4)
	require.ErrorIs(t, err, ErrStoreNotFound)
	assert.Equal(t, "store not found: store 4", err.Error())

	other := errors.New("io")
	assert.Equal(t, other, wrapMissing(other, ErrStoreNotFound, "store %d", 4))
}
