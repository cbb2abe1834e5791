package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrValidation           = errors.New("validation")                // 400
	ErrUnauthenticated      = errors.New("unauthenticated")           // 401
	ErrInvalidCredentials   = errors.New("invalid credentials")       // 401
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")     // 401
	ErrForbidden            = errors.New("forbidden")                 // 403
	ErrNotFound             = errors.New("not found")                 // 404
	ErrStoreNotFound        = errors.New("store not found")           // 404
	ErrAddressNotFound      = errors.New("address not found")         // 404
	ErrProductNotFound      = errors.New("product not found")         // 404
	ErrOrderNotFound        = errors.New("order not found")           // 404
	ErrNotificationNotFound = errors.New("notification not found")    // 404
	ErrProductStoreMismatch = errors.New("product store mismatch")    // 422
	ErrInsufficientStock    = errors.New("insufficient stock")        // 409
	ErrInvalidTransition    = errors.New("invalid status transition") // 409
	ErrConflict             = errors.New("conflict")                  // 409
	ErrRequestInProgress    = errors.New("request in progress")       // 409
	ErrBusy                 = errors.New("busy")                      // 503
)

// ValidationError reports per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// StockError is returned when a line asks for more than the product holds.
type StockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// classifyBusy turns lock waits, deadlocks and deadline exhaustion into ErrBusy.
func classifyBusy(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBusy) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure:
			return fmt.Errorf("%w: %s", ErrBusy, pgErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}

// notFound maps a missing row onto the domain sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func wrapMissing(err, sentinel error, format string, args ...any) error {
	if mapped := notFound(err, sentinel); mapped == sentinel {
		return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
	}
	return err
}
