package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"foodloop/internal/repos"
	"foodloop/internal/validate"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotAvailable  = errors.New("listing is no longer available")
	ErrClaimClosed   = errors.New("claim is already closed")
	ErrConflictRetry = errors.New("concurrent update, please retry")
	ErrAuthInvalid   = errors.New("invalid or expired token")
	ErrNotRegistered = errors.New("user is not registered")
)

// ValidationError carries one message per rejected input field.
type ValidationError struct {
	Fields validate.Violations
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

func invalid(v validate.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

// txErr turns a retryable storage failure into ErrConflictRetry; other errors pass through.
func txErr(err error) error {
	if errors.Is(err, repos.ErrRetryable) {
		return fmt.Errorf("%w: %v", ErrConflictRetry, err)
	}
	return err
}

// clock returns the service time in UTC at the precision the store keeps.
func clock(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}
