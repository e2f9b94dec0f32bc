package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrEngineNotConfigured = errors.New("query engine not configured")
	ErrStoreUnavailable    = errors.New("durable store unavailable")
	ErrInvalidQuery        = errors.New("invalid query")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// PersistError is a failed deferred write of a computed result
type PersistError struct {
	Key    string
	Reason error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cannot persist %s: %v", e.Key, e.Reason)
}

func (e *PersistError) Unwrap() error {
	return e.Reason
}
