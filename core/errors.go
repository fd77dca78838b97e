package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports malformed or out-of-range input, caught before any
// store call is made.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError reports that the acting identity lacks rights over the
// target record.
type AuthorizationError struct {
	Reason string
}

func NewAuthorizationError(reason string) error {
	return &AuthorizationError{reason}
}

func (err AuthorizationError) Error() string { return err.Reason }

// PreconditionError reports a time-based or data-dependent gate that was not met.
type PreconditionError struct {
	Reason string
}

func NewPreconditionError(reason string) error {
	return &PreconditionError{reason}
}

func (err PreconditionError) Error() string { return err.Reason }

// ConflictError reports an optimistic-concurrency or immutability violation:
// the record changed under the caller, or a write-once field was already set.
type ConflictError struct {
	Reason string
}

func NewConflictError(reason string) error {
	return &ConflictError{reason}
}

func (err ConflictError) Error() string { return err.Reason }

// TransportError wraps a failed backing-store or external-service call.
// It is surfaced as-is and never retried internally.
type TransportError struct {
	Op  string
	Err error
}

func NewTransportError(err error, op string) error {
	return &TransportError{Op: op, Err: err}
}

func (err TransportError) Error() string { return fmt.Sprintf("%s: %v", err.Op, err.Err) }
func (err TransportError) Unwrap() error { return err.Err }
func (err TransportError) Cause() error  { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
