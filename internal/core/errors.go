package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// classify with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonthKey = errors.New("invalid month key")
)

// ValidationError reports rejected input for a single field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// ConflictError is returned when an operation would overwrite an existing
// resource, a month unless Kind says otherwise.
type ConflictError struct {
	Kind string
	Key  string
}

func (e *ConflictError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "month"
	}
	return fmt.Sprintf("%s %s already exists", kind, e.Key)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError names the missing resource.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, reason string, err error) error {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
