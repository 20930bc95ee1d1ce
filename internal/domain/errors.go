package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user input that cannot be accepted as-is.
	ErrValidation = errors.New("validation failed")

	// ErrIndexOutOfRange is returned for positional deletes past the end of
	// the list, usually because the caller's view is stale.
	ErrIndexOutOfRange = errors.New("report index out of range")

	// ErrNotFound is returned when no report has the requested ID.
	ErrNotFound = errors.New("report not found")
)

// ValidationError names the offending input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError reports a failed durable write. The in-memory mutation that
// triggered it has already been applied.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist reports to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadParseError reports a report file that exists but could not be parsed.
type LoadParseError struct {
	Path string
	Err  error
}

func (e *LoadParseError) Error() string {
	return fmt.Sprintf("parse report file %s: %v", e.Path, e.Err)
}

func (e *LoadParseError) Unwrap() error { return e.Err }
