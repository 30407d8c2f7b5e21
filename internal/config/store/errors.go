package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// ValidationError indicates a mutation violated a structural invariant:
// capability mismatch, missing required field, unknown field key.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// IsValidation returns true when err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) ValidationError {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError indicates a mutation was rejected because it would corrupt
// graph state, e.g. an output wire closing a cycle.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

// IsConflict returns true when err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) ConflictError {
	return ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// ExternalResolutionError indicates a collaborator (settings store,
// deployment service) was unreachable or timed out. Resolution degrades the
// affected field instead of failing outright; the error is surfaced through
// validation findings.
type ExternalResolutionError struct {
	Collaborator string
	Err          error
}

func (e ExternalResolutionError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
}

func (e ExternalResolutionError) Unwrap() error {
	return e.Err
}

// IsExternalResolution returns true when err is (or wraps) an
// ExternalResolutionError.
func IsExternalResolution(err error) bool {
	var target ExternalResolutionError
	return errors.As(err, &target)
}
