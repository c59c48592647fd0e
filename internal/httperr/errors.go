package httperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or invalid mandatory field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: %s is required", e.Field)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

// ClientResolutionError means no owning client could be identified or created.
type ClientResolutionError struct {
	Reason string
	Err    error
}

func (e ClientResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client resolution failed: %s: %v", e.Reason, e.Err)
	}
	return "client resolution failed: " + e.Reason
}

func (e ClientResolutionError) Unwrap() error { return e.Err }

// InvalidStateTransition is returned by lifecycle actions applied to an
// appointment in a state that does not allow them.
type InvalidStateTransition struct {
	From   string
	Action string
}

func (e InvalidStateTransition) Error() string {
	return fmt.Sprintf("cannot %s appointment in status %s", e.Action, e.From)
}

// PersistenceError wraps a store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return PersistenceError{Op: op, Err: err}
}

// ParseError reports a date, time or amount value that could not be read.
// Callers recover from it locally.
type ParseError struct {
	Field string
	Value string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q", e.Field, e.Value)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func IsStateTransition(err error) bool {
	var se InvalidStateTransition
	return errors.As(err, &se)
}
