package quiz

import (
	"errors"
	"fmt"
)

// Sentinel reasons carried by StateError. Match with errors.Is.
var (
	ErrNoActiveQuestion = errors.New("no active question")
	ErrAlreadyRevealed  = errors.New("already revealed")
	ErrDuplicateAnswer  = errors.New("duplicate answer")
)

// ValidationError reports malformed or missing input, or an unknown participant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StateError reports an operation that is illegal in the current session state.
type StateError struct {
	Reason error
}

func (e *StateError) Error() string {
	return e.Reason.Error()
}

func (e *StateError) Unwrap() error {
	return e.Reason
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func illegal(reason error) error {
	return &StateError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsState reports whether err is (or wraps) a StateError.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
