package security

import (
	"errors"
	"fmt"
)

// ErrPrecondition is matched by every precondition violation. These signal a
// caller or deployment bug and are never coerced into a default.
var ErrPrecondition = errors.New("precondition violation")

// PreconditionError describes which input was rejected and why.
type PreconditionError struct {
	Op     string
	Field  string
	Reason string
}

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(op, field, reason string) *PreconditionError {
	return &PreconditionError{Op: op, Field: field, Reason: reason}
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrPrecondition) succeed.
func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// IsPrecondition reports whether err is (or wraps) a precondition violation.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
