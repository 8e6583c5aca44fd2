package services

import (
	"errors"

	"github.com/Wikid82/sentinel/internal/security"
)

var (
	ErrInvalidSeverity    = errors.New("invalid severity")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrInvalidStatus      = errors.New("invalid delivery status")
	ErrInvalidRetention   = errors.New("invalid retention window")
	ErrInvalidReputation  = errors.New("invalid reputation record")
	ErrInvalidEvent       = errors.New("invalid security event")
	ErrEventNotFound      = errors.New("security event not found")
	ErrReputationNotFound = errors.New("reputation not found")
)

// ValidationError is a rejected write. It matches both its package sentinel
// and security.ErrPrecondition.
type ValidationError struct {
	Sentinel     error
	Precondition *security.PreconditionError
}

func (e *ValidationError) Error() string { return e.Precondition.Error() }

func (e *ValidationError) Unwrap() []error {
	return []error{e.Sentinel, e.Precondition}
}

func invalid(sentinel error, op, field, reason string) error {
	return &ValidationError{Sentinel: sentinel, Precondition: security.NewPreconditionError(op, field, reason)}
}

// checkSeverity accepts only the canonical upper-case severity names.
func checkSeverity(op, value string) error {
	sev, err := security.ParseSeverity(value)
	if err != nil || sev.String() != value {
		return invalid(ErrInvalidSeverity, op, "severity", "unknown severity "+quote(value))
	}
	return nil
}

func checkAction(op, value string) error {
	a := security.Action(value)
	if !a.Valid() {
		return invalid(ErrInvalidAction, op, "action", "unknown action "+quote(value))
	}
	return nil
}

func checkLimit(op string, limit int) error {
	if limit <= 0 {
		return invalid(ErrInvalidLimit, op, "limit", "must be a positive integer")
	}
	return nil
}

func quote(s string) string { return `"` + s + `"` }
