// Package shared holds the error taxonomy and domain events that every
// bounded context depends on. Nothing here imports another domain
// package.
package shared

import (
	"errors"
	"fmt"
)

// Sentinel kinds. A DomainError carries one of these so callers can
// classify with errors.Is without knowing the concrete error.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrForbidden       = errors.New("forbidden")

	ErrServiceUnavailable = errors.New("service unavailable")
	ErrExternalService    = errors.New("external service error")
)

// DomainError is an error with enough context to map to a transport
// response: which domain and operation failed, what kind of failure it
// was, and a message fit to show a caller.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against both the kind and the wrapped cause, so
// errors.Is(err, ErrNotFound) works no matter how deep the error sits.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError builds a DomainError without a wrapped cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError builds a DomainError around an underlying cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Well-known domain errors, predeclared so call sites and tests can
// compare with errors.Is.
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "runner profile not found")
	ErrInvalidPace     = NewDomainError("profile", "Validate", ErrValidation, "pace must be positive seconds per km")

	ErrMatchNotFound = NewDomainError("match", "Find", ErrNotFound, "match not found")

	ErrMessageNotFound = NewDomainError("chat", "Find", ErrNotFound, "message not found")
	ErrNotParticipant  = NewDomainError("chat", "Send", ErrForbidden, "sender is not part of this match")
	ErrMatchNotActive  = NewDomainError("chat", "Send", ErrInvalidState, "match is not active")

	ErrPublishFailed = NewDomainError("realtime", "Publish", ErrExternalService, "failed to publish realtime event")
)

// IsNotFound reports whether err means a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err came from rejecting caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput)
}
