package errdef

import (
	"errors"
	"fmt"
)

// NewNotFound creates an error representing an event or enrollment that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// Reason is a machine-readable tag for an InvalidState error.
type Reason string

const (
	ReasonEventClosed        Reason = "event_closed"
	ReasonApplicationClosed  Reason = "application_closed"
	ReasonEventFull          Reason = "event_full"
	ReasonAlreadyApplied     Reason = "already_applied"
	ReasonNotCancellable     Reason = "not_cancellable"
	ReasonCancellationClosed Reason = "cancellation_closed"
)

// NewInvalidState creates an error representing a command that is not allowed
// in the current state of an event or enrollment.
func NewInvalidState(reason Reason, format string, a ...any) error {
	return invalidState{error: fmt.Errorf(format, a...), reason: reason}
}

type invalidState struct {
	error
	reason Reason
}

// IsInvalidState returns true if err is an error representing a state violation and false otherwise.
func IsInvalidState(err error) bool {
	var e invalidState
	return errors.As(err, &e)
}

// ReasonOf returns the reason carried by an InvalidState error, or "" for any other error.
func ReasonOf(err error) Reason {
	var e invalidState
	if errors.As(err, &e) {
		return e.reason
	}
	return ""
}

// NewVerificationMismatch creates an error representing a wrong code or scan payload.
func NewVerificationMismatch(format string, a ...any) error {
	return verificationMismatch{fmt.Errorf(format, a...)}
}

type verificationMismatch struct{ error }

func IsVerificationMismatch(err error) bool {
	var e verificationMismatch
	return errors.As(err, &e)
}
