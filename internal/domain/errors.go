package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Validation errors stay local to the offending field; remote
// and processor errors surface to the caller; a partial failure (charged but
// not booked) is its own type because retrying it naively would double-charge.

// ValidationError is caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteError carries the upstream body's message for any non-2xx response.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// ProcessorError wraps a declined/invalid-card answer from the payment
// processor. Message is surfaced to the user verbatim.
type ProcessorError struct {
	Message string
}

func (e *ProcessorError) Error() string {
	return "processor: " + e.Message
}

// PartialFailureError means the charge was confirmed but the booking record
// failed to persist. The PaymentIntentID is carried so support can reconcile.
type PartialFailureError struct {
	PaymentIntentID string
	Cause           error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("payment %s confirmed but booking not saved: %v", e.PaymentIntentID, e.Cause)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }

var (
	ErrNotFound     = errors.New("upstream: not found")
	ErrUnauthorized = errors.New("upstream: unauthorized")
)
