package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEventNotBookable is returned when an event is missing, cancelled or completed.
	ErrEventNotBookable = errors.New("event is not bookable")

	// ErrPaymentVerificationFailed is returned when the provider rejects a payment
	// reference or signature. The reservation has been released by the time it surfaces.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrProviderRejected is returned when the payment provider refuses a
	// request as malformed or unauthorized. Retrying it will not help.
	ErrProviderRejected = errors.New("payment provider rejected the request")

	// ErrTokenCommitted is returned when releasing a reservation that was already committed.
	ErrTokenCommitted = errors.New("reservation already committed")

	// ErrTokenReleased is returned when committing a reservation that was already released.
	ErrTokenReleased = errors.New("reservation already released")

	// ErrInvalidTransition is returned when a booking is driven out of order.
	ErrInvalidTransition = errors.New("invalid booking state transition")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// ValidationError reports a malformed or out-of-range input. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientInventoryError is the expected business outcome when an event
// cannot cover the requested quantity.
type InsufficientInventoryError struct {
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("not enough tickets available: only %d left, %d requested", e.Available, e.Requested)
}

// ProviderUnavailableError wraps a transient payment provider failure.
// Retrying the whole booking is safe once the reservation has been released.
type ProviderUnavailableError struct {
	Op  string
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("payment provider unavailable during %s: %v", e.Op, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// PartialBookingFailureError means inventory was committed but the ticket (or
// its payment link) could not be written. It needs manual reconciliation.
type PartialBookingFailureError struct {
	BookingID         string
	EventID           string
	UserID            string
	Quantity          int
	ProviderOrderID   string
	ProviderPaymentID string
	Stage             string
	Err               error
}

func (e *PartialBookingFailureError) Error() string {
	return fmt.Sprintf("partial booking failure at %s (booking %s, event %s, quantity %d): %v",
		e.Stage, e.BookingID, e.EventID, e.Quantity, e.Err)
}

func (e *PartialBookingFailureError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AsInsufficientInventory extracts an InsufficientInventoryError from err.
func AsInsufficientInventory(err error) (*InsufficientInventoryError, bool) {
	var e *InsufficientInventoryError
	ok := errors.As(err, &e)
	return e, ok
}
