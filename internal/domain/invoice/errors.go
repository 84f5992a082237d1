package invoice

import "errors"

// Engine error taxonomy. All failures are value-returned and wrapped with
// context at the call site; nothing in this package panics on bad input.
var (
	// ErrInvalidLineItem is returned for a negative quantity or unit price,
	// or a tax/discount rate outside [0,100].
	ErrInvalidLineItem = errors.New("invalid line item")

	// ErrInvalidInvoice is returned for a missing client reference, a due
	// date before the issue date, or an empty item list at send time.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrInvalidPayment is returned for a negative payment amount.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrInvalidTransition is returned when a status transition is not
	// allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
