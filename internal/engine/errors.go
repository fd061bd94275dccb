package engine

import "errors"

var (
	// ErrMissingPrice is returned when a LIMIT order is submitted without a
	// strictly positive price. This is a caller-contract violation: the
	// matcher has no defined behavior for it (spec.md §7).
	ErrMissingPrice = errors.New("limit order requires a strictly positive price")

	// ErrUnexpectedPrice is returned when a MARKET order is submitted with
	// a price set.
	ErrUnexpectedPrice = errors.New("market order must not carry a price")

	// ErrInvalidQuantity is returned when original_quantity is not strictly
	// positive.
	ErrInvalidQuantity = errors.New("order quantity must be strictly positive")

	// ErrWrongInstrument is returned when an order's instrument does not
	// match the book it was submitted to.
	ErrWrongInstrument = errors.New("order instrument does not match book instrument")

	// ErrUnknownInstrument describes the case of no book existing for an
	// instrument id. Engine does not return it: Engine.Submit creates the
	// missing book, and Engine.Cancel reports the case as (zero, false).
	ErrUnknownInstrument = errors.New("no order book registered for instrument")
)
