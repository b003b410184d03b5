package domain

import "errors"

var (
	// ErrMalformedEnvelope marks a webhook payload missing the required
	// entry/changes/value nesting. Rejected at the boundary, never retried.
	ErrMalformedEnvelope = errors.New("malformed webhook envelope")

	// ErrIncompleteOrder marks an order event with a missing or unusable
	// required field. No record is stored.
	ErrIncompleteOrder = errors.New("incomplete order fields")

	// ErrOrderNotFound distinguishes "no such record" from a storage failure.
	ErrOrderNotFound = errors.New("order not found")
)
