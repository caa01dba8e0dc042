// Package service implements the reservation lifecycle and the payment
// reconciliation engine.  This file defines the error taxonomy surfaced
// to the booking-creation caller; errors during reconciliation, expiry
// and notification are logged internally and never reach an external
// caller.
package service

import "errors"

// ErrValidation marks malformed or missing input.  The creation request
// is rejected synchronously with no side effects.
var ErrValidation = errors.New("validation failed")

// ErrConflict marks a slot overlap with an active reservation.  Handlers
// translate it into an HTTP 409.
var ErrConflict = errors.New("slot conflict")

// ErrGateway marks a payment provider failure during creation.  The
// already-persisted reservation is force-transitioned to FAILED so its
// slots release immediately instead of waiting out the hold window.
var ErrGateway = errors.New("payment gateway failure")
