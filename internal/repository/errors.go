// Package repository implements the booking ledger over database/sql.
// This file defines sentinel errors shared by the repository methods so
// that higher layers can distinguish failure scenarios with errors.Is:
// ErrSlotTaken maps to an HTTP 409 at the handler boundary, ErrNotFound
// to a 404.
package repository

import "errors"

// ErrSlotTaken is returned when a reservation cannot be created because
// at least one requested slot is already held by an active reservation
// for the same date.  The uniqueness guard lives in the database, so
// this error is authoritative even under concurrent creation attempts.
var ErrSlotTaken = errors.New("slot already taken")

// ErrNotFound is returned when no reservation matches the given
// identifier or payment reference.
var ErrNotFound = errors.New("reservation not found")
