// Package payment defines the adapter boundary to the external payment
// provider.  The provider's raw state strings are translated into a closed
// variant at this boundary so that the core never pattern-matches provider
// spellings directly.
package payment

import "context"

// Kind enumerates the gateway states the core understands.  Anything the
// provider reports outside this set surfaces as KindUnknown with the raw
// string preserved for diagnostics.
type Kind int

const (
	KindUnknown Kind = iota
	KindCreated
	KindPaid
	KindCanceled
	KindTimedOut
	KindFailed
)

// String returns the canonical lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindPaid:
		return "paid"
	case KindCanceled:
		return "canceled"
	case KindTimedOut:
		return "timed_out"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the tagged form of a gateway payment state.  Raw carries the
// provider's literal spelling and is what gets written into a
// reservation's last_payment_note.
type State struct {
	Kind Kind
	Raw  string
}

// Paid reports whether the state is the one terminal state that drives
// the pending-to-paid transition.  Every other state is informational.
func (s State) Paid() bool { return s.Kind == KindPaid }

// CreateRequest carries everything the provider needs to open a hosted
// payment for one reservation.
type CreateRequest struct {
	AmountCents int64
	Currency    string
	OrderRef    string // reservation ID, echoed back by the provider
	ReturnURL   string // where the customer lands after paying
	NotifyURL   string // webhook endpoint the provider calls on completion
}

// CreateResult is the provider's answer to CreateRequest: the opaque
// payment handle and the URL the customer is sent to.
type CreateResult struct {
	Ref    string
	PayURL string
}

// Gateway is the narrow interface the booking core consumes.  Both calls
// are blocking I/O with a bounded timeout; a timeout is treated as a
// failed call, never retried synchronously.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error)
	FetchState(ctx context.Context, ref string) (State, error)
}
