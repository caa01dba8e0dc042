package notify

import (
	"context"
	"log"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
)

// LockStore is the slice of the ledger the dispatcher needs: the
// per-reservation-per-channel send lock, implemented as conditional
// updates on the reservation row.
type LockStore interface {
	AcquireNotifyLock(ctx context.Context, id, channel string) (bool, error)
	SetNotifyState(ctx context.Context, id, channel, state string) error
}

// Transport delivers a message, or queues it for delivery.  Errors are
// reported back so the dispatcher can release the send lock into FAILED.
type Transport interface {
	Publish(ctx context.Context, msg Message) error
}

// Dispatcher sends notifications with an at-most-once guarantee per
// reservation and channel.  The guarantee comes from the ledger's send
// lock, not from the transport: under concurrent trigger storms only one
// caller acquires the lock, and a SENT channel is never re-acquired.
type Dispatcher struct {
	locks     LockStore
	transport Transport
}

// NewDispatcher wires a Dispatcher from its collaborators.
func NewDispatcher(locks LockStore, transport Transport) *Dispatcher {
	return &Dispatcher{locks: locks, transport: transport}
}

// SendOnce attempts a guarded send on one channel.  The builder runs only
// after the lock is acquired, so the message reflects the snapshot the
// caller closed over.  It returns true only when this call both won the
// lock and handed the message to the transport successfully.  All
// failures are logged, never propagated: notification trouble must not
// block or reverse a state transition.
func (d *Dispatcher) SendOnce(ctx context.Context, reservationID, channel string, build func() Message) bool {
	won, err := d.locks.AcquireNotifyLock(ctx, reservationID, channel)
	if err != nil {
		log.Printf("notify: acquire %s lock for %s failed: %v", channel, reservationID, err)
		return false
	}
	if !won {
		return false
	}
	msg := build()
	if err := d.transport.Publish(ctx, msg); err != nil {
		log.Printf("notify: send %s for %s failed: %v", channel, reservationID, err)
		if err := d.locks.SetNotifyState(ctx, reservationID, channel, model.NotifyFailed); err != nil {
			log.Printf("notify: mark %s FAILED for %s failed: %v", channel, reservationID, err)
		}
		return false
	}
	if err := d.locks.SetNotifyState(ctx, reservationID, channel, model.NotifySent); err != nil {
		log.Printf("notify: mark %s SENT for %s failed: %v", channel, reservationID, err)
	}
	return true
}

// SendConfirmation fires the paid-booking confirmation on both channels.
// It is called only by the winner of the pending-to-paid transition; the
// channel locks additionally protect against a second winner appearing
// through operator error or a replayed trigger.
func (d *Dispatcher) SendConfirmation(ctx context.Context, res *model.Reservation, accessCode string) {
	d.SendOnce(ctx, res.ID, model.ChannelEmail, func() Message {
		return ConfirmationEmail(res, accessCode)
	})
	d.SendOnce(ctx, res.ID, model.ChannelSMS, func() Message {
		return ConfirmationSMS(res, accessCode)
	})
}

// Send performs an unguarded best-effort send for message kinds that fire
// from a single winning trigger (payment request, expiry, cancellation).
// Errors are logged and swallowed.
func (d *Dispatcher) Send(ctx context.Context, msg Message) {
	if err := d.transport.Publish(ctx, msg); err != nil {
		log.Printf("notify: send to %s failed: %v", msg.To, err)
	}
}
