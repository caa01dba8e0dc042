package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
	"github.com/iliyamo/rehearsal-room-booking/internal/payment"
	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
)

// pollBatchSize caps how many pending reservations one polling sweep
// checks against the gateway, bounding worst-case call volume per run.
const pollBatchSize = 50

// Reconciliation: the inbound webhook, the periodic poll and the manual
// confirm are independent triggers that all converge on the same
// conditional MarkPaid primitive, so being invoked zero, one or many
// times for the same payment event is always safe.  Exactly one caller
// ever wins the transition.

// ReconcileHandle is the webhook path.  The handle pushed by the gateway
// is never trusted by itself: the authoritative state is fetched back
// from the gateway before any transition.  Errors are returned for
// logging only; the webhook handler answers success regardless so the
// gateway does not retry-storm into an error loop.
func (s *BookingService) ReconcileHandle(ctx context.Context, handle string) error {
	res, err := s.ledger.GetByPaymentRef(ctx, handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("webhook for unknown payment handle %q", handle)
		}
		return err
	}
	return s.reconcile(ctx, res)
}

// PollPending is the pull path: a bounded scan over pending, unexpired
// reservations that already carry a payment handle.  Per-row failures are
// logged and skipped so one flaky gateway answer cannot stall the sweep.
func (s *BookingService) PollPending(ctx context.Context) {
	pending, err := s.ledger.ListPendingWithPayment(ctx, pollBatchSize)
	if err != nil {
		log.Printf("reconcile: list pending reservations failed: %v", err)
		return
	}
	for _, res := range pending {
		if err := s.reconcile(ctx, res); err != nil {
			log.Printf("reconcile: poll %s failed: %v", res.ID, err)
		}
	}
}

// ManualConfirm is the fallback trigger: a synchronous gateway check for
// one reservation, driving the same conditional transition.  It returns
// the observed gateway state so the caller can display it.
func (s *BookingService) ManualConfirm(ctx context.Context, id string) (payment.State, error) {
	res, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return payment.State{}, err
	}
	if res.PaymentRef == nil {
		return payment.State{}, fmt.Errorf("%w: reservation has no payment", ErrValidation)
	}
	state, err := s.gateway.FetchState(ctx, *res.PaymentRef)
	if err != nil {
		return payment.State{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	s.apply(ctx, res, state)
	return state, nil
}

func (s *BookingService) reconcile(ctx context.Context, res *model.Reservation) error {
	if res.PaymentRef == nil {
		return nil
	}
	state, err := s.gateway.FetchState(ctx, *res.PaymentRef)
	if err != nil {
		return err
	}
	s.apply(ctx, res, state)
	return nil
}

// apply folds one observed gateway state into the ledger.  Only a paid
// state drives a transition; everything else is recorded as a diagnostic
// note.  Cancellation of unpaid holds stays the expiry sweeper's job, so
// a transient bad-looking state never releases the slots early.
func (s *BookingService) apply(ctx context.Context, res *model.Reservation, state payment.State) {
	if state.Paid() {
		if _, err := s.MarkPaid(ctx, res.ID); err != nil {
			log.Printf("reconcile: mark %s paid failed: %v", res.ID, err)
		}
		return
	}
	if res.Status == model.StatusPending {
		if err := s.ledger.SetPaymentNote(ctx, res.ID, state.Raw); err != nil {
			log.Printf("reconcile: note for %s failed: %v", res.ID, err)
		}
	}
}
