package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
	"github.com/iliyamo/rehearsal-room-booking/internal/notify"
	"github.com/iliyamo/rehearsal-room-booking/internal/payment"
	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/slot"
	"github.com/iliyamo/rehearsal-room-booking/internal/utils"
)

const (
	// HoldTTL is how long a pending reservation keeps its slots while
	// waiting for the payment to arrive.
	HoldTTL = 15 * time.Minute

	dateLayout = "2006-01-02"

	// expiryBatchSize caps how many overdue holds one sweep processes.
	expiryBatchSize = 100
)

// BookingService owns the reservation lifecycle: creation with conflict
// detection, the conditional pending→paid/expired transitions, expiry
// sweeping and administrative cancellation.  No in-process lock is held
// across a ledger or gateway call; correctness under concurrent triggers
// comes entirely from the ledger's conditional primitives.
type BookingService struct {
	ledger   Ledger
	gateway  payment.Gateway
	settings Settings
	notifier Notifier
	loc      *time.Location // operating timezone of the room
	baseURL  string         // public base URL for return/notify links
	currency string
	now      func() time.Time
}

// NewBookingService wires a BookingService.  loc is the room's operating
// timezone, used for the today-or-future date check.
func NewBookingService(ledger Ledger, gw payment.Gateway, settings Settings, notifier Notifier, loc *time.Location, baseURL, currency string) *BookingService {
	return &BookingService{
		ledger:   ledger,
		gateway:  gw,
		settings: settings,
		notifier: notifier,
		loc:      loc,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: currency,
		now:      time.Now,
	}
}

// CreateRequest is the validated-at-the-edge input of a booking attempt.
type CreateRequest struct {
	Date  string
	Slots []string
	Name  string
	Email string
	Phone string
}

// Create validates the request, reserves the slots as a PENDING hold with
// a 15-minute deadline, opens a hosted payment and sends the payment
// request email.  On a gateway failure the freshly persisted hold is
// force-transitioned to FAILED so its slots release immediately.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	slots := slot.NormalizeAll(req.Slots)
	if err := slot.Validate(slots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be %s", ErrValidation, dateLayout)
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if date.Before(today) {
		return nil, fmt.Errorf("%w: date is in the past", ErrValidation)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	phone := utils.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: invalid phone number", ErrValidation)
	}

	// Price is captured once here; later price changes never reprice
	// existing reservations.
	price := s.settings.PricePerSlotCents(ctx)
	deadline := s.now().UTC().Add(HoldTTL)
	res := &model.Reservation{
		ID:           uuid.NewString(),
		Date:         date.Format(dateLayout),
		Slots:        slots,
		Customer:     model.Customer{Name: name, Email: req.Email, Phone: phone},
		AmountCents:  price * int64(len(slots)),
		Currency:     s.currency,
		Status:       model.StatusPending,
		HoldDeadline: &deadline,
		SMSStatus:    model.NotifyUnset,
		EmailStatus:  model.NotifyUnset,
	}

	if err := s.ledger.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, fmt.Errorf("%w: requested slots overlap an active reservation", ErrConflict)
		}
		return nil, err
	}

	created, err := s.gateway.CreatePayment(ctx, payment.CreateRequest{
		AmountCents: res.AmountCents,
		Currency:    res.Currency,
		OrderRef:    res.ID,
		ReturnURL:   s.baseURL + "/booking/" + res.ID,
		NotifyURL:   s.baseURL + "/v1/payments/webhook",
	})
	if err != nil {
		// Known-dead payment: release the slots now instead of letting
		// the hold sit out its 15 minutes.
		if _, terr := s.ledger.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusFailed); terr != nil {
			log.Printf("booking: failed to release hold %s after gateway error: %v", res.ID, terr)
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if err := s.ledger.SetPayment(ctx, res.ID, created.Ref, created.PayURL); err != nil {
		log.Printf("booking: store payment ref for %s failed: %v", res.ID, err)
	}
	res.PaymentRef = &created.Ref
	res.PayURL = &created.PayURL

	s.notifier.Send(ctx, notify.PaymentRequestEmail(res))
	return res, nil
}

// Availability returns the slot tokens blocked on the given date.  The
// result is advisory; the creation-time transactional guard remains
// authoritative under races.
func (s *BookingService) Availability(ctx context.Context, date string) ([]string, error) {
	if _, err := time.ParseInLocation(dateLayout, date, s.loc); err != nil {
		return nil, fmt.Errorf("%w: date must be %s", ErrValidation, dateLayout)
	}
	return s.ledger.ActiveSlots(ctx, date)
}

// MarkPaid drives the pending→paid transition.  It returns true only for
// the single call that performed the transition; that winner, and nobody
// else, fires the confirmation notifications.  Calling it for an already
// paid (or expired, failed, missing) reservation is a no-op.
func (s *BookingService) MarkPaid(ctx context.Context, id string) (bool, error) {
	won, err := s.ledger.TransitionStatus(ctx, id, model.StatusPending, model.StatusPaid)
	if err != nil || !won {
		return false, err
	}
	snapshot, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		log.Printf("booking: load snapshot for confirmed %s failed: %v", id, err)
		return true, nil
	}
	s.notifier.SendConfirmation(ctx, snapshot, s.settings.AccessCode(ctx))
	return true, nil
}

// ExpireOverdue is the expiry sweep: every PENDING reservation past its
// hold deadline is conditionally transitioned to EXPIRED, notified
// best-effort and deleted.  A markPaid racing on the same row makes the
// conditional update here affect zero rows, in which case the row is left
// alone.  Notification failure never blocks the delete.
func (s *BookingService) ExpireOverdue(ctx context.Context) {
	overdue, err := s.ledger.ListOverdue(ctx, expiryBatchSize)
	if err != nil {
		log.Printf("expiry: list overdue holds failed: %v", err)
		return
	}
	for _, res := range overdue {
		won, err := s.ledger.TransitionStatus(ctx, res.ID, model.StatusPending, model.StatusExpired)
		if err != nil {
			log.Printf("expiry: transition %s failed: %v", res.ID, err)
			continue
		}
		if !won {
			// Lost to a concurrent payment confirmation.
			continue
		}
		s.notifier.Send(ctx, notify.ExpiryEmail(res))
		if err := s.ledger.Delete(ctx, res.ID); err != nil {
			log.Printf("expiry: delete %s failed: %v", res.ID, err)
		}
	}
}

// Get loads one reservation by ID.
func (s *BookingService) Get(ctx context.Context, id string) (*model.Reservation, error) {
	return s.ledger.GetByID(ctx, id)
}

// Cancel is the administrative path: it sends a best-effort cancellation
// notice built from the current snapshot and deletes the reservation.
// Notification errors are logged inside the dispatcher and never block
// the delete.
func (s *BookingService) Cancel(ctx context.Context, id, reason string) error {
	res, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.notifier.Send(ctx, notify.CancellationEmail(res, reason))
	return s.ledger.Delete(ctx, id)
}
