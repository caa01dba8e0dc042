package service

import (
	"context"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
	"github.com/iliyamo/rehearsal-room-booking/internal/notify"
)

// Ledger is the slice of the reservation store the service layer consumes.
// repository.ReservationRepo is the production implementation; tests use
// in-memory fakes.  Every mutation is a conditional primitive: Create is
// guarded by the storage-level slot uniqueness, TransitionStatus is a
// compare-and-swap on the status column.
type Ledger interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error)
	ActiveSlots(ctx context.Context, date string) ([]string, error)
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	SetPayment(ctx context.Context, id, ref, payURL string) error
	SetPaymentNote(ctx context.Context, id, note string) error
	ListPendingWithPayment(ctx context.Context, limit int) ([]*model.Reservation, error)
	ListOverdue(ctx context.Context, limit int) ([]*model.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// Settings reads operator-tunable values.  Reads are best-effort with
// static fallbacks; see the settings package.
type Settings interface {
	PricePerSlotCents(ctx context.Context) int64
	AccessCode(ctx context.Context) string
}

// Notifier is the dispatch surface the service uses.  SendConfirmation is
// guarded by the per-channel send lock; Send is unguarded best-effort.
type Notifier interface {
	SendConfirmation(ctx context.Context, res *model.Reservation, accessCode string)
	Send(ctx context.Context, msg notify.Message)
}
