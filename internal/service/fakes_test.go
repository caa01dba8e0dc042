package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
	"github.com/iliyamo/rehearsal-room-booking/internal/notify"
	"github.com/iliyamo/rehearsal-room-booking/internal/payment"
	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/slot"
)

// testClock is a mutable clock shared between the service under test and
// the in-memory ledger so the "active" predicate and the hold deadline
// agree on what now means.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeLedger is an in-memory Ledger with the same conditional-update
// semantics as the MySQL repository: Create refuses overlaps with active
// reservations, TransitionStatus is a compare-and-swap on status.
type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]*model.Reservation
	now  func() time.Time
}

func newFakeLedger(now func() time.Time) *fakeLedger {
	return &fakeLedger{rows: make(map[string]*model.Reservation), now: now}
}

func (f *fakeLedger) Create(ctx context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for _, row := range f.rows {
		if row.Date == res.Date && row.Active(now) && slot.Overlaps(row.Slots, res.Slots) {
			return repository.ErrSlotTaken
		}
	}
	cp := *res
	f.rows[res.ID] = &cp
	return nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeLedger) GetByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PaymentRef != nil && *row.PaymentRef == ref {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLedger) ActiveSlots(ctx context.Context, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	taken := make([]string, 0)
	for _, row := range f.rows {
		if row.Date == date && row.Active(now) {
			taken = append(taken, row.Slots...)
		}
	}
	return taken, nil
}

func (f *fakeLedger) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Status != from {
		return false, nil
	}
	row.Status = to
	row.HoldDeadline = nil
	return true, nil
}

func (f *fakeLedger) SetPayment(ctx context.Context, id, ref, payURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.PaymentRef = &ref
		row.PayURL = &payURL
	}
	return nil
}

func (f *fakeLedger) SetPaymentNote(ctx context.Context, id, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.LastPaymentNote = &note
	}
	return nil
}

func (f *fakeLedger) ListPendingWithPayment(ctx context.Context, limit int) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	var out []*model.Reservation
	for _, row := range f.rows {
		if row.Pending(now) && row.PaymentRef != nil && len(out) < limit {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListOverdue(ctx context.Context, limit int) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	var out []*model.Reservation
	for _, row := range f.rows {
		if row.Status == model.StatusPending && row.HoldDeadline != nil &&
			!now.Before(*row.HoldDeadline) && len(out) < limit {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedger) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

// fakeGateway hands out sequential payment refs and serves states from a
// settable map.
type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	fetchErr  error
	states    map[string]payment.State
	created   []payment.CreateRequest
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{states: make(map[string]payment.State)}
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req payment.CreateRequest) (payment.CreateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return payment.CreateResult{}, g.createErr
	}
	g.seq++
	ref := fmt.Sprintf("pay-%d", g.seq)
	g.created = append(g.created, req)
	g.states[ref] = payment.State{Kind: payment.KindCreated, Raw: "created"}
	return payment.CreateResult{Ref: ref, PayURL: "https://pay.example/" + ref}, nil
}

func (g *fakeGateway) FetchState(ctx context.Context, ref string) (payment.State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return payment.State{}, g.fetchErr
	}
	return g.states[ref], nil
}

func (g *fakeGateway) setState(ref string, state payment.State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.states[ref] = state
}

// fakeNotifier records dispatch calls.  SendConfirmation counts per
// reservation so tests can assert the exactly-once property.
type fakeNotifier struct {
	mu            sync.Mutex
	confirmations map[string]int
	sent          []notify.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{confirmations: make(map[string]int)}
}

func (n *fakeNotifier) SendConfirmation(ctx context.Context, res *model.Reservation, accessCode string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations[res.ID]++
}

func (n *fakeNotifier) Send(ctx context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *fakeNotifier) confirmationCount(id string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmations[id]
}

func (n *fakeNotifier) sentMessages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.Message, len(n.sent))
	copy(out, n.sent)
	return out
}

type fakeSettings struct {
	priceCents int64
	accessCode string
}

func (s fakeSettings) PricePerSlotCents(ctx context.Context) int64 { return s.priceCents }
func (s fakeSettings) AccessCode(ctx context.Context) string       { return s.accessCode }

// newTestService wires a BookingService over the in-memory fakes with a
// controllable clock starting at 2026-01-04 12:00 UTC.
func newTestService() (*BookingService, *fakeLedger, *fakeGateway, *fakeNotifier, *testClock) {
	clock := newTestClock(time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC))
	ledger := newFakeLedger(clock.Now)
	gw := newFakeGateway()
	notifier := newFakeNotifier()
	svc := NewBookingService(ledger, gw, fakeSettings{priceCents: 20000, accessCode: "4242"},
		notifier, time.UTC, "https://rooms.example", "EUR")
	svc.now = clock.Now
	return svc, ledger, gw, notifier, clock
}
