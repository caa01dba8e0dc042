package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
)

const dateLayout = "2006-01-02"

// ReservationRepo provides data access to the reservations ledger.  It is
// the single source of truth for conflict detection and state.  Every
// state transition is expressed as a conditional UPDATE keyed on the
// expected prior state, so concurrent duplicate attempts resolve to
// exactly one winner without application-level locking.  All timestamps
// are stored and compared in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction management by callers
// that need to compose repository calls.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Create persists a new PENDING reservation together with one expanded row
// per slot in reservation_slots.  The slot rows carry a UNIQUE(res_date,
// slot) key, which is the serializing guard for slot exclusivity: two
// concurrent check-then-insert sequences for overlapping slots cannot both
// commit.  Before inserting, slot rows belonging to reservations that are
// no longer active (FAILED, EXPIRED, or PENDING past their deadline) are
// purged within the same transaction so stale holds never block a new
// booking.  A duplicate-key error is mapped to ErrSlotTaken.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Release slot rows held by reservations that no longer block the date.
	const purgeQ = `DELETE rs FROM reservation_slots rs
	                JOIN reservations r ON r.id = rs.reservation_id
	                WHERE rs.res_date = ?
	                  AND NOT (r.status = 'PAID'
	                           OR (r.status = 'PENDING' AND r.hold_deadline > UTC_TIMESTAMP()))`
	if _, err := tx.ExecContext(ctx, purgeQ, res.Date); err != nil {
		return err
	}

	const insQ = `INSERT INTO reservations
	              (id, res_date, slots, name, email, phone, amount_cents, currency, status, hold_deadline)
	              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var deadline interface{}
	if res.HoldDeadline != nil {
		deadline = res.HoldDeadline.UTC().Format("2006-01-02 15:04:05")
	}
	if _, err := tx.ExecContext(ctx, insQ,
		res.ID, res.Date, strings.Join(res.Slots, ","),
		res.Customer.Name, res.Customer.Email, res.Customer.Phone,
		res.AmountCents, res.Currency, res.Status, deadline,
	); err != nil {
		return err
	}

	slotQ := `INSERT INTO reservation_slots (reservation_id, res_date, slot) VALUES `
	args := make([]interface{}, 0, len(res.Slots)*3)
	for i, s := range res.Slots {
		if i > 0 {
			slotQ += ","
		}
		slotQ += "(?, ?, ?)"
		args = append(args, res.ID, res.Date, s)
	}
	if _, err := tx.ExecContext(ctx, slotQ, args...); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrSlotTaken
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ActiveSlots returns the normalized slot tokens currently blocked on the
// given date: slots of PAID reservations plus slots of PENDING reservations
// whose hold deadline has not passed.  Expired holds fall out of this
// query immediately, before the sweeper physically deletes them.
func (r *ReservationRepo) ActiveSlots(ctx context.Context, date string) ([]string, error) {
	const q = `SELECT rs.slot
	           FROM reservation_slots rs
	           JOIN reservations r ON r.id = rs.reservation_id
	           WHERE rs.res_date = ?
	             AND (r.status = 'PAID'
	                  OR (r.status = 'PENDING' AND r.hold_deadline > UTC_TIMESTAMP()))
	           ORDER BY rs.slot`
	rows, err := r.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	taken := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		taken = append(taken, s)
	}
	return taken, rows.Err()
}

const reservationCols = `id, res_date, slots, name, email, phone, amount_cents, currency,
	status, hold_deadline, payment_ref, pay_url, sms_status, email_status,
	last_payment_note, created_at, updated_at`

// scanner abstracts *sql.Row and *sql.Rows for scanReservation.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(s scanner) (*model.Reservation, error) {
	var (
		res        model.Reservation
		date       time.Time
		slots      string
		deadline   sql.NullTime
		paymentRef sql.NullString
		payURL     sql.NullString
		note       sql.NullString
	)
	err := s.Scan(
		&res.ID, &date, &slots,
		&res.Customer.Name, &res.Customer.Email, &res.Customer.Phone,
		&res.AmountCents, &res.Currency,
		&res.Status, &deadline, &paymentRef, &payURL,
		&res.SMSStatus, &res.EmailStatus, &note,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Date = date.Format(dateLayout)
	if slots != "" {
		res.Slots = strings.Split(slots, ",")
	}
	if deadline.Valid {
		t := deadline.Time.UTC()
		res.HoldDeadline = &t
	}
	if paymentRef.Valid {
		v := paymentRef.String
		res.PaymentRef = &v
	}
	if payURL.Valid {
		v := payURL.String
		res.PayURL = &v
	}
	if note.Valid {
		v := note.String
		res.LastPaymentNote = &v
	}
	return &res, nil
}

// GetByID loads a reservation by its identifier.  ErrNotFound is returned
// when no such reservation exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	q := `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// GetByPaymentRef loads a reservation by the opaque gateway handle stored
// at payment creation.  ErrNotFound is returned when no reservation
// carries the given reference.
func (r *ReservationRepo) GetByPaymentRef(ctx context.Context, ref string) (*model.Reservation, error) {
	q := `SELECT ` + reservationCols + ` FROM reservations WHERE payment_ref = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// TransitionStatus performs the conditional state transition every
// stateful operation is built from: the row is updated only when its
// current status equals from.  The hold deadline is cleared on every
// transition out of PENDING so that a deadline exists exactly while a
// reservation is pending.  It returns true when this call performed the
// transition; a zero-row update is a no-op, not an error, so concurrent
// duplicate attempts resolve to one winner.
func (r *ReservationRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	const q = `UPDATE reservations
	           SET status = ?, hold_deadline = NULL, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetPayment records the gateway handle and hosted payment page URL on a
// freshly created reservation.
func (r *ReservationRepo) SetPayment(ctx context.Context, id, ref, payURL string) error {
	const q = `UPDATE reservations SET payment_ref = ?, pay_url = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, ref, payURL, id)
	return err
}

// SetPaymentNote stores the last observed non-terminal gateway state as a
// free-text diagnostic.  The note never drives a transition.
func (r *ReservationRepo) SetPaymentNote(ctx context.Context, id, note string) error {
	const q = `UPDATE reservations SET last_payment_note = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, note, id)
	return err
}

// ListPendingWithPayment returns up to limit PENDING, unexpired
// reservations that already carry a payment reference, oldest first.
// The polling sweep uses this to bound its per-run gateway call volume.
func (r *ReservationRepo) ListPendingWithPayment(ctx context.Context, limit int) ([]*model.Reservation, error) {
	q := `SELECT ` + reservationCols + `
	      FROM reservations
	      WHERE status = 'PENDING' AND hold_deadline > UTC_TIMESTAMP() AND payment_ref IS NOT NULL
	      ORDER BY created_at
	      LIMIT ?`
	return r.list(ctx, q, limit)
}

// ListOverdue returns up to limit PENDING reservations whose hold deadline
// has passed.  The expiry sweeper drives each of them through the EXPIRED
// transition and then deletes them.
func (r *ReservationRepo) ListOverdue(ctx context.Context, limit int) ([]*model.Reservation, error) {
	q := `SELECT ` + reservationCols + `
	      FROM reservations
	      WHERE status = 'PENDING' AND hold_deadline <= UTC_TIMESTAMP()
	      ORDER BY hold_deadline
	      LIMIT ?`
	return r.list(ctx, q, limit)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Delete removes a reservation and its slot rows.  The slot rows go first
// so the unique key frees up atomically with the reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_slots WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// notifyColumn maps a notification channel to its status column.  The
// column name is interpolated into SQL, so only known channels pass.
func notifyColumn(channel string) (string, error) {
	switch channel {
	case model.ChannelSMS:
		return "sms_status", nil
	case model.ChannelEmail:
		return "email_status", nil
	default:
		return "", fmt.Errorf("unknown notification channel %q", channel)
	}
}

// AcquireNotifyLock attempts to take the per-reservation send lock for a
// channel.  The lock is a conditional UPDATE: it succeeds only when the
// channel state is UNSET or FAILED, and sets it to PENDING.  Under a
// trigger storm (webhook racing a poll cycle) at most one caller gets
// true, which is what guarantees at-most-one successful delivery.
func (r *ReservationRepo) AcquireNotifyLock(ctx context.Context, id, channel string) (bool, error) {
	col, err := notifyColumn(channel)
	if err != nil {
		return false, err
	}
	q := `UPDATE reservations SET ` + col + ` = 'PENDING', updated_at = UTC_TIMESTAMP()
	      WHERE id = ? AND ` + col + ` IN ('UNSET','FAILED')`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetNotifyState records the outcome of a send attempt: SENT on success,
// FAILED on failure (leaving the channel eligible for a future retry).
func (r *ReservationRepo) SetNotifyState(ctx context.Context, id, channel, state string) error {
	col, err := notifyColumn(channel)
	if err != nil {
		return err
	}
	q := `UPDATE reservations SET ` + col + ` = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q, state, id)
	return err
}
