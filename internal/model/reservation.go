package model

import "time"

// Reservation status values.  PENDING rows hold their slots until the
// hold deadline passes; PAID and EXPIRED are terminal.  FAILED marks a
// reservation whose payment could not even be created; its slots are
// released immediately but the row may be kept for audit.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusFailed  = "FAILED"
	StatusExpired = "EXPIRED"
)

// Notification channel states.  UNSET means no send was ever attempted,
// PENDING marks an in-flight send (the send lock), SENT and FAILED are
// the terminal outcomes.  A FAILED channel may be re-acquired by a later
// trigger; a SENT channel never is.
const (
	NotifyUnset   = "UNSET"
	NotifyPending = "PENDING"
	NotifySent    = "SENT"
	NotifyFailed  = "FAILED"
)

// Notification channels recognised by the dispatcher.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Customer holds the contact details captured at reservation time.
// The phone number is normalized to E.164 before persisting and is
// immutable afterwards.
type Customer struct {
	Name  string // customer display name
	Email string // contact email address
	Phone string // E.164 phone number
}

// Reservation is the central entity of the booking ledger.  It records a
// set of hourly slots on one calendar day held by one customer, the price
// captured at creation, the payment reference issued by the gateway and
// the per-channel notification state.
//
// Fields:
//  ID              – UUID assigned at creation, immutable.
//  Date            – calendar day in the room's timezone ("2006-01-02").
//  Slots           – ordered, normalized, non-overlapping slot tokens.
//  Customer        – contact details, immutable after creation.
//  AmountCents     – slots × price-per-slot captured at creation.
//  Currency        – ISO currency code captured at creation.
//  Status          – PENDING, PAID, FAILED or EXPIRED.
//  HoldDeadline    – present iff Status is PENDING.
//  PaymentRef      – opaque gateway handle; nil until payment creation.
//  PayURL          – hosted payment page returned by the gateway.
//  SMSStatus       – confirmation SMS send lock state.
//  EmailStatus     – confirmation email send lock state.
//  LastPaymentNote – last observed non-terminal gateway state; diagnostic
//                    only, never drives a transition by itself.
type Reservation struct {
	ID              string     // reservations.id
	Date            string     // reservations.res_date
	Slots           []string   // reservations.slots (comma joined in DB)
	Customer        Customer   // reservations.name / email / phone
	AmountCents     int64      // reservations.amount_cents
	Currency        string     // reservations.currency
	Status          string     // reservations.status
	HoldDeadline    *time.Time // reservations.hold_deadline (nullable)
	PaymentRef      *string    // reservations.payment_ref (nullable)
	PayURL          *string    // reservations.pay_url (nullable)
	SMSStatus       string     // reservations.sms_status
	EmailStatus     string     // reservations.email_status
	LastPaymentNote *string    // reservations.last_payment_note (nullable)
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}

// Pending reports whether the reservation still holds its slots at the
// given instant, i.e. it is PENDING and its hold deadline has not passed.
func (r *Reservation) Pending(now time.Time) bool {
	return r.Status == StatusPending && r.HoldDeadline != nil && now.Before(*r.HoldDeadline)
}

// Active reports whether the reservation blocks its slots for conflict
// purposes: PAID, or PENDING with an unexpired hold.
func (r *Reservation) Active(now time.Time) bool {
	return r.Status == StatusPaid || r.Pending(now)
}
