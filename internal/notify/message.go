// Package notify implements the at-most-once notification dispatcher and
// its message vocabulary.  Messages are built from the reservation
// snapshot taken at the moment of the winning transition, never re-fetched
// later, and are handed to a transport that queues them for delivery.
package notify

import (
	"fmt"
	"strings"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
)

// Message is one outbound notification.  Channel selects the transport
// queue; Subject is ignored for SMS.
type Message struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

func amount(res *model.Reservation) string {
	return fmt.Sprintf("%d.%02d %s", res.AmountCents/100, res.AmountCents%100, res.Currency)
}

func slotList(res *model.Reservation) string {
	return strings.Join(res.Slots, ", ")
}

// ConfirmationEmail announces a paid booking and includes the room access
// code so the customer can get in.
func ConfirmationEmail(res *model.Reservation, accessCode string) Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nyour rehearsal room booking is confirmed.\n\nDate: %s\nTime: %s\nAmount paid: %s\nDoor code: %s\n\nSee you there!",
		res.Customer.Name, res.Date, slotList(res), amount(res), accessCode,
	)
	return Message{
		Channel: model.ChannelEmail,
		To:      res.Customer.Email,
		Subject: fmt.Sprintf("Booking confirmed for %s", res.Date),
		Body:    body,
	}
}

// ConfirmationSMS is the short form of the confirmation.
func ConfirmationSMS(res *model.Reservation, accessCode string) Message {
	body := fmt.Sprintf("Rehearsal room booked: %s %s. Door code: %s", res.Date, slotList(res), accessCode)
	return Message{Channel: model.ChannelSMS, To: res.Customer.Phone, Body: body}
}

// PaymentRequestEmail is sent right after a hold is created and carries
// the payment link and the deadline.
func PaymentRequestEmail(res *model.Reservation) Message {
	payURL := ""
	if res.PayURL != nil {
		payURL = *res.PayURL
	}
	deadline := ""
	if res.HoldDeadline != nil {
		deadline = res.HoldDeadline.UTC().Format("15:04 MST")
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nwe are holding the rehearsal room for you.\n\nDate: %s\nTime: %s\nAmount due: %s\n\nPlease pay here: %s\nThe hold expires at %s; unpaid bookings are released automatically.",
		res.Customer.Name, res.Date, slotList(res), amount(res), payURL, deadline,
	)
	return Message{
		Channel: model.ChannelEmail,
		To:      res.Customer.Email,
		Subject: fmt.Sprintf("Complete your booking for %s", res.Date),
		Body:    body,
	}
}

// ExpiryEmail tells the customer their unpaid hold was released.
func ExpiryEmail(res *model.Reservation) Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nyour hold on the rehearsal room for %s (%s) expired because no payment arrived in time. The slots are available again — feel free to book another time.",
		res.Customer.Name, res.Date, slotList(res),
	)
	return Message{
		Channel: model.ChannelEmail,
		To:      res.Customer.Email,
		Subject: fmt.Sprintf("Booking hold expired for %s", res.Date),
		Body:    body,
	}
}

// CancellationEmail announces an administrative cancellation, with an
// optional operator-supplied note.
func CancellationEmail(res *model.Reservation, reason string) Message {
	body := fmt.Sprintf(
		"Hi %s,\n\nyour rehearsal room booking for %s (%s) has been cancelled.",
		res.Customer.Name, res.Date, slotList(res),
	)
	if reason != "" {
		body += "\n\nNote from the operator: " + reason
	}
	return Message{
		Channel: model.ChannelEmail,
		To:      res.Customer.Email,
		Subject: fmt.Sprintf("Booking cancelled for %s", res.Date),
		Body:    body,
	}
}
