package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/service"
)

// handleFields lists the parameter names under which gateway versions
// have historically delivered the payment handle.
var handleFields = []string{"paymentId", "payment_id", "handle", "id"}

// PaymentHandler exposes the payment reconciliation endpoints: the
// gateway webhook and the manual confirm fallback.
type PaymentHandler struct {
	Bookings *service.BookingService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(bookings *service.BookingService) *PaymentHandler {
	return &PaymentHandler{Bookings: bookings}
}

// Webhook handles GET and POST /v1/payments/webhook.  The payment handle
// may arrive in the query string or in a JSON body, under several
// historical field names.  The response is always a success so the
// gateway never retry-storms into an error loop; internal problems are
// logged as anomalies instead.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	handle := extractHandle(c)
	if handle == "" {
		log.Printf("webhook: no payment handle in request")
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}
	if err := h.Bookings.ReconcileHandle(c.Request().Context(), handle); err != nil {
		log.Printf("webhook: reconcile %q failed: %v", handle, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func extractHandle(c echo.Context) string {
	for _, f := range handleFields {
		if v := c.QueryParam(f); v != "" {
			return v
		}
	}
	if c.Request().Body == nil {
		return ""
	}
	var body map[string]interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return ""
	}
	for _, f := range handleFields {
		if v, ok := body[f].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ManualConfirm handles POST /v1/reservations/:id/confirm: a synchronous
// gateway check for a single reservation, used as a fallback when the
// webhook and the poll are delayed.  It returns the reservation status
// after the check together with the observed gateway state.
func (h *PaymentHandler) ManualConfirm(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	state, err := h.Bookings.ManualConfirm(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrGateway):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	res, err := h.Bookings.Get(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":        res.Status,
		"payment_state": state.Kind.String(),
	})
}
