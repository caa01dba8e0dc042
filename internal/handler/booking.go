package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-booking/internal/captcha"
	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/service"
)

// BookingHandler exposes the public booking endpoints: creating a hold
// and querying slot availability.  Input is validated here only as far
// as binding goes; the real validation lives in the service layer.
type BookingHandler struct {
	Bookings *service.BookingService
	Captcha  captcha.Verifier
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *service.BookingService, verifier captcha.Verifier) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Captcha: verifier}
}

// CreateReservation handles POST /v1/reservations.  It verifies the
// captcha token, creates a PENDING hold with a 15-minute deadline and
// returns the hosted payment URL.  Rejections are structured: 400 for
// validation, 409 for slot conflicts, 502 when the payment provider is
// down (in which case no hold survives).
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	var body struct {
		Date         string   `json:"date"`
		Slots        []string `json:"slots"`
		Name         string   `json:"name"`
		Email        string   `json:"email"`
		Phone        string   `json:"phone"`
		CaptchaToken string   `json:"captcha_token"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if err := h.Captcha.Verify(ctx, body.CaptchaToken, c.RealIP()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "captcha verification failed"})
	}
	res, err := h.Bookings.Create(ctx, service.CreateRequest{
		Date:  body.Date,
		Slots: body.Slots,
		Name:  body.Name,
		Email: body.Email,
		Phone: body.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "requested slots are no longer available"})
		case errors.Is(err, service.ErrGateway):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable, please try again"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	payURL := ""
	if res.PayURL != nil {
		payURL = *res.PayURL
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":           res.ID,
		"pay_url":      payURL,
		"amount_cents": res.AmountCents,
		"currency":     res.Currency,
		"deadline":     res.HoldDeadline.UTC().Format(time.RFC3339),
	})
}

// Availability handles GET /v1/availability?date=YYYY-MM-DD.  It returns
// the slot tokens currently blocked on that date so clients can gray out
// taken slots.  The answer is advisory; creation remains the
// authoritative check.
func (h *BookingHandler) Availability(c echo.Context) error {
	date := c.QueryParam("date")
	taken, err := h.Bookings.Availability(c.Request().Context(), date)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  date,
		"taken": taken,
	})
}

// GetReservation handles GET /v1/reservations/:id, used by the payment
// return page to show the customer where their booking stands.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	res, err := h.Bookings.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           res.ID,
		"date":         res.Date,
		"slots":        res.Slots,
		"status":       res.Status,
		"amount_cents": res.AmountCents,
		"currency":     res.Currency,
	})
}
