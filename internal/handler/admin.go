package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/rehearsal-room-booking/internal/repository"
	"github.com/iliyamo/rehearsal-room-booking/internal/service"
	"github.com/iliyamo/rehearsal-room-booking/internal/utils"
)

const adminTokenTTL = 12 * time.Hour

// AdminHandler exposes the operator endpoints: login and reservation
// cancellation.  The password is checked against a bcrypt hash supplied
// via configuration; a successful login yields a short-lived JWT.
type AdminHandler struct {
	Bookings     *service.BookingService
	JWTSecret    string
	PasswordHash string // bcrypt hash of the operator password
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(bookings *service.BookingService, jwtSecret, passwordHash string) *AdminHandler {
	return &AdminHandler{Bookings: bookings, JWTSecret: jwtSecret, PasswordHash: passwordHash}
}

// Login handles POST /v1/admin/login.  On a correct password it returns
// a signed session token for the admin route group.
func (h *AdminHandler) Login(c echo.Context) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(body.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong password"})
	}
	tok, err := utils.NewAdminToken(h.JWTSecret, adminTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp.Format(time.RFC3339),
	})
}

// Cancel handles DELETE /v1/admin/reservations/:id.  An optional message
// in the body is forwarded to the customer in the cancellation notice.
// The notification is best-effort; the delete always goes through.
func (h *AdminHandler) Cancel(c echo.Context) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = c.Bind(&body) // body is optional on DELETE
	err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), body.Message)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
