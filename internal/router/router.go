package router // HTTP route registration for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rehearsal-room-booking/internal/handler"
	"github.com/iliyamo/rehearsal-room-booking/internal/middleware"
)

// RegisterRoutes wires every endpoint of the service onto the provided
// Echo instance.  Public booking endpoints and the gateway webhook carry
// no authentication; the admin group is protected by the JWT middleware.
func RegisterRoutes(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, a *handler.AdminHandler, jwtSecret string) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Public booking API.
	e.POST("/v1/reservations", b.CreateReservation)
	e.GET("/v1/reservations/:id", b.GetReservation)
	e.GET("/v1/availability", b.Availability)

	// Payment reconciliation.  The webhook is registered on both verbs
	// because gateway versions have used either.
	e.GET("/v1/payments/webhook", p.Webhook)
	e.POST("/v1/payments/webhook", p.Webhook)
	e.POST("/v1/reservations/:id/confirm", p.ManualConfirm)

	// Operator endpoints.
	e.POST("/v1/admin/login", a.Login)
	admin := e.Group("/v1/admin")
	admin.Use(middleware.AdminAuth(jwtSecret))
	admin.DELETE("/reservations/:id", a.Cancel)
}
