package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/handler"
	"github.com/iliyamo/cinema-showtime-reservation/internal/middleware"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// RegisterCustomer registers booking endpoints.  All routes require a
// valid JWT and the USER role; booking writes are rate limited.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	}
	writes := append(auth[:len(auth):len(auth)], optional(limit)...)

	g := e.Group("/v1")
	g.POST("/showtimes/:id/reservations", h.Reserve, writes...)
	g.DELETE("/showtimes/:id/reservations/me", h.Cancel, writes...)
	g.GET("/showtimes/:id/ticket", h.Ticket, auth...)
	g.GET("/showtimes/:id/ticket/qr", h.TicketQR, auth...)
	g.GET("/me/showtimes", h.ListMine, auth...)
}
