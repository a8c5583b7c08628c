package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/handler"
	"github.com/iliyamo/cinema-showtime-reservation/internal/middleware"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// RegisterAdmin registers showtime scheduling.  Routes require a valid
// JWT and the ADMIN role.  Auth is attached per route so that unknown
// paths under the prefix still answer 404.
func RegisterAdmin(e *echo.Echo, h *handler.ShowtimeHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	}
	g := e.Group("/v1/showtimes")
	g.POST("", h.Create, auth...)
	g.DELETE("/:id", h.Delete, auth...)
}
