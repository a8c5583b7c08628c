// Package router registers HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-showtime-reservation/internal/handler"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/middleware"
)

// Deps are the collaborators the routes need.  Cache and RateLimit may be
// nil, in which case those layers are skipped.
type Deps struct {
	Showtimes    *handler.ShowtimeHandler
	Reservations *handler.ReservationHandler
	JWTSecret    string
	Log          *logger.Logger
	Cache        echo.MiddlewareFunc
	RateLimit    echo.MiddlewareFunc
}

// New builds an echo instance with the global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(d.Log))

	RegisterRoutes(e)
	RegisterPublic(e, d.Showtimes, d.Cache)
	RegisterAdmin(e, d.Showtimes, d.JWTSecret)
	RegisterCustomer(e, d.Reservations, d.JWTSecret, d.RateLimit)
	return e
}

// RegisterRoutes registers routes that do not touch the domain.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated showtime reads.
func RegisterPublic(e *echo.Echo, h *handler.ShowtimeHandler, cache echo.MiddlewareFunc) {
	mw := optional(cache)
	g := e.Group("/v1/showtimes")
	g.GET("", h.List, mw...)
	g.GET("/:id", h.Get, mw...)
}

func optional(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
