package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
)

// RequestLog records method, route, status and latency of every request.
func RequestLog(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			log.LogAPI(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
