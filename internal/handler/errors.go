// Package handler adapts the showtime and reservation services to HTTP.
// Seat coordinates are one-based on the wire and zero-based everywhere
// behind this package.
package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/middleware"
)

// statusOf maps an error kind onto an HTTP status.
func statusOf(k apperror.Kind) int {
	switch k {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes {"error": msg}.  Internal failures always read
// "internal error".
func fail(c echo.Context, err error) error {
	return c.JSON(statusOf(apperror.KindOf(err)), echo.Map{"error": apperror.MessageOf(err)})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, apperror.BadRequest(msg))
}

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated user set by middleware.JWTAuth.
func getUserID(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get(middleware.CtxUserID).(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errNoUser
	}
	return id, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}
