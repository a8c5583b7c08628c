package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/service"
)

// ShowtimeHandler serves showtime listing, lookup, creation and deletion.
type ShowtimeHandler struct {
	svc *service.ShowtimeService
}

// NewShowtimeHandler constructs a ShowtimeHandler.
func NewShowtimeHandler(svc *service.ShowtimeService) *ShowtimeHandler {
	if svc == nil {
		panic("nil service passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{svc: svc}
}

type listShowtimesQuery struct {
	MovieID  string `query:"movieId" validate:"omitempty,uuid"`
	HallID   string `query:"hallId" validate:"omitempty,uuid"`
	Cursor   string `query:"cursor"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1,max=64"`
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := uuid.MustParse(s)
	return &id
}

// List handles GET /v1/showtimes.
func (h *ShowtimeHandler) List(c echo.Context) error {
	var q listShowtimesQuery
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return badRequest(c, err.Error())
	}
	if q.PageSize == 0 {
		q.PageSize = pagination.DefaultPageSize
	}

	page, err := h.svc.ListShowtimes(c.Request().Context(),
		service.ShowtimeFilter{MovieID: optionalUUID(q.MovieID), HallID: optionalUUID(q.HallID)},
		pagination.Params{Cursor: q.Cursor, PageSize: q.PageSize})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, mapPage(page, toShowtimeView))
}

// Get handles GET /v1/showtimes/:id.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	d, err := h.svc.GetShowtime(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toShowtimeView(*d))
}

type createShowtimeRequest struct {
	At      time.Time `json:"at" validate:"required"`
	MovieID string    `json:"movieId" validate:"required,uuid"`
	HallID  string    `json:"hallId" validate:"required,uuid"`
}

// Create handles POST /v1/showtimes.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	var req createShowtimeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	st, err := h.svc.CreateShowtime(c.Request().Context(), service.CreateShowtimeInput{
		At:      req.At,
		MovieID: uuid.MustParse(req.MovieID),
		HallID:  uuid.MustParse(req.HallID),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// Delete handles DELETE /v1/showtimes/:id.  Deleting an absent showtime
// also answers 204.
func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	if err := h.svc.DeleteShowtime(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
