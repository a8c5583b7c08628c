package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/service"
	"github.com/iliyamo/cinema-showtime-reservation/internal/ticket"
)

// ReservationHandler serves the authenticated user's bookings.
type ReservationHandler struct {
	svc *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

type reserveRequest struct {
	Row    int `json:"row" validate:"required,min=1"`
	Column int `json:"column" validate:"required,min=1"`
}

// Reserve handles POST /v1/showtimes/:id/reservations with a one-based
// {row, column} body.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showtimeID, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	t, err := h.svc.ReserveTicket(c.Request().Context(), service.ReserveInput{
		ShowtimeID: showtimeID,
		UserID:     userID,
		Row:        req.Row - 1,
		Column:     req.Column - 1,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTicketView(*t))
}

// Cancel handles DELETE /v1/showtimes/:id/reservations/me.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showtimeID, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	if err := h.svc.CancelUserReservation(c.Request().Context(), showtimeID, userID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type pageQuery struct {
	Cursor   string `query:"cursor"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1,max=64"`
}

// ListMine handles GET /v1/me/showtimes.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var q pageQuery
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return badRequest(c, err.Error())
	}
	if q.PageSize == 0 {
		q.PageSize = pagination.DefaultPageSize
	}
	page, err := h.svc.ListUserShowtimes(c.Request().Context(), userID, pagination.Params{Cursor: q.Cursor, PageSize: q.PageSize})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, mapPage(page, toTicketView))
}

// Ticket handles GET /v1/showtimes/:id/ticket.
func (h *ReservationHandler) Ticket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showtimeID, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	t, err := h.svc.GetUserTicket(c.Request().Context(), showtimeID, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTicketView(*t))
}

// TicketQR handles GET /v1/showtimes/:id/ticket/qr and returns a PNG.
func (h *ReservationHandler) TicketQR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showtimeID, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	t, err := h.svc.GetUserTicket(c.Request().Context(), showtimeID, userID)
	if err != nil {
		return fail(c, err)
	}
	png, err := ticket.QRCode(t)
	if err != nil {
		c.Logger().Errorf("ticket qr: %v", err)
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
