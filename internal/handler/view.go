package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
)

// Response shapes.  Seats are shifted to one-based here.

type reservationView struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Row           int       `json:"row"`
	Column        int       `json:"column"`
	TransactionID *string   `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}

type showtimeView struct {
	ID           uuid.UUID         `json:"id"`
	At           time.Time         `json:"at"`
	MovieID      uuid.UUID         `json:"movieId"`
	MovieTitle   string            `json:"movieTitle"`
	HallID       uuid.UUID         `json:"hallId"`
	HallName     string            `json:"hallName"`
	CreatedAt    time.Time         `json:"createdAt"`
	Reservations []reservationView `json:"reservations"`
}

type ticketView struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ShowtimeID    uuid.UUID `json:"showtimeId"`
	HallID        uuid.UUID `json:"hallId"`
	HallName      string    `json:"hallName"`
	MovieID       uuid.UUID `json:"movieId"`
	MovieTitle    string    `json:"movieTitle"`
	At            time.Time `json:"at"`
	Row           int       `json:"row"`
	Column        int       `json:"column"`
	TransactionID *string   `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toShowtimeView(d model.ShowtimeDetail) showtimeView {
	v := showtimeView{
		ID:           d.ID,
		At:           d.At,
		MovieID:      d.MovieID,
		MovieTitle:   d.MovieTitle,
		HallID:       d.HallID,
		HallName:     d.HallName,
		CreatedAt:    d.CreatedAt,
		Reservations: make([]reservationView, 0, len(d.Reservations)),
	}
	for _, r := range d.Reservations {
		v.Reservations = append(v.Reservations, reservationView{
			ID:            r.ID,
			UserID:        r.UserID,
			Row:           r.Row + 1,
			Column:        r.Column + 1,
			TransactionID: r.TransactionID,
			CreatedAt:     r.CreatedAt,
		})
	}
	return v
}

func toTicketView(t model.Ticket) ticketView {
	return ticketView{
		ReservationID: t.ReservationID,
		ShowtimeID:    t.ShowtimeID,
		HallID:        t.HallID,
		HallName:      t.HallName,
		MovieID:       t.MovieID,
		MovieTitle:    t.MovieTitle,
		At:            t.At,
		Row:           t.Row + 1,
		Column:        t.Column + 1,
		TransactionID: t.TransactionID,
		CreatedAt:     t.CreatedAt,
	}
}

// mapPage converts the items of a page, keeping its continuation state.
func mapPage[T, V any](p pagination.Paged[T], conv func(T) V) pagination.Paged[V] {
	out := pagination.Paged[V]{Items: make([]V, 0, len(p.Items)), Page: p.Page}
	for _, it := range p.Items {
		out.Items = append(out.Items, conv(it))
	}
	return out
}
