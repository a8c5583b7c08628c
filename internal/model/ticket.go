package model

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is the display view of one reservation: who sits where, for
// which movie, in which hall, at what time.  Row and Column are zero-based.
type Ticket struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ShowtimeID    uuid.UUID `json:"showtimeId"`
	UserID        uuid.UUID `json:"userId"`
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
