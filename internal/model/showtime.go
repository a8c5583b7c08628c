package model

import (
	"time"

	"github.com/google/uuid"
)

// Showtime is one scheduled screening of a movie in a hall.  At most one
// showtime may start in a given hall at a given instant.
//
// Fields:
//  ID        – primary key.
//  At        – scheduled start time.
//  MovieID   – screened movie.
//  HallID    – hall the screening takes place in.
//  CreatedAt – storage-assigned creation time, part of the keyset order.
type Showtime struct {
	ID        uuid.UUID `json:"id"`
	At        time.Time `json:"at"`
	MovieID   uuid.UUID `json:"movieId"`
	HallID    uuid.UUID `json:"hallId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShowtimeDetail is a showtime joined with display fields and the
// reservations made for it.
type ShowtimeDetail struct {
	ID           uuid.UUID             `json:"id"`
	At           time.Time             `json:"at"`
	MovieID      uuid.UUID             `json:"movieId"`
	MovieTitle   string                `json:"movieTitle"`
	HallID       uuid.UUID             `json:"hallId"`
	HallName     string                `json:"hallName"`
	CreatedAt    time.Time             `json:"createdAt"`
	Reservations []ShowtimeReservation `json:"reservations"`
}

// ShowtimeReservation is a reservation nested inside a ShowtimeDetail.
// Row and Column are zero-based here; handlers convert them for clients.
type ShowtimeReservation struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Row           int       `json:"row"`
	Column        int       `json:"column"`
	TransactionID *string   `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
}
