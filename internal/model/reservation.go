package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a user's ticket for a showtime.  A user holds at most one
// reservation per showtime and a seat is held by at most one user per
// showtime.
//
// Fields:
//  ID            – primary key.
//  ShowtimeID    – reserved showtime.
//  UserID        – ticket holder.
//  Row, Column   – zero-based seat coordinates within the hall.
//  TransactionID – payment settlement reference, nil until paid.
//  CreatedAt     – storage-assigned creation time.
type Reservation struct {
	ID            uuid.UUID // reservations.id
	ShowtimeID    uuid.UUID // reservations.showtime_id
	UserID        uuid.UUID // reservations.user_id
	Row           int       // reservations.seat_row
	Column        int       // reservations.seat_column
	TransactionID *string   // reservations.transaction_id (nullable)
	CreatedAt     time.Time // reservations.created_at
}

// Seat is an occupied seat together with its holder.
type Seat struct {
	UserID uuid.UUID
	Row    int
	Column int
}

// SeatMap is the hall capacity of a showtime plus every seat already taken.
type SeatMap struct {
	ShowtimeID uuid.UUID
	Rows       int
	Columns    int
	Taken      []Seat
}

// TakenByOther reports whether the seat is held by a user other than userID.
func (m SeatMap) TakenByOther(row, column int, userID uuid.UUID) bool {
	for _, s := range m.Taken {
		if s.Row == row && s.Column == column && s.UserID != userID {
			return true
		}
	}
	return false
}

// HeldBy returns the seat userID already holds, if any.
func (m SeatMap) HeldBy(userID uuid.UUID) (Seat, bool) {
	for _, s := range m.Taken {
		if s.UserID == userID {
			return s, true
		}
	}
	return Seat{}, false
}
