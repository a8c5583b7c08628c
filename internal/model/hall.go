package model

import (
	"time"

	"github.com/google/uuid"
)

// Hall is a screening room.  Rows and Columns bound the seat coordinates
// that may be reserved for any showtime scheduled in it.
//
// Fields:
//  ID        – primary key.
//  Name      – unique, compared case-insensitively by the column collation.
//  Rows      – number of seat rows, at least 1.
//  Columns   – number of seats per row, at least 1.
//  CreatedAt – storage-assigned creation time.
type Hall struct {
	ID        uuid.UUID // halls.id
	Name      string    // halls.name
	Rows      int       // halls.seat_rows
	Columns   int       // halls.seat_columns
	CreatedAt time.Time // halls.created_at
}

// Contains reports whether the zero-based seat lies inside the hall.
func (h Hall) Contains(row, column int) bool {
	return row >= 0 && column >= 0 && row < h.Rows && column < h.Columns
}
