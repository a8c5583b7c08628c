package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
)

// ShowtimeFilter holds the optional equality filters of a showtime listing.
type ShowtimeFilter struct {
	ID      *uuid.UUID
	MovieID *uuid.UUID
	HallID  *uuid.UUID
}

// ShowtimeQuery is the full query description handed to the storage
// port: filters, keyset continuation and the number of showtimes to fetch.
// Results are always ordered by (created_at, id) ascending.
type ShowtimeQuery struct {
	Filter ShowtimeFilter
	After  *pagination.Cursor
	Limit  int
}

// Matches reports whether s satisfies the filter and keyset predicate.
// The MySQL repository expresses the same rule in SQL; the in-memory
// store uses this directly.
func (q ShowtimeQuery) Matches(s model.Showtime) bool {
	if q.Filter.ID != nil && s.ID != *q.Filter.ID {
		return false
	}
	if q.Filter.MovieID != nil && s.MovieID != *q.Filter.MovieID {
		return false
	}
	if q.Filter.HallID != nil && s.HallID != *q.Filter.HallID {
		return false
	}
	return q.After == nil || KeysetAfter(s.CreatedAt, s.ID, *q.After)
}

// KeysetAfter reports whether (createdAt, id) sorts strictly after c.
func KeysetAfter(createdAt time.Time, id uuid.UUID, c pagination.Cursor) bool {
	if createdAt.After(c.CreatedAt) {
		return true
	}
	return createdAt.Equal(c.CreatedAt) && id.String() > c.ID.String()
}

// KeysetLess orders two rows by (createdAt, id).
func KeysetLess(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return aID.String() < bID.String()
}

// ShowtimeRow is one flat row of the showtime/reservation left join.
// Reservation is nil for a showtime without reservations.
type ShowtimeRow struct {
	ShowtimeID  uuid.UUID
	At          time.Time
	MovieID     uuid.UUID
	MovieTitle  string
	HallID      uuid.UUID
	HallName    string
	CreatedAt   time.Time
	Reservation *model.ShowtimeReservation
}

// UserReservationQuery is the keyset query over one user's reservations,
// ordered by reservation (created_at, id).
type UserReservationQuery struct {
	UserID uuid.UUID
	After  *pagination.Cursor
	Limit  int
}
