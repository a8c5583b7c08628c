package model

import (
	"time"

	"github.com/google/uuid"
)

// Movie is referenced by showtimes.  Price is kept in cents.
type Movie struct {
	ID         uuid.UUID // movies.id
	Title      string    // movies.title
	PriceCents int64     // movies.price_cents
	GenreID    uuid.UUID // movies.genre_id
	CreatedAt  time.Time // movies.created_at
}

// Genre groups movies.
type Genre struct {
	ID   uuid.UUID // genres.id
	Name string    // genres.name
}
