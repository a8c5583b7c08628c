// Package queue carries booking events over RabbitMQ.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// TicketReservedQueue is the durable queue booking events are routed to.
const TicketReservedQueue = "ticket.reserved"

// TicketReservedEvent is published after a booking transaction commits.
// It is the hand-off point for payment settlement, which later fills the
// reservation's transaction id.  Row and Column are zero-based.
type TicketReservedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ShowtimeID    uuid.UUID `json:"showtime_id"`
	UserID        uuid.UUID `json:"user_id"`
	HallName      string    `json:"hall_name"`
	MovieTitle    string    `json:"movie_title"`
	At            time.Time `json:"at"`
	Row           int       `json:"row"`
	Column        int       `json:"column"`
	ReservedAt    time.Time `json:"reserved_at"`
}
