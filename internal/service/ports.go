// Package service implements showtime scheduling and seat reservation on
// top of the storage ports declared here.  Services return *apperror.Error
// values only; raw storage errors never leave this package.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/queue"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// ShowtimeStore is implemented by repository.ShowtimeRepo and
// memory.Store.
type ShowtimeStore interface {
	Create(ctx context.Context, s *model.Showtime) error
	ListRows(ctx context.Context, q repository.ShowtimeQuery) ([]repository.ShowtimeRow, error)
	LockTx(ctx context.Context, tx database.DBTX, id uuid.UUID) (bool, error)
	ReservationUserIDsTx(ctx context.Context, tx database.DBTX, id uuid.UUID) ([]uuid.UUID, error)
	DeleteTx(ctx context.Context, tx database.DBTX, id uuid.UUID) (int64, error)
}

// ReservationStore is implemented by repository.ReservationRepo and
// memory.Store.
type ReservationStore interface {
	SeatMapTx(ctx context.Context, tx database.DBTX, showtimeID uuid.UUID) (*model.SeatMap, error)
	InsertTx(ctx context.Context, tx database.DBTX, res *model.Reservation) error
	TicketTx(ctx context.Context, tx database.DBTX, showtimeID, userID uuid.UUID) (*model.Ticket, error)
	Ticket(ctx context.Context, showtimeID, userID uuid.UUID) (*model.Ticket, error)
	DeleteByUsersTx(ctx context.Context, tx database.DBTX, showtimeID uuid.UUID, userIDs []uuid.UUID) (int64, error)
	DeleteByShowtimeAndUser(ctx context.Context, showtimeID, userID uuid.UUID) (int64, error)
	ListUserRows(ctx context.Context, q repository.UserReservationQuery) ([]model.Ticket, error)
}

// TxRunner runs fn inside one storage transaction, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx database.DBTX) error) error
}

// EventPublisher hands committed bookings to downstream consumers.
type EventPublisher interface {
	PublishTicketReserved(ctx context.Context, ev queue.TicketReservedEvent) error
}

// Option configures the injected collaborators of a service.
type Option func(*settings)

type settings struct {
	now     func() time.Time
	newID   func() uuid.UUID
	minLead time.Duration
}

func defaults(opts []Option) settings {
	s := settings{now: time.Now, newID: uuid.New}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithIDGenerator replaces uuid.New.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *settings) { s.newID = gen }
}

// WithMinLead sets how far in the future a new showtime must start.
func WithMinLead(d time.Duration) Option {
	return func(s *settings) { s.minLead = d }
}
