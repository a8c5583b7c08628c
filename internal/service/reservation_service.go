package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/queue"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// ReserveInput carries a booking request.  Row and Column are zero-based.
type ReserveInput struct {
	ShowtimeID uuid.UUID
	UserID     uuid.UUID
	Row        int
	Column     int
}

// ReservationService books, cancels and lists seat reservations.
type ReservationService struct {
	reservations ReservationStore
	tx           TxRunner
	events       EventPublisher
	log          *logger.Logger
	settings
}

// NewReservationService wires a ReservationService.  events may be nil,
// in which case no booking events are published.
func NewReservationService(reservations ReservationStore, tx TxRunner, events EventPublisher, log *logger.Logger, opts ...Option) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		tx:           tx,
		events:       events,
		log:          log,
		settings:     defaults(opts),
	}
}

// ReserveTicket books one seat for a user in a single transaction and
// returns the ticket.  Booking again for a showtime the user already
// holds a seat in returns the existing ticket unchanged.
func (s *ReservationService) ReserveTicket(ctx context.Context, in ReserveInput) (*model.Ticket, error) {
	if in.Row < 0 || in.Column < 0 {
		return nil, apperror.BadRequest("seat row and column must not be negative")
	}

	var (
		ticket   *model.Ticket
		inserted bool
	)
	err := s.tx.InTx(ctx, func(tx database.DBTX) error {
		seats, err := s.reservations.SeatMapTx(ctx, tx, in.ShowtimeID)
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return apperror.NotFound("showtime not found")
		}
		if err != nil {
			return err
		}
		hall := model.Hall{Rows: seats.Rows, Columns: seats.Columns}
		if !hall.Contains(in.Row, in.Column) {
			return apperror.BadRequestf("seat is outside the hall (%d rows, %d columns)", hall.Rows, hall.Columns)
		}
		if seats.TakenByOther(in.Row, in.Column, in.UserID) {
			return apperror.Conflict("seat already reserved")
		}

		if _, held := seats.HeldBy(in.UserID); !held {
			res := &model.Reservation{
				ID:         s.newID(),
				ShowtimeID: in.ShowtimeID,
				UserID:     in.UserID,
				Row:        in.Row,
				Column:     in.Column,
			}
			switch err := s.reservations.InsertTx(ctx, tx, res); {
			case err == nil:
				inserted = true
			case repository.IsDuplicate(err, repository.UqReservationsShowtimeUser):
				// booked by a concurrent request of the same user
			default:
				return repository.TranslateReservationWrite(err)
			}
		}

		ticket, err = s.reservations.TicketTx(ctx, tx, in.ShowtimeID, in.UserID)
		return err
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			s.log.LogBookingError("reserve_failed", in.ShowtimeID.String(), err)
		}
		return nil, apperror.Internal(err)
	}

	if inserted {
		s.log.LogBooking("reserved", in.ShowtimeID.String(),
			fmt.Sprintf("user %s seat (%d, %d)", in.UserID, in.Row, in.Column))
		s.publish(ctx, ticket)
	}
	return ticket, nil
}

func (s *ReservationService) publish(ctx context.Context, t *model.Ticket) {
	if s.events == nil {
		return
	}
	ev := queue.TicketReservedEvent{
		ReservationID: t.ReservationID,
		ShowtimeID:    t.ShowtimeID,
		UserID:        t.UserID,
		HallName:      t.HallName,
		MovieTitle:    t.MovieTitle,
		At:            t.At,
		Row:           t.Row,
		Column:        t.Column,
		ReservedAt:    s.now().UTC(),
	}
	if err := s.events.PublishTicketReserved(ctx, ev); err != nil {
		s.log.Warn("QUEUE", fmt.Sprintf("publish ticket.reserved for %s: %v", t.ReservationID, err))
	}
}

// CancelUserReservation deletes the user's reservation for a showtime.
// Cancelling a reservation that does not exist succeeds.
func (s *ReservationService) CancelUserReservation(ctx context.Context, showtimeID, userID uuid.UUID) error {
	n, err := s.reservations.DeleteByShowtimeAndUser(ctx, showtimeID, userID)
	if err != nil {
		err = repository.TranslateDelete(err)
		s.log.LogDatabaseError("DELETE", "reservations", err)
		return err
	}
	if n > 0 {
		s.log.LogBooking("cancelled", showtimeID.String(), "user "+userID.String())
	}
	return nil
}

func ticketKey(t model.Ticket) pagination.Cursor {
	return pagination.Cursor{ID: t.ReservationID, CreatedAt: t.CreatedAt}
}

// ListUserShowtimes pages through the tickets of one user ordered by
// reservation (createdAt, id).
func (s *ReservationService) ListUserShowtimes(ctx context.Context, userID uuid.UUID, p pagination.Params) (pagination.Paged[model.Ticket], error) {
	var empty pagination.Paged[model.Ticket]
	if err := p.Validate(); err != nil {
		return empty, apperror.BadRequest(err.Error())
	}
	after, err := p.After()
	if err != nil {
		return empty, apperror.BadRequest("malformed cursor")
	}
	tickets, err := s.reservations.ListUserRows(ctx, repository.UserReservationQuery{
		UserID: userID,
		After:  after,
		Limit:  p.PageSize + 1,
	})
	if err != nil {
		s.log.LogDatabaseError("SELECT", "reservations", err)
		return empty, apperror.Internal(err)
	}
	return pagination.Trim(tickets, p.PageSize, ticketKey), nil
}

// GetUserTicket returns the user's ticket for a showtime.
func (s *ReservationService) GetUserTicket(ctx context.Context, showtimeID, userID uuid.UUID) (*model.Ticket, error) {
	t, err := s.reservations.Ticket(ctx, showtimeID, userID)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, apperror.NotFound("reservation not found")
	}
	if err != nil {
		s.log.LogDatabaseError("SELECT", "reservations", err)
		return nil, apperror.Internal(err)
	}
	return t, nil
}
