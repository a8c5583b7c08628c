package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// ShowtimeFilter narrows a showtime listing.  Nil fields impose nothing.
type ShowtimeFilter struct {
	MovieID *uuid.UUID
	HallID  *uuid.UUID
}

// CreateShowtimeInput carries a validated create request.
type CreateShowtimeInput struct {
	At      time.Time
	MovieID uuid.UUID
	HallID  uuid.UUID
}

// ShowtimeService schedules, lists and deletes showtimes.
type ShowtimeService struct {
	showtimes    ShowtimeStore
	reservations ReservationStore
	tx           TxRunner
	log          *logger.Logger
	settings
}

// NewShowtimeService wires a ShowtimeService.
func NewShowtimeService(showtimes ShowtimeStore, reservations ReservationStore, tx TxRunner, log *logger.Logger, opts ...Option) *ShowtimeService {
	return &ShowtimeService{
		showtimes:    showtimes,
		reservations: reservations,
		tx:           tx,
		log:          log,
		settings:     defaults(opts),
	}
}

func showtimeKey(s model.ShowtimeDetail) pagination.Cursor {
	return pagination.Cursor{ID: s.ID, CreatedAt: s.CreatedAt}
}

// ListShowtimes returns one page of showtimes with their reservations,
// ordered by (createdAt, id).
func (s *ShowtimeService) ListShowtimes(ctx context.Context, f ShowtimeFilter, p pagination.Params) (pagination.Paged[model.ShowtimeDetail], error) {
	var empty pagination.Paged[model.ShowtimeDetail]
	if err := p.Validate(); err != nil {
		return empty, apperror.BadRequest(err.Error())
	}
	after, err := p.After()
	if err != nil {
		return empty, apperror.BadRequest("malformed cursor")
	}

	rows, err := s.showtimes.ListRows(ctx, repository.ShowtimeQuery{
		Filter: repository.ShowtimeFilter{MovieID: f.MovieID, HallID: f.HallID},
		After:  after,
		Limit:  p.PageSize + 1,
	})
	if err != nil {
		s.log.LogDatabaseError("SELECT", "showtimes", err)
		return empty, apperror.Internal(err)
	}
	return pagination.Trim(groupShowtimes(rows), p.PageSize, showtimeKey), nil
}

// GetShowtime returns a single showtime with its reservations.
func (s *ShowtimeService) GetShowtime(ctx context.Context, id uuid.UUID) (*model.ShowtimeDetail, error) {
	rows, err := s.showtimes.ListRows(ctx, repository.ShowtimeQuery{
		Filter: repository.ShowtimeFilter{ID: &id},
		Limit:  1,
	})
	if err != nil {
		s.log.LogDatabaseError("SELECT", "showtimes", err)
		return nil, apperror.Internal(err)
	}
	details := groupShowtimes(rows)
	if len(details) == 0 {
		return nil, apperror.NotFound("showtime not found")
	}
	return &details[0], nil
}

// CreateShowtime schedules a movie in a hall.  The start must be at least
// the configured lead time away; movie and hall must exist and the hall
// must be free at that instant.
func (s *ShowtimeService) CreateShowtime(ctx context.Context, in CreateShowtimeInput) (*model.Showtime, error) {
	earliest := s.now().Add(s.minLead)
	if in.At.Before(earliest) {
		return nil, apperror.BadRequestf("showtime must start at or after %s", earliest.UTC().Format(time.RFC3339))
	}
	st := &model.Showtime{ID: s.newID(), At: in.At.UTC(), MovieID: in.MovieID, HallID: in.HallID}
	if err := s.showtimes.Create(ctx, st); err != nil {
		err = repository.TranslateShowtimeWrite(err, st)
		if apperror.KindOf(err) == apperror.KindInternal {
			s.log.LogDatabaseError("INSERT", "showtimes", err)
		}
		return nil, err
	}
	s.log.Info("SHOWTIME", fmt.Sprintf("created %s in hall %s at %s", st.ID, st.HallID, st.At.Format(time.RFC3339)))
	return st, nil
}

// DeleteShowtime removes a showtime and every reservation made for it in
// one transaction.  Deleting an absent showtime succeeds.
func (s *ShowtimeService) DeleteShowtime(ctx context.Context, id uuid.UUID) error {
	var cancelled int64
	err := s.tx.InTx(ctx, func(tx database.DBTX) error {
		exists, err := s.showtimes.LockTx(ctx, tx, id)
		if err != nil || !exists {
			return err
		}
		holders, err := s.showtimes.ReservationUserIDsTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(holders) > 0 {
			if cancelled, err = s.reservations.DeleteByUsersTx(ctx, tx, id, holders); err != nil {
				return err
			}
		}
		_, err = s.showtimes.DeleteTx(ctx, tx, id)
		return err
	})
	if err != nil {
		err = repository.TranslateDelete(err)
		if apperror.KindOf(err) == apperror.KindInternal {
			s.log.LogDatabaseError("DELETE", "showtimes", err)
		}
		return err
	}
	s.log.LogBooking("showtime_deleted", id.String(), fmt.Sprintf("%d reservations cancelled", cancelled))
	return nil
}
