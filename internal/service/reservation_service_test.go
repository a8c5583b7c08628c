package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/queue"
)

func TestReserveTicketScenario(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	a, b := f.store.AddUser(), f.store.AddUser()
	st := f.showtime(t, 0)

	ticket, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: a, Row: 3, Column: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, ticket.Row)
	assert.Equal(t, 4, ticket.Column)
	assert.Equal(t, "Hall 1", ticket.HallName)
	assert.Equal(t, "Heat", ticket.MovieTitle)
	assert.True(t, ticket.At.Equal(st.At))

	_, err = f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: b, Row: 3, Column: 4})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: b, Row: 3, Column: 11})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	require.NoError(t, f.showtimes.DeleteShowtime(ctx, st.ID))
	assert.Empty(t, f.store.ReservationsFor(st.ID))
	assert.NoError(t, f.showtimes.DeleteShowtime(ctx, st.ID))

	f.events.AssertNumberOfCalls(t, "PublishTicketReserved", 1)
}

func TestReserveTicketSeatBounds(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()
	user := f.store.AddUser()
	st := f.showtime(t, 0)

	for _, seat := range [][2]int{{10, 0}, {0, 10}, {10, 10}, {-1, 0}, {0, -1}} {
		_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: seat[0], Column: seat[1]})
		assert.ErrorIs(t, err, apperror.ErrBadRequest, "seat %v", seat)
	}
	assert.Empty(t, f.store.ReservationsFor(st.ID))
	f.events.AssertNotCalled(t, "PublishTicketReserved", mock.Anything, mock.Anything)
}

func TestReserveTicketIdempotent(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	user := f.store.AddUser()
	st := f.showtime(t, 0)

	first, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: 2, Column: 2})
	require.NoError(t, err)
	second, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: 2, Column: 2})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a different seat does not move the existing booking
	third, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: 5, Column: 5})
	require.NoError(t, err)
	assert.Equal(t, first.ReservationID, third.ReservationID)
	assert.Equal(t, 2, third.Row)

	assert.Len(t, f.store.ReservationsFor(st.ID), 1)
	f.events.AssertNumberOfCalls(t, "PublishTicketReserved", 1)
}

func TestReserveTicketUnknownShowtimeAndUser(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: uuid.New(), UserID: f.store.AddUser(), Row: 0, Column: 0})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "showtime not found", apperror.MessageOf(err))

	st := f.showtime(t, 0)
	_, err = f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: uuid.New(), Row: 0, Column: 0})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "user does not exist", apperror.MessageOf(err))
}

func TestReserveTicketPublishesEvent(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	user := f.store.AddUser()
	st := f.showtime(t, 0)
	f.events.On("PublishTicketReserved", mock.Anything, mock.MatchedBy(func(ev queue.TicketReservedEvent) bool {
		return ev.ShowtimeID == st.ID && ev.UserID == user && ev.Row == 1 && ev.Column == 7 && ev.MovieTitle == "Heat"
	})).Return(errors.New("broker down")).Once()

	// publish failures do not fail the committed booking
	_, err := f.bookings.ReserveTicket(context.Background(), ReserveInput{ShowtimeID: st.ID, UserID: user, Row: 1, Column: 7})
	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestReserveTicketWithoutPublisher(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	svc := NewReservationService(f.store, f.store, nil, nil)
	st := f.showtime(t, 0)

	_, err := svc.ReserveTicket(context.Background(), ReserveInput{ShowtimeID: st.ID, UserID: f.store.AddUser(), Row: 0, Column: 0})
	assert.NoError(t, err)
}

func TestCancelUserReservation(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	a, b := f.store.AddUser(), f.store.AddUser()
	st := f.showtime(t, 0)
	_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: a, Row: 0, Column: 0})
	require.NoError(t, err)

	require.NoError(t, f.bookings.CancelUserReservation(ctx, st.ID, a))
	assert.Empty(t, f.store.ReservationsFor(st.ID))
	require.NoError(t, f.bookings.CancelUserReservation(ctx, st.ID, a), "absent reservation")

	// the freed seat can be taken by someone else
	_, err = f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: b, Row: 0, Column: 0})
	assert.NoError(t, err)
}

func TestListUserShowtimes(t *testing.T) {
	for _, step := range []time.Duration{time.Millisecond, 0} {
		f := newFixture(t, step)
		f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
		ctx := context.Background()
		user, other := f.store.AddUser(), f.store.AddUser()
		const n = 5
		for i := 0; i < n; i++ {
			st := f.showtime(t, time.Duration(i)*time.Hour)
			_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: i, Column: 0})
			require.NoError(t, err)
			_, err = f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: other, Row: i, Column: 1})
			require.NoError(t, err)
		}

		seen := map[uuid.UUID]bool{}
		cursor := ""
		for {
			page, err := f.bookings.ListUserShowtimes(ctx, user, pagination.Params{Cursor: cursor, PageSize: 2})
			require.NoError(t, err)
			for _, tk := range page.Items {
				assert.Equal(t, user, tk.UserID)
				assert.False(t, seen[tk.ShowtimeID])
				seen[tk.ShowtimeID] = true
			}
			if !page.Page.HasNext {
				break
			}
			cursor = *page.Page.Cursor
		}
		assert.Len(t, seen, n, "step=%s", step)
	}
}

func TestListUserShowtimesMalformedCursor(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	_, err := f.bookings.ListUserShowtimes(context.Background(), uuid.New(), pagination.Params{Cursor: "bm90LWEtY3Vyc29y", PageSize: 2})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestGetUserTicket(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	user := f.store.AddUser()
	st := f.showtime(t, 0)

	_, err := f.bookings.GetUserTicket(ctx, st.ID, user)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	booked, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: user, Row: 9, Column: 9})
	require.NoError(t, err)
	got, err := f.bookings.GetUserTicket(ctx, st.ID, user)
	require.NoError(t, err)
	assert.Equal(t, booked, got)
}

func TestReserveTicketConcurrentSameSeat(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	st := f.showtime(t, 0)
	users := []uuid.UUID{f.store.AddUser(), f.store.AddUser()}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(users))
	)
	start := make(chan struct{})
	for i, u := range users {
		wg.Add(1)
		go func(i int, u uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.bookings.ReserveTicket(context.Background(), ReserveInput{ShowtimeID: st.ID, UserID: u, Row: 4, Column: 4})
		}(i, u)
	}
	close(start)
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrConflict):
			conflict++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
	assert.Len(t, f.store.ReservationsFor(st.ID), 1)
	f.events.AssertNumberOfCalls(t, "PublishTicketReserved", 1)
}
