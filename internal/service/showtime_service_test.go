package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// collect walks every page and returns the showtime ids in order.
func collect(t *testing.T, svc *ShowtimeService, f ShowtimeFilter, pageSize int) []model.ShowtimeDetail {
	t.Helper()
	var (
		out    []model.ShowtimeDetail
		cursor string
	)
	for i := 0; i < 1000; i++ {
		page, err := svc.ListShowtimes(context.Background(), f, pagination.Params{Cursor: cursor, PageSize: pageSize})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Items), pageSize)
		out = append(out, page.Items...)
		if !page.Page.HasNext {
			assert.Nil(t, page.Page.Cursor)
			return out
		}
		require.NotNil(t, page.Page.Cursor)
		cursor = *page.Page.Cursor
	}
	t.Fatal("pagination did not terminate")
	return nil
}

func TestListShowtimesCompleteness(t *testing.T) {
	for _, step := range []time.Duration{time.Millisecond, 0} {
		f := newFixture(t, step)
		const n = 7
		want := map[uuid.UUID]bool{}
		for i := 0; i < n; i++ {
			want[f.showtime(t, time.Duration(i)*time.Hour).ID] = true
		}

		for _, size := range []int{1, 3, n, n + 5} {
			got := collect(t, f.showtimes, ShowtimeFilter{}, size)
			require.Len(t, got, n, "step=%s size=%d", step, size)
			seen := map[uuid.UUID]bool{}
			for i, s := range got {
				assert.True(t, want[s.ID])
				assert.False(t, seen[s.ID], "duplicate %s", s.ID)
				seen[s.ID] = true
				if i > 0 {
					prev := got[i-1]
					assert.True(t, repository.KeysetLess(prev.CreatedAt, prev.ID, s.CreatedAt, s.ID))
				}
			}
		}
	}
}

func TestListShowtimesFilter(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	other := f.store.AddMovie("Ronin")
	otherHall := f.store.AddHall("Hall 2", 4, 4)
	for i := 0; i < 4; i++ {
		f.showtime(t, time.Duration(i)*time.Hour)
		_, err := f.showtimes.CreateShowtime(context.Background(), CreateShowtimeInput{
			At: baseTime.Add(48*time.Hour + time.Duration(i)*time.Hour), MovieID: other.ID, HallID: otherHall.ID,
		})
		require.NoError(t, err)
	}

	got := collect(t, f.showtimes, ShowtimeFilter{MovieID: &other.ID}, 3)
	require.Len(t, got, 4)
	for _, s := range got {
		assert.Equal(t, other.ID, s.MovieID)
		assert.Equal(t, "Ronin", s.MovieTitle)
	}

	got = collect(t, f.showtimes, ShowtimeFilter{MovieID: &other.ID, HallID: &f.hall.ID}, 3)
	assert.Empty(t, got)
}

func TestListShowtimesGroupsReservations(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	st := f.showtime(t, 0)
	f.showtime(t, time.Hour)
	for col := 0; col < 3; col++ {
		_, err := f.bookings.ReserveTicket(context.Background(), ReserveInput{ShowtimeID: st.ID, UserID: f.store.AddUser(), Row: 0, Column: col})
		require.NoError(t, err)
	}

	page, err := f.showtimes.ListShowtimes(context.Background(), ShowtimeFilter{}, pagination.Params{PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "lookahead counts showtimes, not joined rows")
	assert.True(t, page.Page.HasNext)
	assert.Len(t, page.Items[0].Reservations, 3)

	page, err = f.showtimes.ListShowtimes(context.Background(), ShowtimeFilter{}, pagination.Params{Cursor: *page.Page.Cursor, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotNil(t, page.Items[0].Reservations)
	assert.Empty(t, page.Items[0].Reservations)
	assert.False(t, page.Page.HasNext)
}

func TestListShowtimesBadInput(t *testing.T) {
	f := newFixture(t, time.Millisecond)

	_, err := f.showtimes.ListShowtimes(context.Background(), ShowtimeFilter{}, pagination.Params{Cursor: "%%%", PageSize: 5})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = f.showtimes.ListShowtimes(context.Background(), ShowtimeFilter{}, pagination.Params{PageSize: 65})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	page, err := f.showtimes.ListShowtimes(context.Background(), ShowtimeFilter{}, pagination.Params{PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.Page.HasNext)
	assert.Nil(t, page.Page.Cursor)
}

func TestCreateShowtimeRules(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	_, err := f.showtimes.CreateShowtime(ctx, CreateShowtimeInput{At: baseTime.Add(30 * time.Minute), MovieID: f.movie.ID, HallID: f.hall.ID})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	st := f.showtime(t, 0)
	_, err = f.showtimes.CreateShowtime(ctx, CreateShowtimeInput{At: st.At, MovieID: f.movie.ID, HallID: f.hall.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 1, f.store.ShowtimeCount(), "no partial row persisted")

	_, err = f.showtimes.CreateShowtime(ctx, CreateShowtimeInput{At: st.At.Add(time.Hour), MovieID: uuid.New(), HallID: f.hall.ID})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "movie does not exist", apperror.MessageOf(err))

	_, err = f.showtimes.CreateShowtime(ctx, CreateShowtimeInput{At: st.At.Add(time.Hour), MovieID: f.movie.ID, HallID: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "hall does not exist", apperror.MessageOf(err))
}

func TestCreateShowtimeUsesInjectedID(t *testing.T) {
	store := newFixture(t, time.Millisecond)
	id := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	svc := NewShowtimeService(store.store, store.store, store.store, nil,
		WithClock(func() time.Time { return baseTime }),
		WithIDGenerator(func() uuid.UUID { return id }))

	st, err := svc.CreateShowtime(context.Background(), CreateShowtimeInput{At: baseTime.Add(time.Hour), MovieID: store.movie.ID, HallID: store.hall.ID})
	require.NoError(t, err)
	assert.Equal(t, id, st.ID)
	assert.False(t, st.CreatedAt.IsZero())
}

func TestGetShowtime(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	st := f.showtime(t, 0)

	got, err := f.showtimes.GetShowtime(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, "Hall 1", got.HallName)

	_, err = f.showtimes.GetShowtime(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteShowtimeCascades(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	f.events.On("PublishTicketReserved", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	st := f.showtime(t, 0)
	keep := f.showtime(t, time.Hour)
	for i := 0; i < 4; i++ {
		_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: f.store.AddUser(), Row: i, Column: i})
		require.NoError(t, err)
	}
	_, err := f.bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: keep.ID, UserID: f.store.AddUser(), Row: 1, Column: 1})
	require.NoError(t, err)

	require.NoError(t, f.showtimes.DeleteShowtime(ctx, st.ID))
	assert.False(t, f.store.ShowtimeExists(st.ID))
	assert.Empty(t, f.store.ReservationsFor(st.ID))
	assert.Len(t, f.store.ReservationsFor(keep.ID), 1)

	require.NoError(t, f.showtimes.DeleteShowtime(ctx, st.ID), "second delete is a no-op")
	require.NoError(t, f.showtimes.DeleteShowtime(ctx, uuid.New()))
}

func TestDeleteShowtimeWithoutReservations(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	st := f.showtime(t, 0)
	require.NoError(t, f.showtimes.DeleteShowtime(context.Background(), st.ID))
	assert.Zero(t, f.store.ShowtimeCount())
}

func TestDeleteShowtimeCancelledContext(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	st := f.showtime(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.showtimes.DeleteShowtime(ctx, st.ID)
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, f.store.ShowtimeExists(st.ID))
}

func TestStorageFailuresLoggedAtErrorLevel(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	var buf bytes.Buffer
	log := logger.New(&buf, logger.WARN)
	showtimes := NewShowtimeService(f.store, f.store, f.store, log)
	bookings := NewReservationService(f.store, f.store, nil, log)
	st := f.showtime(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := showtimes.ListShowtimes(ctx, ShowtimeFilter{}, pagination.Params{PageSize: 5})
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.Contains(t, buf.String(), "[SELECT] showtimes")

	buf.Reset()
	assert.ErrorIs(t, showtimes.DeleteShowtime(ctx, st.ID), apperror.ErrInternal)
	assert.Contains(t, buf.String(), "[DELETE] showtimes")

	buf.Reset()
	assert.ErrorIs(t, bookings.CancelUserReservation(ctx, st.ID, uuid.New()), apperror.ErrInternal)
	assert.Contains(t, buf.String(), "[DELETE] reservations")

	buf.Reset()
	_, err = bookings.ReserveTicket(ctx, ReserveInput{ShowtimeID: st.ID, UserID: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrInternal)
	assert.Contains(t, buf.String(), "[reserve_failed]")
	assert.Contains(t, buf.String(), "ERROR")
}
