package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/queue"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository/memory"
)

var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// stepClock returns a fixed instant that advances by step on each call.
// A zero step freezes time, producing created_at ties.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishTicketReserved(ctx context.Context, ev queue.TicketReservedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type fixture struct {
	store     *memory.Store
	showtimes *ShowtimeService
	bookings  *ReservationService
	events    *mockPublisher
	hall      model.Hall
	movie     model.Movie
}

func newFixture(t *testing.T, storeStep time.Duration) *fixture {
	t.Helper()
	clock := &stepClock{t: baseTime, step: storeStep}
	store := memory.New(memory.WithClock(clock.Now))
	events := &mockPublisher{}
	now := func() time.Time { return baseTime }

	f := &fixture{
		store:     store,
		events:    events,
		showtimes: NewShowtimeService(store, store, store, logger.Nop(), WithClock(now), WithMinLead(time.Hour)),
		bookings:  NewReservationService(store, store, events, logger.Nop(), WithClock(now)),
		hall:      store.AddHall("Hall 1", 10, 10),
		movie:     store.AddMovie("Heat"),
	}
	return f
}

func (f *fixture) showtime(t *testing.T, offset time.Duration) *model.Showtime {
	t.Helper()
	st, err := f.showtimes.CreateShowtime(context.Background(), CreateShowtimeInput{
		At:      baseTime.Add(24*time.Hour + offset),
		MovieID: f.movie.ID,
		HallID:  f.hall.ID,
	})
	require.NoError(t, err)
	return st
}
