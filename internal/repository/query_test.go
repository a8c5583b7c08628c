package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/pagination"
)

func TestKeysetAfter(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lo := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	hi := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")
	c := pagination.Cursor{ID: lo, CreatedAt: at}

	assert.True(t, KeysetAfter(at.Add(time.Microsecond), lo, c))
	assert.True(t, KeysetAfter(at, hi, c), "tie on created_at broken by id")
	assert.False(t, KeysetAfter(at, lo, c), "cursor row itself is excluded")
	assert.False(t, KeysetAfter(at.Add(-time.Second), hi, c))
}

func TestKeysetLess(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := uuid.MustParse("0a000000-0000-0000-0000-000000000000")
	b := uuid.MustParse("0b000000-0000-0000-0000-000000000000")

	assert.True(t, KeysetLess(at, a, at, b))
	assert.False(t, KeysetLess(at, b, at, a))
	assert.True(t, KeysetLess(at, b, at.Add(time.Second), a))
}

func TestShowtimeQueryMatches(t *testing.T) {
	movie, otherMovie, hall := uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := model.Showtime{ID: uuid.New(), MovieID: movie, HallID: hall, CreatedAt: at}

	assert.True(t, ShowtimeQuery{}.Matches(s))
	assert.True(t, ShowtimeQuery{Filter: ShowtimeFilter{MovieID: &movie, HallID: &hall}}.Matches(s))
	assert.False(t, ShowtimeQuery{Filter: ShowtimeFilter{MovieID: &otherMovie}}.Matches(s))
	assert.False(t, ShowtimeQuery{After: &pagination.Cursor{ID: s.ID, CreatedAt: at}}.Matches(s))
	assert.True(t, ShowtimeQuery{After: &pagination.Cursor{ID: s.ID, CreatedAt: at.Add(-time.Second)}}.Matches(s))
}
