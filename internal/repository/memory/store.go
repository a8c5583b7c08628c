// Package memory is an in-process implementation of the showtime and
// reservation storage ports.  It reproduces the schema's unique and
// foreign key constraints by returning the same MySQL errors the server
// would, so callers exercise the real constraint translation.
//
// Transactions are serialized and rolled back by snapshot.  Reads made
// outside InTx may observe uncommitted writes of a running transaction.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// Store holds every table in maps keyed by id.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	now  func() time.Time

	halls        map[uuid.UUID]model.Hall
	movies       map[uuid.UUID]model.Movie
	users        map[uuid.UUID]model.User
	showtimes    map[uuid.UUID]model.Showtime
	reservations map[uuid.UUID]model.Reservation
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock that assigns created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		halls:        map[uuid.UUID]model.Hall{},
		movies:       map[uuid.UUID]model.Movie{},
		users:        map[uuid.UUID]model.User{},
		showtimes:    map[uuid.UUID]model.Showtime{},
		reservations: map[uuid.UUID]model.Reservation{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// stamp mimics DATETIME(6), which rounds to the microsecond.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Round(time.Microsecond)
}

// AddHall seeds a hall.
func (s *Store) AddHall(name string, rows, columns int) model.Hall {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := model.Hall{ID: uuid.New(), Name: name, Rows: rows, Columns: columns, CreatedAt: s.stamp()}
	s.halls[h.ID] = h
	return h
}

// AddMovie seeds a movie.
func (s *Store) AddMovie(title string) model.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := model.Movie{ID: uuid.New(), Title: title, GenreID: uuid.New(), CreatedAt: s.stamp()}
	s.movies[m.ID] = m
	return m
}

// AddUser seeds a user and returns its id.
func (s *Store) AddUser() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: uuid.New(), RoleID: 2, CreatedAt: s.stamp()}
	u.Email = u.ID.String() + "@example.test"
	s.users[u.ID] = u
	return u.ID
}

// ShowtimeExists reports whether the showtime row is present.
func (s *Store) ShowtimeExists(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.showtimes[id]
	return ok
}

// ShowtimeCount returns the number of showtime rows.
func (s *Store) ShowtimeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.showtimes)
}

// ReservationsFor returns the reservation rows of a showtime.
func (s *Store) ReservationsFor(showtimeID uuid.UUID) []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsOf(showtimeID)
}

// InTx runs fn with exclusive access to the store.  When fn fails, or ctx
// is done before commit, every write made by fn is undone.  Store methods
// ignore the handle passed to fn.
func (s *Store) InTx(ctx context.Context, fn func(tx database.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type snapshot struct {
	showtimes    map[uuid.UUID]model.Showtime
	reservations map[uuid.UUID]model.Reservation
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		showtimes:    make(map[uuid.UUID]model.Showtime, len(s.showtimes)),
		reservations: make(map[uuid.UUID]model.Reservation, len(s.reservations)),
	}
	for k, v := range s.showtimes {
		snap.showtimes[k] = v
	}
	for k, v := range s.reservations {
		snap.reservations[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showtimes = snap.showtimes
	s.reservations = snap.reservations
}

// Create inserts a showtime, enforcing fk_showtimes_movie,
// fk_showtimes_hall and uq_showtimes_hall_at.
func (s *Store) Create(ctx context.Context, st *model.Showtime) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[st.MovieID]; !ok {
		return repository.ForeignKeyError("showtimes", repository.FkShowtimesMovie, "movie_id", "movies")
	}
	if _, ok := s.halls[st.HallID]; !ok {
		return repository.ForeignKeyError("showtimes", repository.FkShowtimesHall, "hall_id", "halls")
	}
	at := st.At.UTC().Round(time.Microsecond)
	for _, o := range s.showtimes {
		if o.HallID == st.HallID && o.At.Equal(at) {
			return repository.DuplicateKeyError("showtimes", repository.UqShowtimesHallAt,
				fmt.Sprintf("%s-%s", st.HallID, at.Format("2006-01-02 15:04:05.000000")))
		}
	}
	if _, ok := s.showtimes[st.ID]; ok {
		return repository.DuplicateKeyError("showtimes", "PRIMARY", st.ID.String())
	}
	st.At = at
	st.CreatedAt = s.stamp()
	s.showtimes[st.ID] = *st
	return nil
}

// ListRows mirrors the SQL of repository.ShowtimeRepo.ListRows.
func (s *Store) ListRows(ctx context.Context, q repository.ShowtimeQuery) ([]repository.ShowtimeRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var picked []model.Showtime
	for _, st := range s.showtimes {
		if q.Matches(st) {
			picked = append(picked, st)
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		return repository.KeysetLess(picked[i].CreatedAt, picked[i].ID, picked[j].CreatedAt, picked[j].ID)
	})
	if len(picked) > q.Limit {
		picked = picked[:q.Limit]
	}

	var out []repository.ShowtimeRow
	for _, st := range picked {
		base := repository.ShowtimeRow{
			ShowtimeID: st.ID,
			At:         st.At,
			MovieID:    st.MovieID,
			MovieTitle: s.movies[st.MovieID].Title,
			HallID:     st.HallID,
			HallName:   s.halls[st.HallID].Name,
			CreatedAt:  st.CreatedAt,
		}
		res := s.reservationsOf(st.ID)
		if len(res) == 0 {
			out = append(out, base)
			continue
		}
		for _, r := range res {
			row := base
			row.Reservation = &model.ShowtimeReservation{
				ID:            r.ID,
				UserID:        r.UserID,
				Row:           r.Row,
				Column:        r.Column,
				TransactionID: r.TransactionID,
				CreatedAt:     r.CreatedAt,
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// LockTx reports whether the showtime exists.
func (s *Store) LockTx(ctx context.Context, _ database.DBTX, id uuid.UUID) (bool, error) {
	return s.ShowtimeExists(id), ctx.Err()
}

// ReservationUserIDsTx returns the holders of the showtime's reservations.
func (s *Store) ReservationUserIDsTx(ctx context.Context, _ database.DBTX, id uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, r := range s.reservationsOf(id) {
		out = append(out, r.UserID)
	}
	return out, nil
}

// DeleteTx removes a showtime, failing like MySQL when reservations
// still reference it.
func (s *Store) DeleteTx(ctx context.Context, _ database.DBTX, id uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.showtimes[id]; !ok {
		return 0, nil
	}
	if len(s.reservationsOf(id)) > 0 {
		return 0, repository.ReferencedRowError("reservations", repository.FkReservationsShowtime, "showtime_id", "showtimes")
	}
	delete(s.showtimes, id)
	return 1, nil
}

// SeatMapTx returns the hall capacity and taken seats of a showtime.
func (s *Store) SeatMapTx(ctx context.Context, _ database.DBTX, showtimeID uuid.UUID) (*model.SeatMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[showtimeID]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	h := s.halls[st.HallID]
	m := &model.SeatMap{ShowtimeID: showtimeID, Rows: h.Rows, Columns: h.Columns}
	for _, r := range s.reservationsOf(showtimeID) {
		m.Taken = append(m.Taken, model.Seat{UserID: r.UserID, Row: r.Row, Column: r.Column})
	}
	return m, nil
}

// InsertTx inserts a reservation, enforcing the reservation foreign keys
// and both unique keys in that order.
func (s *Store) InsertTx(ctx context.Context, _ database.DBTX, res *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.showtimes[res.ShowtimeID]; !ok {
		return repository.ForeignKeyError("reservations", repository.FkReservationsShowtime, "showtime_id", "showtimes")
	}
	if _, ok := s.users[res.UserID]; !ok {
		return repository.ForeignKeyError("reservations", repository.FkReservationsUser, "user_id", "users")
	}
	for _, o := range s.reservations {
		if o.ShowtimeID != res.ShowtimeID {
			continue
		}
		if o.UserID == res.UserID {
			return repository.DuplicateKeyError("reservations", repository.UqReservationsShowtimeUser,
				res.ShowtimeID.String()+"-"+res.UserID.String())
		}
		if o.Row == res.Row && o.Column == res.Column {
			return repository.DuplicateKeyError("reservations", repository.UqReservationsShowtimeSeat,
				fmt.Sprintf("%s-%d-%d", res.ShowtimeID, res.Row, res.Column))
		}
	}
	res.CreatedAt = s.stamp()
	s.reservations[res.ID] = *res
	return nil
}

// TicketTx returns the user's ticket for the showtime.
func (s *Store) TicketTx(ctx context.Context, _ database.DBTX, showtimeID, userID uuid.UUID) (*model.Ticket, error) {
	return s.Ticket(ctx, showtimeID, userID)
}

// Ticket returns the user's ticket for the showtime.
func (s *Store) Ticket(ctx context.Context, showtimeID, userID uuid.UUID) (*model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.ShowtimeID == showtimeID && r.UserID == userID {
			t := s.ticket(r)
			return &t, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

// DeleteByUsersTx removes the showtime's reservations held by userIDs.
func (s *Store) DeleteByUsersTx(ctx context.Context, _ database.DBTX, showtimeID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		drop[id] = true
	}
	var n int64
	for id, r := range s.reservations {
		if r.ShowtimeID == showtimeID && drop[r.UserID] {
			delete(s.reservations, id)
			n++
		}
	}
	return n, nil
}

// DeleteByShowtimeAndUser removes one reservation.
func (s *Store) DeleteByShowtimeAndUser(ctx context.Context, showtimeID, userID uuid.UUID) (int64, error) {
	return s.DeleteByUsersTx(ctx, nil, showtimeID, []uuid.UUID{userID})
}

// ListUserRows mirrors the SQL of repository.ReservationRepo.ListUserRows.
func (s *Store) ListUserRows(ctx context.Context, q repository.UserReservationQuery) ([]model.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var picked []model.Reservation
	for _, r := range s.reservations {
		if r.UserID != q.UserID {
			continue
		}
		if q.After != nil && !repository.KeysetAfter(r.CreatedAt, r.ID, *q.After) {
			continue
		}
		picked = append(picked, r)
	}
	sortReservations(picked)
	if len(picked) > q.Limit {
		picked = picked[:q.Limit]
	}
	out := make([]model.Ticket, 0, len(picked))
	for _, r := range picked {
		out = append(out, s.ticket(r))
	}
	return out, nil
}

// reservationsOf must be called with mu held.
func (s *Store) reservationsOf(showtimeID uuid.UUID) []model.Reservation {
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.ShowtimeID == showtimeID {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

// ticket must be called with mu held.
func (s *Store) ticket(r model.Reservation) model.Ticket {
	st := s.showtimes[r.ShowtimeID]
	return model.Ticket{
		ReservationID: r.ID,
		ShowtimeID:    r.ShowtimeID,
		UserID:        r.UserID,
		HallID:        st.HallID,
		HallName:      s.halls[st.HallID].Name,
		MovieID:       st.MovieID,
		MovieTitle:    s.movies[st.MovieID].Title,
		At:            st.At,
		Row:           r.Row,
		Column:        r.Column,
		TransactionID: r.TransactionID,
		CreatedAt:     r.CreatedAt,
	}
}

func sortReservations(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		return repository.KeysetLess(rs[i].CreatedAt, rs[i].ID, rs[j].CreatedAt, rs[j].ID)
	})
}
