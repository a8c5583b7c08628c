package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// Create inserts s and reads back the created_at value assigned by the
// database clock.  s.ID must already be set.  Constraint violations are
// returned as raw driver errors for TranslateShowtimeWrite.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (id, at, movie_id, hall_id) VALUES (?, ?, ?, ?)`
	s.At = s.At.UTC().Round(time.Microsecond)
	if _, err := r.db.ExecContext(ctx, q, s.ID, s.At, s.MovieID, s.HallID); err != nil {
		return err
	}
	const sel = `SELECT created_at FROM showtimes WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt)
}

// ListRows runs the keyset query described by q and returns one flat row
// per (showtime, reservation) pair, ordered by showtime (created_at, id)
// and then by reservation (created_at, id).  A showtime without
// reservations yields a single row with a nil Reservation.
//
// The limit applies to showtimes inside a derived table, before the join,
// so the extra lookahead row within q.Limit counts showtimes rather than joined rows.
func (r *ShowtimeRepo) ListRows(ctx context.Context, q ShowtimeQuery) ([]ShowtimeRow, error) {
	f := NewFilter().
		EqUUID("id", q.Filter.ID).
		EqUUID("movie_id", q.Filter.MovieID).
		EqUUID("hall_id", q.Filter.HallID)
	if q.After != nil {
		f.Where("(created_at > ? OR (created_at = ? AND id > ?))", q.After.CreatedAt, q.After.CreatedAt, q.After.ID)
	}
	where, args := f.Build()

	query := `SELECT s.id, s.at, s.movie_id, m.title, s.hall_id, h.name, s.created_at,
	                 r.id, r.user_id, r.seat_row, r.seat_column, r.transaction_id, r.created_at
	          FROM (SELECT id, at, movie_id, hall_id, created_at
	                FROM showtimes` + where + `
	                ORDER BY created_at, id
	                LIMIT ?) s
	          JOIN movies m ON m.id = s.movie_id
	          JOIN halls h ON h.id = s.hall_id
	          LEFT JOIN reservations r ON r.showtime_id = s.id
	          ORDER BY s.created_at, s.id, r.created_at, r.id`
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShowtimeRow
	for rows.Next() {
		var (
			row        ShowtimeRow
			resID      uuid.NullUUID
			resUser    uuid.NullUUID
			seatRow    sql.NullInt64
			seatCol    sql.NullInt64
			txID       sql.NullString
			resCreated sql.NullTime
		)
		if err := rows.Scan(&row.ShowtimeID, &row.At, &row.MovieID, &row.MovieTitle, &row.HallID, &row.HallName, &row.CreatedAt,
			&resID, &resUser, &seatRow, &seatCol, &txID, &resCreated); err != nil {
			return nil, err
		}
		if resID.Valid {
			row.Reservation = &model.ShowtimeReservation{
				ID:            resID.UUID,
				UserID:        resUser.UUID,
				Row:           int(seatRow.Int64),
				Column:        int(seatCol.Int64),
				TransactionID: nullString(txID),
				CreatedAt:     resCreated.Time,
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LockTx takes a row lock on the showtime for the rest of tx.  It reports
// false when the showtime does not exist.
func (r *ShowtimeRepo) LockTx(ctx context.Context, tx database.DBTX, id uuid.UUID) (bool, error) {
	const q = `SELECT id FROM showtimes WHERE id = ? FOR UPDATE`
	var got uuid.UUID
	if err := tx.QueryRowContext(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReservationUserIDsTx returns the ids of every user holding a
// reservation for the showtime.
func (r *ShowtimeRepo) ReservationUserIDsTx(ctx context.Context, tx database.DBTX, id uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT user_id FROM reservations WHERE showtime_id = ? ORDER BY created_at, id`
	rows, err := tx.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var uid uuid.UUID
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

// DeleteTx removes the showtime row.  Reservations must be removed first;
// the schema declares no cascading delete.
func (r *ShowtimeRepo) DeleteTx(ctx context.Context, tx database.DBTX, id uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
