package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/database"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// ReservationRepo manages persistence for reservations.  Methods with a
// Tx suffix run on the caller's transaction handle and never commit.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo with the given DB handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// SeatMapTx reads the hall capacity of a showtime together with every
// seat already reserved for it, in one joined query.  The showtime row is
// locked until tx ends so concurrent bookings of the same showtime run one
// after another.  Returns ErrShowtimeNotFound when the showtime is absent.
func (r *ReservationRepo) SeatMapTx(ctx context.Context, tx database.DBTX, showtimeID uuid.UUID) (*model.SeatMap, error) {
	const q = `SELECT h.seat_rows, h.seat_columns, r.user_id, r.seat_row, r.seat_column
	           FROM showtimes s
	           JOIN halls h ON h.id = s.hall_id
	           LEFT JOIN reservations r ON r.showtime_id = s.id
	           WHERE s.id = ?
	           FOR UPDATE OF s`
	rows, err := tx.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var m *model.SeatMap
	for rows.Next() {
		var (
			hallRows, hallCols int
			userID             uuid.NullUUID
			seatRow, seatCol   sql.NullInt64
		)
		if err := rows.Scan(&hallRows, &hallCols, &userID, &seatRow, &seatCol); err != nil {
			return nil, err
		}
		if m == nil {
			m = &model.SeatMap{ShowtimeID: showtimeID, Rows: hallRows, Columns: hallCols}
		}
		if userID.Valid {
			m.Taken = append(m.Taken, model.Seat{UserID: userID.UUID, Row: int(seatRow.Int64), Column: int(seatCol.Int64)})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrShowtimeNotFound
	}
	return m, nil
}

// InsertTx inserts res.  res.ID must be set; created_at is assigned by
// the database.  Unique and foreign key violations are returned as raw
// driver errors.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx database.DBTX, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, showtime_id, user_id, seat_row, seat_column, transaction_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, res.ID, res.ShowtimeID, res.UserID, res.Row, res.Column, res.TransactionID)
	return err
}

const ticketSelect = `SELECT r.id, r.showtime_id, r.user_id, h.id, h.name, m.id, m.title, s.at,
                             r.seat_row, r.seat_column, r.transaction_id, r.created_at
                      FROM reservations r
                      JOIN showtimes s ON s.id = r.showtime_id
                      JOIN halls h ON h.id = s.hall_id
                      JOIN movies m ON m.id = s.movie_id`

func scanTicket(sc interface{ Scan(...any) error }) (*model.Ticket, error) {
	var (
		t    model.Ticket
		txID sql.NullString
	)
	if err := sc.Scan(&t.ReservationID, &t.ShowtimeID, &t.UserID, &t.HallID, &t.HallName, &t.MovieID, &t.MovieTitle, &t.At,
		&t.Row, &t.Column, &txID, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.TransactionID = nullString(txID)
	return &t, nil
}

// TicketTx returns the display data of the user's reservation for the
// showtime, or ErrReservationNotFound.
func (r *ReservationRepo) TicketTx(ctx context.Context, tx database.DBTX, showtimeID, userID uuid.UUID) (*model.Ticket, error) {
	row := tx.QueryRowContext(ctx, ticketSelect+` WHERE r.showtime_id = ? AND r.user_id = ?`, showtimeID, userID)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return t, nil
}

// Ticket is TicketTx outside a transaction.
func (r *ReservationRepo) Ticket(ctx context.Context, showtimeID, userID uuid.UUID) (*model.Ticket, error) {
	return r.TicketTx(ctx, r.db, showtimeID, userID)
}

// DeleteByUsersTx bulk-deletes the showtime's reservations held by
// userIDs and returns the number of rows removed.
func (r *ReservationRepo) DeleteByUsersTx(ctx context.Context, tx database.DBTX, showtimeID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(userIDs)+1)
	args = append(args, showtimeID)
	for _, id := range userIDs {
		args = append(args, id)
	}
	q := `DELETE FROM reservations WHERE showtime_id = ? AND user_id IN (?` +
		strings.Repeat(", ?", len(userIDs)-1) + `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByShowtimeAndUser removes one user's reservation for a showtime.
// Zero rows affected is not an error.
func (r *ReservationRepo) DeleteByShowtimeAndUser(ctx context.Context, showtimeID, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE showtime_id = ? AND user_id = ?`, showtimeID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListUserRows returns up to q.Limit tickets of one user ordered by
// reservation (created_at, id), starting after q.After when set.
func (r *ReservationRepo) ListUserRows(ctx context.Context, q UserReservationQuery) ([]model.Ticket, error) {
	f := NewFilter().Where("r.user_id = ?", q.UserID)
	if q.After != nil {
		f.Where("(r.created_at > ? OR (r.created_at = ? AND r.id > ?))", q.After.CreatedAt, q.After.CreatedAt, q.After.ID)
	}
	where, args := f.Build()
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, ticketSelect+where+` ORDER BY r.created_at, r.id LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
