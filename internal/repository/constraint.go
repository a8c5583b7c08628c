package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-showtime-reservation/internal/apperror"
	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// Constraint names declared by the schema migrations.  Write paths
// classify driver errors by these names, so renaming one in SQL requires
// renaming it here.
const (
	UqShowtimesHallAt          = "uq_showtimes_hall_at"
	FkShowtimesMovie           = "fk_showtimes_movie"
	FkShowtimesHall            = "fk_showtimes_hall"
	UqReservationsShowtimeUser = "uq_reservations_showtime_user"
	UqReservationsShowtimeSeat = "uq_reservations_showtime_seat"
	FkReservationsShowtime     = "fk_reservations_showtime"
	FkReservationsUser         = "fk_reservations_user"
)

// MySQL server error numbers.
const (
	errDupEntry         = 1062
	errNoReferencedRow  = 1216
	errRowIsReferenced  = 1217
	errRowIsReferenced2 = 1451
	errNoReferencedRow2 = 1452
)

type violationKind int

const (
	violationNone violationKind = iota
	violationUnique
	violationForeignKey
)

type violation struct {
	kind       violationKind
	constraint string
}

// classify extracts the violated constraint from a MySQL error.  Errors
// that are not constraint violations return violationNone.
func classify(err error) violation {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return violation{}
	}
	switch me.Number {
	case errDupEntry:
		return violation{kind: violationUnique, constraint: duplicateKeyName(me.Message)}
	case errNoReferencedRow, errNoReferencedRow2, errRowIsReferenced, errRowIsReferenced2:
		return violation{kind: violationForeignKey, constraint: foreignKeyName(me.Message)}
	}
	return violation{}
}

// duplicateKeyName parses "Duplicate entry 'x' for key 'table.name'".
// Servers before 8.0.19 omit the table prefix.
func duplicateKeyName(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if j := strings.LastIndexByte(key, '.'); j >= 0 {
		key = key[j+1:]
	}
	return key
}

// foreignKeyName parses "... CONSTRAINT `name` FOREIGN KEY ...".
func foreignKeyName(msg string) string {
	const marker = "CONSTRAINT `"
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexByte(rest, '`'); j >= 0 {
		return rest[:j]
	}
	return ""
}

// IsDuplicate reports whether err is a unique violation of constraint.
func IsDuplicate(err error, constraint string) bool {
	v := classify(err)
	return v.kind == violationUnique && v.constraint == constraint
}

// DuplicateKeyError builds the error MySQL 8 returns for a unique
// violation.  The in-memory store uses it so that both storage
// implementations go through the same translation.
func DuplicateKeyError(table, constraint, entry string) error {
	return &mysql.MySQLError{
		Number:   errDupEntry,
		SQLState: [5]byte{'2', '3', '0', '0', '0'},
		Message:  fmt.Sprintf("Duplicate entry '%s' for key '%s.%s'", entry, table, constraint),
	}
}

// ForeignKeyError builds the error MySQL returns when a child row
// references a missing parent.
func ForeignKeyError(table, constraint, column, parent string) error {
	return &mysql.MySQLError{
		Number:   errNoReferencedRow2,
		SQLState: [5]byte{'2', '3', '0', '0', '0'},
		Message: fmt.Sprintf("Cannot add or update a child row: a foreign key constraint fails (`%s`, CONSTRAINT `%s` FOREIGN KEY (`%s`) REFERENCES `%s` (`id`))",
			table, constraint, column, parent),
	}
}

// ReferencedRowError builds the error MySQL returns when deleting a parent
// row that a child row still references.
func ReferencedRowError(table, constraint, column, parent string) error {
	return &mysql.MySQLError{
		Number:   errRowIsReferenced2,
		SQLState: [5]byte{'2', '3', '0', '0', '0'},
		Message: fmt.Sprintf("Cannot delete or update a parent row: a foreign key constraint fails (`%s`, CONSTRAINT `%s` FOREIGN KEY (`%s`) REFERENCES `%s` (`id`))",
			table, constraint, column, parent),
	}
}

// TranslateShowtimeWrite maps a showtime insert failure onto the domain
// error taxonomy.  s supplies the values quoted in the conflict message.
func TranslateShowtimeWrite(err error, s *model.Showtime) error {
	if err == nil {
		return nil
	}
	v := classify(err)
	switch {
	case v.kind == violationUnique && v.constraint == UqShowtimesHallAt:
		return apperror.Conflict(fmt.Sprintf("showtime at %s in hall %s already exists",
			s.At.UTC().Format(time.RFC3339), s.HallID))
	case v.kind == violationForeignKey && v.constraint == FkShowtimesMovie:
		return apperror.NotFound("movie does not exist")
	case v.kind == violationForeignKey && v.constraint == FkShowtimesHall:
		return apperror.NotFound("hall does not exist")
	}
	return translateOther(err)
}

// TranslateReservationWrite maps a reservation insert failure onto the
// domain error taxonomy.  Duplicates on uq_reservations_showtime_user are
// not errors for the booking flow and must be filtered out by the caller
// before translation.
func TranslateReservationWrite(err error) error {
	if err == nil {
		return nil
	}
	v := classify(err)
	switch {
	case v.kind == violationUnique && v.constraint == UqReservationsShowtimeSeat:
		return apperror.Conflict("seat already reserved")
	case v.kind == violationForeignKey && v.constraint == FkReservationsShowtime:
		return apperror.NotFound("showtime does not exist")
	case v.kind == violationForeignKey && v.constraint == FkReservationsUser:
		return apperror.NotFound("user does not exist")
	}
	return translateOther(err)
}

// TranslateDelete maps a showtime or reservation delete failure onto the
// domain error taxonomy.  A showtime still referenced by reservations is a
// conflict.
func TranslateDelete(err error) error {
	if err == nil {
		return nil
	}
	if v := classify(err); v.kind == violationForeignKey && v.constraint == FkReservationsShowtime {
		return apperror.Conflict("showtime still has reservations")
	}
	return translateOther(err)
}

func translateOther(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.Internal(fmt.Errorf("storage aborted: %w", err))
	}
	return apperror.Internal(err)
}
