// Package repository holds the MySQL data access for showtimes and
// reservations.  Methods return raw driver errors or the sentinels below;
// classification into domain errors happens in constraint.go and in the
// service layer.
package repository

import "errors"

// ErrShowtimeNotFound is returned when a showtime lookup matches no row.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrReservationNotFound is returned when a user holds no reservation for
// the requested showtime.
var ErrReservationNotFound = errors.New("reservation not found")
