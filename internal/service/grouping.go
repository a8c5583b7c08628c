package service

import (
	"github.com/google/uuid"

	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
	"github.com/iliyamo/cinema-showtime-reservation/internal/repository"
)

// groupShowtimes folds flat join rows into one ShowtimeDetail per
// showtime id in a single pass.  Showtimes keep the order in which their
// first row appears.
func groupShowtimes(rows []repository.ShowtimeRow) []model.ShowtimeDetail {
	out := make([]model.ShowtimeDetail, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		i, ok := index[r.ShowtimeID]
		if !ok {
			i = len(out)
			index[r.ShowtimeID] = i
			out = append(out, model.ShowtimeDetail{
				ID:           r.ShowtimeID,
				At:           r.At,
				MovieID:      r.MovieID,
				MovieTitle:   r.MovieTitle,
				HallID:       r.HallID,
				HallName:     r.HallName,
				CreatedAt:    r.CreatedAt,
				Reservations: []model.ShowtimeReservation{},
			})
		}
		if r.Reservation != nil {
			out[i].Reservations = append(out[i].Reservations, *r.Reservation)
		}
	}
	return out
}
