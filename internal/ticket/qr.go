// Package ticket renders reservations into scannable tickets.
package ticket

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-showtime-reservation/internal/model"
)

// QRSize is the edge length in pixels of generated codes.
const QRSize = 256

// Payload is the text encoded in a ticket's QR code.  Seats are one-based.
func Payload(t *model.Ticket) string {
	return fmt.Sprintf("TICKET|%s|%s|%s|R%dC%d",
		t.ReservationID, t.ShowtimeID, t.UserID, t.Row+1, t.Column+1)
}

// QRCode returns a PNG QR code of the ticket payload.
func QRCode(t *model.Ticket) ([]byte, error) {
	png, err := qrcode.Encode(Payload(t), qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}
