// Package pagination implements the opaque keyset cursor handed to clients
// and the page envelope returned with every list response.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedCursor is returned by Decode for any token that does not
// carry a "<uuid>,<timestamp>" payload.
var ErrMalformedCursor = errors.New("malformed cursor")

// Cursor is the continuation state of a keyset traversal: the id and
// creation time of the last row returned.  The ordering it continues is
// defined by the query that produced it, not by the token itself.
type Cursor struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// Encode returns base64("{id},{createdAt}") with the timestamp in UTC at
// nanosecond precision so that no keyset tie is lost on the way back.
func Encode(id uuid.UUID, createdAt time.Time) string {
	raw := id.String() + "," + createdAt.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode.  URL-safe base64 is accepted as
// well because clients frequently re-encode query parameters.
func Decode(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, ErrMalformedCursor
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return Cursor{}, ErrMalformedCursor
		}
	}
	idPart, tsPart, ok := strings.Cut(string(raw), ",")
	if !ok {
		return Cursor{}, ErrMalformedCursor
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return Cursor{}, ErrMalformedCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, tsPart)
	if err != nil {
		return Cursor{}, ErrMalformedCursor
	}
	return Cursor{ID: id, CreatedAt: ts.UTC()}, nil
}

// String is the encoded form of c.
func (c Cursor) String() string { return Encode(c.ID, c.CreatedAt) }
