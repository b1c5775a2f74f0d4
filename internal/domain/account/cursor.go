package account

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrInvalidCursor rejects cursors that are malformed or were minted under a
// different filter. Callers must restart enumeration from the beginning.
var ErrInvalidCursor = shared.NewDomainError("INVALID_CURSOR", "Cursor is malformed or does not match the active filter")

// Cursor marks a position in a directory enumeration: the sort key of the
// last returned user plus the fingerprint of the filter it was minted under.
// Enumeration order is creation time, ties broken by id.
type Cursor struct {
	CreatedAt   time.Time
	ID          uuid.UUID
	Fingerprint string
}

type cursorToken struct {
	CreatedAtNs int64  `json:"c"`
	ID          string `json:"i"`
	Fingerprint string `json:"f"`
}

// NewCursor mints a cursor pointing just past the given user
func NewCursor(u *User, f Filter) Cursor {
	return Cursor{
		CreatedAt:   u.CreatedAt,
		ID:          u.ID,
		Fingerprint: f.Fingerprint(),
	}
}

// Encode serializes the cursor into an opaque token
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(cursorToken{
		CreatedAtNs: c.CreatedAt.UnixNano(),
		ID:          c.ID.String(),
		Fingerprint: c.Fingerprint,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token and checks it against the active filter.
// Any decoding failure or a fingerprint mismatch yields ErrInvalidCursor.
func DecodeCursor(token string, f Filter) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var t cursorToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	id, err := uuid.Parse(t.ID)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if t.Fingerprint != f.Fingerprint() {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{
		CreatedAt:   time.Unix(0, t.CreatedAtNs),
		ID:          id,
		Fingerprint: t.Fingerprint,
	}, nil
}
