package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a cursor token cannot be decoded.
// Callers must treat a malformed cursor as absent and restart from the
// first page rather than failing the request.
var ErrMalformed = errors.New("malformed cursor")

// Cursor is a resumption point in a keyset-ordered listing. SortValue
// is the string form of the sort column at the boundary row and ID is
// the tie-break. Two cursors are only comparable when produced under
// the same sort field and direction; that scoping is enforced by the
// query builder and the window manager, not here.
type Cursor struct {
	SortValue string `json:"sortValue"`
	ID        int64  `json:"id"`
}

// Encode serializes the cursor into a URL-safe opaque token. The token
// carries no server-side session state.
func Encode(sortValue string, id int64) string {
	payload, _ := json.Marshal(Cursor{SortValue: sortValue, ID: id})
	return base64.RawURLEncoding.EncodeToString(payload)
}

// Decode parses a token produced by Encode. It accepts both the
// standard and URL-safe base64 alphabets, with or without padding,
// since tokens round-trip through query strings and assorted clients.
// Any failure is reported as ErrMalformed; Decode never panics.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	raw, err := decodeBase64(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return c, nil
}

// decodeBase64 tries the encodings a token may have passed through:
// URL-safe without padding (what Encode emits), then padded URL-safe,
// then the standard alphabet for clients that re-encoded the payload.
func decodeBase64(token string) ([]byte, error) {
	trimmed := strings.TrimRight(token, "=")

	if raw, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return raw, nil
	}

	normalized := strings.NewReplacer("-", "+", "_", "/").Replace(trimmed)
	if raw, err := base64.RawStdEncoding.DecodeString(normalized); err == nil {
		return raw, nil
	}

	return base64.StdEncoding.DecodeString(token)
}
