package repositories

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wildwatch-edu/observation-service/internal/models"
)

// ErrInvalidCursor is returned when a continuation cursor cannot be decoded
// or was issued for a different kind.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

type cursorPayload struct {
	Kind    models.Kind `json:"k"`
	AfterID uint        `json:"a"`
}

// EncodeCursor produces the opaque continuation token for a listing that
// stopped after lastID.
func EncodeCursor(kind models.Kind, lastID uint) string {
	raw, _ := json.Marshal(cursorPayload{Kind: kind, AfterID: lastID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor validates and unpacks a continuation token for the given kind.
// An empty cursor means the first page.
func DecodeCursor(kind models.Kind, cursor string) (uint, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if payload.Kind != kind || payload.AfterID == 0 {
		return 0, ErrInvalidCursor
	}
	return payload.AfterID, nil
}
