package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// InboxEntry is a raw captured citation awaiting enrichment. Entries are
// append-only: enrichment marks them processed but never mutates them otherwise.
type InboxEntry struct {
	ID              string        `json:"id" db:"id"`
	URL             string        `json:"url" db:"url"`
	Origin          OriginContext `json:"origin" db:"origin"`
	CapturedAt      time.Time     `json:"captured_at" db:"captured_at"`
	IsValid         bool          `json:"is_valid" db:"is_valid"`
	ValidationError string        `json:"validation_error,omitempty" db:"validation_error"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}

// OriginContext records where a citation came from.
type OriginContext struct {
	Project        string `json:"project,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Snippet        string `json:"snippet,omitempty"`
}

// Value implements driver.Valuer for database storage.
func (o OriginContext) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan implements sql.Scanner for database retrieval.
func (o *OriginContext) Scan(value any) error {
	if value == nil {
		*o = OriginContext{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, o)
}
