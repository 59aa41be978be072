// Package events publishes source lifecycle transitions to Redis Streams so
// that promotions, demotions, and link-rot flips stay attributable.
package events

import "time"

// StreamName is the Redis stream transition events are appended to.
const StreamName = "gocatalog:source-events"

// EventType identifies a source transition.
type EventType string

const (
	EventPromoted      EventType = "source.promoted"
	EventDemoted       EventType = "source.demoted"
	EventSeeded        EventType = "source.seeded"
	EventStatusChanged EventType = "source.status_changed"
)

// SourceEvent records one attributable transition: what changed, from what to
// what, and why.
type SourceEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	SourceID  string    `json:"source_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
