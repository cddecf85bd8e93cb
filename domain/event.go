package domain

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the persisted record of one state transition applied to
// an aggregate. The event store only ever appends and loads envelopes; it
// has no knowledge of what a payload means.
type EventEnvelope struct {
	AggregateType string                 `json:"aggregate_type"`
	AggregateID   string                 `json:"aggregate_id"`
	Sequence      int64                  `json:"sequence"`
	EventType     string                 `json:"event_type"`
	EventVersion  string                 `json:"event_version"`
	Payload       json.RawMessage        `json:"payload"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	RecordedAt    time.Time              `json:"recorded_at"`
}

// Metadata keys populated by the command bus before an event is appended.
const (
	MetadataCorrelationID = "correlation_id"
)
