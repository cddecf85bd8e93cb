package backlog

import (
	"time"

	"github.com/google/uuid"
)

// LagEntry records that an aggregate's projection checkpoint fell behind
// its event stream, per spec.md §4.F ("mark the aggregate's projection
// checkpoint as lagging"). Adapted from fastygo-backend's
// internal/infrastructure/buffer.Item — same persistence shape, different
// payload: a buffered CRUD operation becomes a lagging read-model pointer.
type LagEntry struct {
	ID            string    `json:"id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	FromSequence  int64     `json:"from_sequence"`
	Reason        string    `json:"reason"`
	Retries       int       `json:"retries"`
	Timestamp     time.Time `json:"timestamp"`

	bucketKey []byte
}

func (e *LagEntry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
