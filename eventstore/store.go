// Package eventstore defines the append-only persistence contract the
// Journey aggregate is loaded from and appended to (component A).
package eventstore

import (
	"context"
	"errors"

	"github.com/journeydynamics/backend/domain"
)

// ErrConcurrencyConflict is returned by Append when expectedNextSequence no
// longer matches the stream's actual next sequence — another writer won the
// race. Callers reload and retry; see usecase.CommandBus.
var ErrConcurrencyConflict = errors.New("eventstore: concurrency conflict")

// Store is the event store contract. Implementations must enforce
// uniqueness of (aggregate_type, aggregate_id, sequence) and must Append
// a batch atomically: either every event in the batch lands, or none does.
type Store interface {
	// Append persists events starting at expectedNextSequence. Sequences
	// are 0-indexed, so expectedNextSequence must equal the stream's
	// current length; otherwise the append fails with
	// ErrConcurrencyConflict and nothing is written.
	Append(ctx context.Context, aggregateType, aggregateID string, events []domain.EventEnvelope, expectedNextSequence int64) error

	// Load returns every event recorded for the aggregate, ordered by
	// sequence ascending. An aggregate with no events returns an empty
	// result and a nil error.
	Load(ctx context.Context, aggregateType, aggregateID string) ([]domain.EventEnvelope, error)
}
