// Package memory implements eventstore.Store in-process, grounded on the
// original Rust implementation's cqrs_es::mem_store::MemStore used
// throughout its aggregate test suite. Useful for tests that need real
// Append/Load concurrency semantics without a database.
package memory

import (
	"context"
	"sync"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/eventstore"
)

type store struct {
	mu     sync.Mutex
	events map[string][]domain.EventEnvelope
}

// New returns an empty in-memory event store.
func New() eventstore.Store {
	return &store{events: make(map[string][]domain.EventEnvelope)}
}

func (s *store) key(aggregateType, aggregateID string) string {
	return aggregateType + "/" + aggregateID
}

func (s *store) Append(ctx context.Context, aggregateType, aggregateID string, events []domain.EventEnvelope, expectedNextSequence int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(aggregateType, aggregateID)
	existing := s.events[k]
	if int64(len(existing)) != expectedNextSequence {
		return eventstore.ErrConcurrencyConflict
	}

	s.events[k] = append(existing, events...)
	return nil
}

func (s *store) Load(ctx context.Context, aggregateType, aggregateID string) ([]domain.EventEnvelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.events[s.key(aggregateType, aggregateID)]
	out := make([]domain.EventEnvelope, len(existing))
	copy(out, existing)
	return out, nil
}

var _ eventstore.Store = (*store)(nil)
