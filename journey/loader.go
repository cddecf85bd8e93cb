package journey

import (
	"context"

	"github.com/journeydynamics/backend/eventstore"
)

// Load replays an aggregate's event stream through Apply and returns the
// resulting state along with the sequence number the next appended event
// must carry. Sequences start at 0, so an aggregate with no prior events
// loads as a fresh, unstarted Journey at nextSequence 0.
func Load(ctx context.Context, store eventstore.Store, aggregateID string) (Journey, int64, error) {
	events, err := store.Load(ctx, AggregateType, aggregateID)
	if err != nil {
		return Journey{}, 0, err
	}

	state := New()
	for _, env := range events {
		state, err = Apply(state, env)
		if err != nil {
			return Journey{}, 0, err
		}
	}

	return state, int64(len(events)), nil
}
