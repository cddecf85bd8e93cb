package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/eventstore"
)

func TestStore_AppendAndLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	events := []domain.EventEnvelope{
		{AggregateType: "Journey", AggregateID: "j-1", Sequence: 0, EventType: "Started"},
		{AggregateType: "Journey", AggregateID: "j-1", Sequence: 1, EventType: "Modified"},
	}

	require.NoError(t, store.Append(ctx, "Journey", "j-1", events, 0))

	loaded, err := store.Load(ctx, "Journey", "j-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "Started", loaded[0].EventType)
	assert.Equal(t, "Modified", loaded[1].EventType)
}

func TestStore_AppendConcurrencyConflict(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := []domain.EventEnvelope{{AggregateType: "Journey", AggregateID: "j-1", Sequence: 0, EventType: "Started"}}
	require.NoError(t, store.Append(ctx, "Journey", "j-1", first, 0))

	stale := []domain.EventEnvelope{{AggregateType: "Journey", AggregateID: "j-1", Sequence: 1, EventType: "Modified"}}
	err := store.Append(ctx, "Journey", "j-1", stale, 0)
	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
}

func TestStore_LoadUnknownAggregateIsEmpty(t *testing.T) {
	store := New()
	loaded, err := store.Load(context.Background(), "Journey", "missing")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
