package journey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeydynamics/backend/eventstore/memory"
)

func TestLoad_FreshAggregateStartsAtSequenceZero(t *testing.T) {
	store := memory.New()
	state, nextSeq, err := Load(context.Background(), store, "journey-1")
	require.NoError(t, err)
	assert.False(t, state.started())
	assert.Equal(t, int64(0), nextSeq)
}

func TestLoad_ReplaysPersistedEvents(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	events, err := Handle(ctx, New(), Start{ID: "journey-1"}, Services{})
	require.NoError(t, err)
	envs, err := Envelopes("journey-1", 0, events, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, AggregateType, "journey-1", envs, 0))

	state, nextSeq, err := Load(ctx, store, "journey-1")
	require.NoError(t, err)
	assert.True(t, state.started())
	assert.Equal(t, StateInProgress, state.State)
	assert.Equal(t, int64(1), nextSeq)
}
