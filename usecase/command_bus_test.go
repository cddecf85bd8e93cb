package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeydynamics/backend/decisionengine/tabular"
	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/eventstore/memory"
	"github.com/journeydynamics/backend/journey"
	"github.com/journeydynamics/backend/projection"
)

func newTestBus(t *testing.T) *CommandBus {
	t.Helper()
	events := memory.New()
	dispatcher := projection.New(nil, nil)
	return NewCommandBus(events, tabular.Default(), nil, dispatcher, nil)
}

func TestCommandBus_StartThenCapture(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	state, err := bus.Dispatch(ctx, "journey-1", journey.Start{ID: "journey-1"})
	require.NoError(t, err)
	assert.Equal(t, journey.StateInProgress, state.State)

	state, err = bus.Dispatch(ctx, "journey-1", journey.Capture{
		Step: "step-1",
		Data: json.RawMessage(`{"first_name":"Alice"}`),
	})
	require.NoError(t, err)
	require.NotNil(t, state.LatestWorkflowDecision)
	assert.Equal(t, []string{"form_3"}, state.LatestWorkflowDecision.SuggestedActions)
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "step-1", *state.CurrentStep)
}

func TestCommandBus_CaptureBeforeStartFails(t *testing.T) {
	bus := newTestBus(t)
	_, err := bus.Dispatch(context.Background(), "journey-missing", journey.Capture{Step: "a", Data: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, domain.ErrJourneyNotFound)
}

func TestCommandBus_CompleteAfterCapture(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, "journey-1", journey.Start{ID: "journey-1"})
	require.NoError(t, err)
	_, err = bus.Dispatch(ctx, "journey-1", journey.Capture{Step: "a", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)

	state, err := bus.Dispatch(ctx, "journey-1", journey.Complete{})
	require.NoError(t, err)
	assert.Equal(t, journey.StateComplete, state.State)
}
