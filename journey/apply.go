package journey

import (
	"encoding/json"

	"github.com/journeydynamics/backend/domain"
)

// Apply folds one persisted event into the aggregate state. It checks no
// preconditions: by the time an event reaches the store it has already
// passed every precondition in Handle. Apply is a pure function of
// (state, event) -> state; it returns an error only when an event payload
// cannot be decoded or its data cannot be merged.
func Apply(state Journey, env domain.EventEnvelope) (Journey, error) {
	switch env.EventType {
	case EventStarted:
		var p StartedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return state, err
		}
		state.ID = p.ID
		state.State = StateInProgress
		if state.AccumulatedData == nil {
			state.AccumulatedData = json.RawMessage(`{}`)
		}

	case EventModified:
		var p ModifiedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return state, err
		}
		merged, err := mergePatch(state.AccumulatedData, p.Data)
		if err != nil {
			return state, err
		}
		state.AccumulatedData = merged

	case EventWorkflowEvaluated:
		var p WorkflowEvaluatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return state, err
		}
		state.LatestWorkflowDecision = &WorkflowDecision{SuggestedActions: p.SuggestedActions}

	case EventPersonCaptured:
		// Person data is projected to read model tables only; the aggregate
		// itself carries no person fields.

	case EventStepProgressed:
		var p StepProgressedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return state, err
		}
		step := p.ToStep
		state.CurrentStep = &step

	case EventCompleted:
		state.State = StateComplete
	}

	return state, nil
}
