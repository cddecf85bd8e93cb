package journey

import (
	"context"
	"encoding/json"

	"github.com/journeydynamics/backend/domain"
)

// Handle evaluates a command against the current aggregate state and
// returns the events it produces, or a domain error if a precondition is
// violated. Handle never mutates state itself; the command bus folds the
// returned events through Apply after a successful append.
func Handle(ctx context.Context, state Journey, cmd Command, services Services) ([]Event, error) {
	switch c := cmd.(type) {
	case Start:
		if state.started() {
			return nil, domain.ErrJourneyAlreadyStarted
		}
		return []Event{StartedPayload{ID: c.ID}}, nil

	case CapturePerson:
		if !state.started() {
			return nil, domain.ErrJourneyNotFound
		}
		if state.State == StateComplete {
			return nil, domain.ErrJourneyNotInProgress
		}
		return []Event{PersonCapturedPayload{Name: c.Name, Email: c.Email, Phone: c.Phone}}, nil

	case Capture:
		if !state.started() {
			return nil, domain.ErrJourneyNotFound
		}
		if state.State == StateComplete {
			return nil, domain.ErrJourneyNotInProgress
		}

		if services.SchemaValidator != nil {
			candidate, err := mergePatch(state.AccumulatedData, c.Data)
			if err != nil {
				return nil, err
			}
			if err := services.SchemaValidator.Validate(ctx, candidate); err != nil {
				return nil, domain.NewSchemaValidationFailed(err.Error())
			}
		}

		isStepTransition := state.CurrentStep == nil || *state.CurrentStep != c.Step

		decisionCtx := DecisionContext{
			JourneyID:       state.ID,
			State:           state.State,
			CurrentStep:     state.CurrentStep,
			AccumulatedData: state.AccumulatedData,
			Step:            c.Step,
			Data:            c.Data,
		}
		if isStepTransition {
			step := c.Step
			decisionCtx.CurrentStep = &step
		}

		var decision Decision
		if services.DecisionEngine != nil {
			var err error
			decision, err = services.DecisionEngine.Evaluate(ctx, decisionCtx)
			if err != nil {
				return nil, domain.NewDecisionEngineError(err)
			}
		}

		events := []Event{
			ModifiedPayload{Step: c.Step, Data: c.Data},
			WorkflowEvaluatedPayload{SuggestedActions: decision.SuggestedActions},
		}

		if isStepTransition {
			events = append(events, StepProgressedPayload{FromStep: state.CurrentStep, ToStep: c.Step})
		}

		return events, nil

	case Complete:
		if !state.started() {
			return nil, domain.ErrJourneyNotFound
		}
		if state.State == StateComplete {
			return nil, domain.ErrJourneyNotInProgress
		}
		return []Event{CompletedPayload{}}, nil

	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown command")
	}
}

// Envelopes wraps a batch of freshly handled events into persistable
// domain.EventEnvelope values, numbering them sequentially from nextSeq.
func Envelopes(aggregateID string, nextSeq int64, events []Event, metadata map[string]interface{}) ([]domain.EventEnvelope, error) {
	envs := make([]domain.EventEnvelope, 0, len(events))
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, err
		}
		envs = append(envs, domain.EventEnvelope{
			AggregateType: AggregateType,
			AggregateID:   aggregateID,
			Sequence:      nextSeq + int64(i),
			EventType:     ev.eventType(),
			EventVersion:  EventVersion,
			Payload:       payload,
			Metadata:      metadata,
		})
	}
	return envs, nil
}
