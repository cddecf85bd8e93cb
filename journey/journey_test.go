package journey

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeydynamics/backend/decisionengine"
	"github.com/journeydynamics/backend/decisionengine/tabular"
	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/schemavalidator/jsonschemavalidator"
)

// testSchema mirrors the oneOf document the original aggregate's test
// suite compiled: either a bare string step payload, or an object whose
// known keys carry the listed types.
const testSchema = `{
	"oneOf": [
		{ "type": "string" },
		{
			"type": "object",
			"properties": {
				"alpha": { "type": "number" },
				"beta": { "type": "string" },
				"step": { "type": "string" },
				"email": { "type": "string" },
				"name": { "type": "string" },
				"first_name": { "type": "string" }
			},
			"additionalProperties": true
		}
	]
}`

func testServices(t *testing.T) Services {
	t.Helper()
	validator, err := jsonschemavalidator.New(json.RawMessage(testSchema))
	require.NoError(t, err)

	return Services{
		DecisionEngine:  testDecisionAdapter{engine: tabular.Default()},
		SchemaValidator: testSchemaAdapter{validator: validator},
	}
}

type testDecisionAdapter struct {
	engine *tabular.Engine
}

func (a testDecisionAdapter) Evaluate(ctx context.Context, dc DecisionContext) (Decision, error) {
	d, err := a.engine.Evaluate(ctx, decisionengine.Context{
		JourneyID:       dc.JourneyID,
		CurrentStep:     dc.CurrentStep,
		AccumulatedData: dc.AccumulatedData,
		Step:            dc.Step,
		Data:            dc.Data,
	})
	if err != nil {
		return Decision{}, err
	}
	return Decision{SuggestedActions: d.SuggestedActions, PrimaryNextStep: d.PrimaryNextStep}, nil
}

type testSchemaAdapter struct {
	validator *jsonschemavalidator.Validator
}

func (a testSchemaAdapter) Validate(ctx context.Context, data json.RawMessage) error {
	return a.validator.Validate(ctx, data)
}

// given folds a sequence of typed events onto a fresh journey, the way
// journey.Load folds persisted events through Apply.
func given(t *testing.T, events ...Event) Journey {
	t.Helper()
	state := New()
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		env := domain.EventEnvelope{
			AggregateType: AggregateType,
			EventType:     ev.eventType(),
			Sequence:      int64(i),
			Payload:       payload,
		}
		state, err = Apply(state, env)
		require.NoError(t, err)
	}
	return state
}

func TestHandle_StartJourney(t *testing.T) {
	state := New()
	events, err := Handle(context.Background(), state, Start{ID: "journey-1"}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{StartedPayload{ID: "journey-1"}}, events)
}

func TestHandle_OpenAlreadyOpened(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	_, err := Handle(context.Background(), state, Start{ID: "journey-1"}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyAlreadyStarted)
}

func TestHandle_ModifyJourney(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	events, err := Handle(context.Background(), state, Capture{Step: "first_name", Data: json.RawMessage(`"Joe"`)}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		ModifiedPayload{Step: "first_name", Data: json.RawMessage(`"Joe"`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: nil, ToStep: "first_name"},
	}, events)
}

func TestHandle_CompleteUnmodifiedJourney(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	events, err := Handle(context.Background(), state, Complete{}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{CompletedPayload{}}, events)
}

func TestHandle_CompleteModifiedJourney(t *testing.T) {
	state := given(t,
		StartedPayload{ID: "journey-1"},
		ModifiedPayload{Step: "first_name", Data: json.RawMessage(`"Joe"`)},
	)
	events, err := Handle(context.Background(), state, Complete{}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{CompletedPayload{}}, events)
}

func TestHandle_CaptureEmptyFormData(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	events, err := Handle(context.Background(), state, Capture{Step: "form_data", Data: json.RawMessage(`{}`)}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		ModifiedPayload{Step: "form_data", Data: json.RawMessage(`{}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: nil, ToStep: "form_data"},
	}, events)
}

func TestHandle_CaptureFormDataWithValues(t *testing.T) {
	state := given(t,
		StartedPayload{ID: "journey-1"},
		ModifiedPayload{Step: "form_data", Data: json.RawMessage(`{}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: nil, ToStep: "form_data"},
	)
	events, err := Handle(context.Background(), state, Capture{
		Step: "alpha",
		Data: json.RawMessage(`{"alpha":42,"beta":"hello"}`),
	}, testServices(t))
	require.NoError(t, err)
	fromStep := "form_data"
	assert.Equal(t, []Event{
		ModifiedPayload{Step: "alpha", Data: json.RawMessage(`{"alpha":42,"beta":"hello"}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: &fromStep, ToStep: "alpha"},
	}, events)
}

func TestHandle_CompleteJourneyWithFormData(t *testing.T) {
	fromStep := "form_data"
	state := given(t,
		StartedPayload{ID: "journey-1"},
		ModifiedPayload{Step: "alpha", Data: json.RawMessage(`{"alpha":42,"beta":"hello"}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: &fromStep, ToStep: "alpha"},
	)
	events, err := Handle(context.Background(), state, Complete{}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{CompletedPayload{}}, events)
}

func TestHandle_CompleteNotStarted(t *testing.T) {
	state := New()
	_, err := Handle(context.Background(), state, Complete{}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotFound)
}

func TestHandle_CompleteAlreadyCompleted(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"}, CompletedPayload{})
	_, err := Handle(context.Background(), state, Complete{}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotInProgress)
}

func TestHandle_ModifyNotStarted(t *testing.T) {
	state := New()
	_, err := Handle(context.Background(), state, Capture{Step: "first_name", Data: json.RawMessage(`"Joe"`)}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotFound)
}

func TestHandle_ModifyAlreadyCompleted(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"}, CompletedPayload{})
	_, err := Handle(context.Background(), state, Capture{Step: "first_name", Data: json.RawMessage(`"Joe"`)}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotInProgress)
}

func TestHandle_AutomaticWorkflowEvaluationAfterEveryEvent(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	events, err := Handle(context.Background(), state, Capture{
		Step: "step-1",
		Data: json.RawMessage(`{"step":"personal_info","email":"user@example.com","name":"Alice"}`),
	}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		ModifiedPayload{Step: "step-1", Data: json.RawMessage(`{"step":"personal_info","email":"user@example.com","name":"Alice"}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{}},
		StepProgressedPayload{FromStep: nil, ToStep: "step-1"},
	}, events)
}

func TestHandle_AutomaticWorkflowEvaluationForSpecificData(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	events, err := Handle(context.Background(), state, Capture{
		Step: "step-1",
		Data: json.RawMessage(`{"step":"personal_info","email":"user@example.com","first_name":"Alice"}`),
	}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		ModifiedPayload{Step: "step-1", Data: json.RawMessage(`{"step":"personal_info","email":"user@example.com","first_name":"Alice"}`)},
		WorkflowEvaluatedPayload{SuggestedActions: []string{"form_3"}},
		StepProgressedPayload{FromStep: nil, ToStep: "step-1"},
	}, events)
}

// recordingDecisionEngine records the DecisionContext it was last called
// with, so a test can assert what state the decision engine actually saw.
type recordingDecisionEngine struct {
	lastContext DecisionContext
}

func (e *recordingDecisionEngine) Evaluate(ctx context.Context, dc DecisionContext) (Decision, error) {
	e.lastContext = dc
	return Decision{SuggestedActions: []string{}}, nil
}

func TestHandle_DecisionEngineSeesPreMergeAccumulatedData(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})

	recorder := &recordingDecisionEngine{}
	services := Services{DecisionEngine: recorder}

	events, err := Handle(context.Background(), state, Capture{
		Step: "step-1",
		Data: json.RawMessage(`{"alpha":1}`),
	}, services)
	require.NoError(t, err)
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		state, err = Apply(state, domain.EventEnvelope{EventType: ev.eventType(), Payload: payload})
		require.NoError(t, err)
	}

	events, err = Handle(context.Background(), state, Capture{
		Step: "step-2",
		Data: json.RawMessage(`{"beta":"joined"}`),
	}, services)
	require.NoError(t, err)
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		state, err = Apply(state, domain.EventEnvelope{EventType: ev.eventType(), Payload: payload})
		require.NoError(t, err)
	}

	assert.JSONEq(t, `{"alpha":1}`, string(recorder.lastContext.AccumulatedData))
	assert.NotContains(t, string(recorder.lastContext.AccumulatedData), "beta")
}

func TestHandle_CapturePerson(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	phone := "+1234567890"
	events, err := Handle(context.Background(), state, CapturePerson{
		Name: "John Doe", Email: "john@example.com", Phone: &phone,
	}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		PersonCapturedPayload{Name: "John Doe", Email: "john@example.com", Phone: &phone},
	}, events)
}

func TestHandle_CapturePersonUpdate(t *testing.T) {
	phone := "+1234567890"
	state := given(t,
		StartedPayload{ID: "journey-1"},
		PersonCapturedPayload{Name: "John Doe", Email: "john@example.com", Phone: &phone},
	)
	events, err := Handle(context.Background(), state, CapturePerson{
		Name: "Jane Smith", Email: "jane@example.com",
	}, testServices(t))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		PersonCapturedPayload{Name: "Jane Smith", Email: "jane@example.com"},
	}, events)
}

func TestHandle_CapturePersonJourneyNotStarted(t *testing.T) {
	state := New()
	_, err := Handle(context.Background(), state, CapturePerson{Name: "John Doe", Email: "john@example.com"}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotFound)
}

func TestHandle_CapturePersonJourneyCompleted(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"}, CompletedPayload{})
	_, err := Handle(context.Background(), state, CapturePerson{Name: "John Doe", Email: "john@example.com"}, testServices(t))
	assert.ErrorIs(t, err, domain.ErrJourneyNotInProgress)
}

func TestHandle_CaptureInvalidDataSchemaValidationError(t *testing.T) {
	state := given(t, StartedPayload{ID: "journey-1"})
	invalid := json.RawMessage(`{"alpha":"this should be a number","beta":123}`)
	_, err := Handle(context.Background(), state, Capture{Step: "test_step", Data: invalid}, testServices(t))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnprocessable))
}

// TestHandle_SchemaValidatesMergedAccumulatedData asserts the schema
// validator sees the merge-patch candidate document, not the raw Capture
// payload alone: a step whose own payload cannot satisfy a required field
// still succeeds once combined with data captured by an earlier step.
func TestHandle_SchemaValidatesMergedAccumulatedData(t *testing.T) {
	requireOrigin := `{"type":"object","required":["origin"]}`
	validator, err := jsonschemavalidator.New(json.RawMessage(requireOrigin))
	require.NoError(t, err)
	services := Services{SchemaValidator: testSchemaAdapter{validator: validator}}

	state := given(t, StartedPayload{ID: "journey-1"})

	events, err := Handle(context.Background(), state, Capture{
		Step: "step-1",
		Data: json.RawMessage(`{"origin":"AAA"}`),
	}, services)
	require.NoError(t, err)
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		state, err = Apply(state, domain.EventEnvelope{EventType: ev.eventType(), Payload: payload})
		require.NoError(t, err)
	}

	// This step's own payload has no "origin" key and would fail schema
	// validation in isolation; it only satisfies the schema because
	// "origin" is already present in accumulated_data.
	_, err = Handle(context.Background(), state, Capture{
		Step: "step-2",
		Data: json.RawMessage(`{"destination":"BBB"}`),
	}, services)
	require.NoError(t, err)
}
