package views

import (
	"context"
	"encoding/json"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/journey"
)

// WorkflowDecisionProjection maintains journey_workflow_decision, keeping
// exactly one is_latest=TRUE row per journey. Grounded on the original
// source's view_repository.rs, which sets is_latest=FALSE on every
// existing row before inserting the new one.
type WorkflowDecisionProjection struct {
	db DB
}

func NewWorkflowDecisionProjection(db DB) *WorkflowDecisionProjection {
	return &WorkflowDecisionProjection{db: db}
}

func (p *WorkflowDecisionProjection) Name() string { return "journey_workflow_decision" }

func (p *WorkflowDecisionProjection) Handle(ctx context.Context, env domain.EventEnvelope) error {
	if env.EventType != journey.EventWorkflowEvaluated {
		return nil
	}

	var payload journey.WorkflowEvaluatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return err
	}

	actions, err := json.Marshal(payload.SuggestedActions)
	if err != nil {
		return err
	}

	var primaryNextStep *string
	if len(payload.SuggestedActions) > 0 {
		primaryNextStep = &payload.SuggestedActions[0]
	}

	const clearLatest = `UPDATE journey_workflow_decision SET is_latest = FALSE WHERE journey_id = $1 AND is_latest`
	if _, err := p.db.Exec(ctx, clearLatest, env.AggregateID); err != nil {
		return err
	}

	const insert = `
	INSERT INTO journey_workflow_decision (journey_id, sequence, suggested_actions, primary_next_step, is_latest, created_at)
	VALUES ($1, $2, $3, $4, TRUE, NOW())
	ON CONFLICT (journey_id, sequence) DO UPDATE
	SET suggested_actions = EXCLUDED.suggested_actions, primary_next_step = EXCLUDED.primary_next_step, is_latest = TRUE
	`
	_, err = p.db.Exec(ctx, insert, env.AggregateID, env.Sequence, actions, primaryNextStep)
	return err
}
