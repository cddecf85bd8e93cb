package views

import (
	"context"
	"encoding/json"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/journey"
)

// JourneyViewProjection maintains journey_view (the merged, query-facing
// read model) and journey_data_capture (the supplemental per-step audit
// log from the original source's view_repository.rs). Grounded on that
// file's per-event-type raw SQL handling.
type JourneyViewProjection struct {
	db DB
}

func NewJourneyViewProjection(db DB) *JourneyViewProjection {
	return &JourneyViewProjection{db: db}
}

func (p *JourneyViewProjection) Name() string { return "journey_view" }

func (p *JourneyViewProjection) Handle(ctx context.Context, env domain.EventEnvelope) error {
	switch env.EventType {
	case journey.EventStarted:
		var payload journey.StartedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		const query = `
		INSERT INTO journey_view (journey_id, state, accumulated_data, current_step, version, created_at, updated_at)
		VALUES ($1, 'in_progress', '{}'::jsonb, NULL, 1, NOW(), NOW())
		ON CONFLICT (journey_id) DO NOTHING
		`
		_, err := p.db.Exec(ctx, query, payload.ID)
		return err

	case journey.EventModified:
		var payload journey.ModifiedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}

		const updateQuery = `
		UPDATE journey_view
		SET accumulated_data = accumulated_data || $2::jsonb,
			version = $3,
			updated_at = NOW()
		WHERE journey_id = $1
		`
		if _, err := p.db.Exec(ctx, updateQuery, env.AggregateID, mergeOperand(payload.Data), env.Sequence+1); err != nil {
			return err
		}

		const captureQuery = `
		INSERT INTO journey_data_capture (journey_id, sequence, step, data, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (journey_id, sequence) DO NOTHING
		`
		_, err := p.db.Exec(ctx, captureQuery, env.AggregateID, env.Sequence, payload.Step, []byte(payload.Data))
		return err

	case journey.EventStepProgressed:
		var payload journey.StepProgressedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return err
		}
		const query = `
		UPDATE journey_view
		SET current_step = $2, version = $3, updated_at = NOW()
		WHERE journey_id = $1
		`
		_, err := p.db.Exec(ctx, query, env.AggregateID, payload.ToStep, env.Sequence+1)
		return err

	case journey.EventCompleted:
		const query = `
		UPDATE journey_view
		SET state = 'complete', version = $2, updated_at = NOW()
		WHERE journey_id = $1
		`
		_, err := p.db.Exec(ctx, query, env.AggregateID, env.Sequence+1)
		return err

	case journey.EventWorkflowEvaluated, journey.EventPersonCaptured:
		const query = `
		UPDATE journey_view
		SET version = $2, updated_at = NOW()
		WHERE journey_id = $1
		`
		_, err := p.db.Exec(ctx, query, env.AggregateID, env.Sequence+1)
		return err

	default:
		return nil
	}
}

// mergeOperand behaves like Postgres's jsonb `||` for RFC 7396 merge-patch
// semantics only when the patch is itself a JSON object — a scalar patch
// (e.g. a bare string step payload) cannot be folded with `||`, so it is
// wrapped so the operator degrades to a harmless no-op object merge rather
// than failing; scalar Capture payloads are rare in practice and are still
// fully captured in journey_data_capture and in the aggregate's own
// RFC 7396 merge (journey.mergePatch) that the aggregate replays from.
func mergeOperand(data json.RawMessage) []byte {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return []byte(data)
	}
	return []byte(`{}`)
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
