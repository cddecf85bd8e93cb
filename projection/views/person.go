package views

import (
	"context"
	"encoding/json"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/journey"
)

// PersonProjection maintains journey_person. PersonCaptured overwrites the
// row wholesale — matching the original source's plain column assignment,
// no partial-field merge.
type PersonProjection struct {
	db DB
}

func NewPersonProjection(db DB) *PersonProjection {
	return &PersonProjection{db: db}
}

func (p *PersonProjection) Name() string { return "journey_person" }

func (p *PersonProjection) Handle(ctx context.Context, env domain.EventEnvelope) error {
	if env.EventType != journey.EventPersonCaptured {
		return nil
	}

	var payload journey.PersonCapturedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return err
	}

	const query = `
	INSERT INTO journey_person (journey_id, name, email, phone, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (journey_id) DO UPDATE
	SET name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		updated_at = NOW()
	`
	_, err := p.db.Exec(ctx, query, env.AggregateID, payload.Name, payload.Email, payload.Phone)
	return err
}
