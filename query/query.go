package query

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/internal/infrastructure/cache"
)

// Query answers read-side requests by joining the projected tables. A
// JourneyCache, if provided, is consulted before JourneyByID hits Postgres.
type Query struct {
	pool  *pgxpool.Pool
	cache *cache.JourneyCache
}

// New constructs a Query. cache may be nil to skip the read-through cache.
func New(pool *pgxpool.Pool, journeyCache *cache.JourneyCache) *Query {
	return &Query{pool: pool, cache: journeyCache}
}

// JourneyByID returns the merged view for one journey.
func (q *Query) JourneyByID(ctx context.Context, id string) (*JourneyView, error) {
	if q.cache != nil {
		if cached, err := q.cache.Get(ctx, id); err == nil && cached != nil {
			var view JourneyView
			if err := json.Unmarshal(cached, &view); err == nil {
				return &view, nil
			}
		}
	}

	view, err := q.loadOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		_ = q.cache.Set(ctx, id, view)
	}
	return view, nil
}

// FindByEmail returns every journey associated with an email address,
// regardless of state (Open Question resolved in SPEC_FULL.md §5: the
// original source's journey_person.email index carries no state filter).
func (q *Query) FindByEmail(ctx context.Context, email string) ([]*JourneyView, error) {
	const idQuery = `SELECT journey_id FROM journey_person WHERE email = $1`
	rows, err := q.pool.Query(ctx, idQuery, email)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewStorageError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(err)
	}

	views := make([]*JourneyView, 0, len(ids))
	for _, id := range ids {
		view, err := q.JourneyByID(ctx, id)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// DataCaptureHistory returns the supplemental per-step audit trail for a
// journey (SPEC_FULL.md §5.2).
func (q *Query) DataCaptureHistory(ctx context.Context, id string) ([]DataCaptureEntry, error) {
	const query = `
	SELECT sequence, step, data, created_at
	FROM journey_data_capture
	WHERE journey_id = $1
	ORDER BY sequence ASC
	`
	rows, err := q.pool.Query(ctx, query, id)
	if err != nil {
		return nil, domain.NewStorageError(err)
	}
	defer rows.Close()

	var entries []DataCaptureEntry
	for rows.Next() {
		var entry DataCaptureEntry
		var data []byte
		if err := rows.Scan(&entry.Sequence, &entry.Step, &data, &entry.CreatedAt); err != nil {
			return nil, domain.NewStorageError(err)
		}
		entry.Data = append(json.RawMessage(nil), data...)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (q *Query) loadOne(ctx context.Context, id string) (*JourneyView, error) {
	const viewQuery = `
	SELECT journey_id, state, accumulated_data, current_step, version, created_at, updated_at
	FROM journey_view
	WHERE journey_id = $1
	`
	var view JourneyView
	var accumulated []byte
	row := q.pool.QueryRow(ctx, viewQuery, id)
	if err := row.Scan(&view.JourneyID, &view.State, &accumulated, &view.CurrentStep, &view.Version, &view.CreatedAt, &view.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJourneyNotFound
		}
		return nil, domain.NewStorageError(err)
	}
	view.AccumulatedData = append(json.RawMessage(nil), accumulated...)

	const decisionQuery = `
	SELECT suggested_actions, primary_next_step FROM journey_workflow_decision
	WHERE journey_id = $1 AND is_latest
	`
	var actions []byte
	var primaryNextStep *string
	if err := q.pool.QueryRow(ctx, decisionQuery, id).Scan(&actions, &primaryNextStep); err == nil {
		var suggested []string
		if err := json.Unmarshal(actions, &suggested); err == nil {
			view.LatestWorkflowDecision = &WorkflowDecisionView{SuggestedActions: suggested, PrimaryNextStep: primaryNextStep}
		}
	}

	const personQuery = `
	SELECT name, email, phone FROM journey_person WHERE journey_id = $1
	`
	var person PersonView
	if err := q.pool.QueryRow(ctx, personQuery, id).Scan(&person.Name, &person.Email, &person.Phone); err == nil {
		view.Person = &person
	}

	return &view, nil
}
