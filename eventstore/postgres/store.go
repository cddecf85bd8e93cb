// Package postgres implements eventstore.Store over pgx/v5, grounded on
// fastygo-backend's repository/postgres/aggregate_repo.go (its AppendEvent
// already inserted one row per event; this generalizes that into a
// sequence-numbered, concurrency-checked append).
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/eventstore"
)

type store struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed eventstore.Store.
func New(pool *pgxpool.Pool) eventstore.Store {
	return &store{pool: pool}
}

// Append persists events atomically and enforces optimistic concurrency via
// the unique constraint on (aggregate_type, aggregate_id, sequence): a
// conflicting concurrent writer's insert fails, and this call surfaces it
// as eventstore.ErrConcurrencyConflict so the caller reloads and retries.
func (s *store) Append(ctx context.Context, aggregateType, aggregateID string, events []domain.EventEnvelope, expectedNextSequence int64) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var actualNext int64
	const seqQuery = `SELECT COALESCE(MAX(sequence), -1) + 1 FROM journey_events WHERE aggregate_type = $1 AND aggregate_id = $2`
	if err := tx.QueryRow(ctx, seqQuery, aggregateType, aggregateID).Scan(&actualNext); err != nil {
		return err
	}
	if actualNext != expectedNextSequence {
		return eventstore.ErrConcurrencyConflict
	}

	const insertQuery = `
	INSERT INTO journey_events (aggregate_type, aggregate_id, sequence, event_type, event_version, payload, metadata, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	`

	for _, ev := range events {
		metadata := marshalMetadata(ev.Metadata)
		if _, err := tx.Exec(ctx, insertQuery,
			ev.AggregateType,
			ev.AggregateID,
			ev.Sequence,
			ev.EventType,
			ev.EventVersion,
			[]byte(ev.Payload),
			metadata,
			nullTime(ev.RecordedAt),
		); err != nil {
			var pgErr interface{ SQLState() string }
			if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
				return eventstore.ErrConcurrencyConflict
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

// Load returns every event for the aggregate ordered by sequence.
func (s *store) Load(ctx context.Context, aggregateType, aggregateID string) ([]domain.EventEnvelope, error) {
	const query = `
	SELECT aggregate_type, aggregate_id, sequence, event_type, event_version, payload, metadata, recorded_at
	FROM journey_events
	WHERE aggregate_type = $1 AND aggregate_id = $2
	ORDER BY sequence ASC
	`

	rows, err := s.pool.Query(ctx, query, aggregateType, aggregateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var events []domain.EventEnvelope
	for rows.Next() {
		var env domain.EventEnvelope
		var metadata []byte
		var payload []byte
		if err := rows.Scan(
			&env.AggregateType,
			&env.AggregateID,
			&env.Sequence,
			&env.EventType,
			&env.EventVersion,
			&payload,
			&metadata,
			&env.RecordedAt,
		); err != nil {
			return nil, err
		}
		env.Payload = append(json.RawMessage(nil), payload...)
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &env.Metadata)
		}
		events = append(events, env)
	}
	return events, rows.Err()
}

var _ eventstore.Store = (*store)(nil)
