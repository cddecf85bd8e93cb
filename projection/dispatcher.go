// Package projection fans persisted events out to read-model projections
// synchronously (component F). Grounded on
// _examples/other_examples/getpup-pupsourcing__projection.go's Projection
// interface (Name/Handle) and on fastygo-backend's
// internal/services/buffer_processor.go for what happens when a handler
// fails: instead of requeuing a buffered write, the dispatcher records the
// aggregate's checkpoint as lagging and lets a replay job catch it up.
package projection

import (
	"context"

	"github.com/journeydynamics/backend/domain"
	"go.uber.org/zap"
)

// Projection is one read-model writer. Handle must be idempotent: the
// replay job may redeliver an event it already applied if a prior attempt
// failed partway through a batch.
type Projection interface {
	Name() string
	Handle(ctx context.Context, env domain.EventEnvelope) error
}

// LagRecorder marks an aggregate's projection checkpoint as lagging after a
// projection handler fails, so a later replay can catch it up. Implemented
// by internal/infrastructure/backlog.Store.
type LagRecorder interface {
	Record(ctx context.Context, aggregateType, aggregateID string, fromSequence int64, reason string) error
}

// Dispatcher runs every registered Projection, in registration order, for
// each event in a batch. Projection dispatch is synchronous: the command
// bus waits for Dispatch to return before acknowledging a command. A
// projection failure is tracked via LagRecorder and also returned, so the
// command bus reports it to the caller; the appended events stay committed.
type Dispatcher struct {
	projections []Projection
	lag         LagRecorder
	logger      *zap.Logger
}

// New builds a Dispatcher. lag may be nil, in which case projection
// failures are only logged.
func New(lag LagRecorder, logger *zap.Logger, projections ...Projection) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{projections: projections, lag: lag, logger: logger}
}

// Dispatch hands every event in order to every projection in order. A
// projection error for one event does not stop the remaining events or
// remaining projections from running — each is independent read-model
// state that should get as close to current as possible. The aggregate's
// checkpoint is marked lagging for every failure, and the first error
// encountered is returned to the caller once the batch finishes.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.EventEnvelope) error {
	var first error

	for _, env := range events {
		for _, p := range d.projections {
			if err := p.Handle(ctx, env); err != nil {
				d.logger.Error("projection failed",
					zap.String("projection", p.Name()),
					zap.String("aggregate_id", env.AggregateID),
					zap.Int64("sequence", env.Sequence),
					zap.Error(err))

				if first == nil {
					first = err
				}

				if d.lag != nil {
					if lagErr := d.lag.Record(ctx, env.AggregateType, env.AggregateID, env.Sequence, err.Error()); lagErr != nil {
						d.logger.Error("failed to record projection lag", zap.Error(lagErr))
					}
				}
			}
		}
	}

	return first
}
