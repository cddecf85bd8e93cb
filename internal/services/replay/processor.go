// Package replay periodically catches lagging projections back up.
// Adapted from fastygo-backend's internal/services/buffer_processor.go:
// same cron-scheduled drain loop and retry-with-cap idiom, repurposed from
// draining buffered profile/task writes to replaying event streams through
// projections.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/journeydynamics/backend/eventstore"
	"github.com/journeydynamics/backend/internal/infrastructure/backlog"
	"github.com/journeydynamics/backend/projection"
)

// Config controls how frequently the backlog is drained.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// Processor replays lagging aggregates' event streams through the
// projection dispatcher until their checkpoint catches up.
type Processor struct {
	store      *backlog.Store
	events     eventstore.Store
	dispatcher *projection.Dispatcher
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        Config
}

// New constructs a backlog replay Processor.
func New(store *backlog.Store, events eventstore.Store, dispatcher *projection.Dispatcher, logger *zap.Logger, cfg Config) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Processor{
		store:      store,
		events:     events,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("backlog replay failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *Processor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("backlog replay started")
}

// Stop gracefully stops the scheduler.
func (p *Processor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("backlog replay stopped")
}

// Drain replays every pending lag entry's aggregate through the
// projection dispatcher, clearing the entry on success.
func (p *Processor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}

	entries, err := p.store.Pending(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		events, err := p.events.Load(ctx, entry.AggregateType, entry.AggregateID)
		if err != nil {
			p.logger.Error("failed to reload lagging aggregate",
				zap.String("aggregate_id", entry.AggregateID), zap.Error(err))
			continue
		}

		if err := p.dispatcher.Dispatch(ctx, events); err != nil {
			if entry.Retries+1 >= p.cfg.MaxRetries {
				p.logger.Warn("dropping lag entry after max retries",
					zap.String("aggregate_id", entry.AggregateID), zap.Error(err))
				_ = p.store.Clear(entry)
				continue
			}
			p.logger.Warn("replay still failing, requeuing lag entry",
				zap.String("aggregate_id", entry.AggregateID), zap.Error(err))
			if err := p.store.Requeue(entry); err != nil {
				p.logger.Warn("failed to requeue lag entry", zap.Error(err))
			}
			continue
		}

		if err := p.store.Clear(entry); err != nil {
			p.logger.Warn("failed to clear lag entry", zap.Error(err))
		}
	}
	return nil
}
