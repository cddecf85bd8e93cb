// Package usecase wires the Journey aggregate to its external capabilities
// and side effects. CommandBus supersedes fastygo-backend's
// usecase/dispatcher.go: instead of a name-keyed handler registry, commands
// are dispatched through the typed journey.Command union, and the
// load/handle/append/project sequence is fixed rather than delegated to
// per-command closures.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/journeydynamics/backend/decisionengine"
	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/eventstore"
	"github.com/journeydynamics/backend/journey"
	"github.com/journeydynamics/backend/projection"
	"github.com/journeydynamics/backend/schemavalidator"
)

// decisionEngineAdapter bridges decisionengine.Port to the journey
// package's local DecisionEngine interface, so the aggregate itself never
// imports the decisionengine package name.
type decisionEngineAdapter struct {
	port decisionengine.Port
}

func (a decisionEngineAdapter) Evaluate(ctx context.Context, dc journey.DecisionContext) (journey.Decision, error) {
	d, err := a.port.Evaluate(ctx, decisionengine.Context{
		JourneyID:       dc.JourneyID,
		CurrentStep:     dc.CurrentStep,
		AccumulatedData: dc.AccumulatedData,
		Step:            dc.Step,
		Data:            dc.Data,
	})
	if err != nil {
		return journey.Decision{}, err
	}
	return journey.Decision{SuggestedActions: d.SuggestedActions, PrimaryNextStep: d.PrimaryNextStep}, nil
}

// schemaValidatorAdapter bridges schemavalidator.Port to the journey
// package's local SchemaValidator interface. The method sets are already
// identical; the adapter only exists to keep journey free of a dependency
// on the schemavalidator package name.
type schemaValidatorAdapter struct {
	port schemavalidator.Port
}

func (a schemaValidatorAdapter) Validate(ctx context.Context, data json.RawMessage) error {
	return a.port.Validate(ctx, data)
}

// MaxConcurrencyRetries bounds how many times CommandBus reloads and
// retries a command after losing an optimistic-concurrency race, mirroring
// fastygo-backend's ProcessorConfig.MaxRetries cap on buffer drains.
const MaxConcurrencyRetries = 5

// CommandBus loads a Journey aggregate, evaluates a command against it,
// appends the resulting events, and dispatches them through the
// projection pipeline. It is the only place outside the journey package's
// own tests that calls journey.Handle directly.
type CommandBus struct {
	events     eventstore.Store
	decision   decisionengine.Port
	schema     schemavalidator.Port
	dispatcher *projection.Dispatcher
	logger     *zap.Logger
}

// NewCommandBus constructs a CommandBus. decision and schema may be nil,
// in which case Capture commands skip the corresponding check.
func NewCommandBus(events eventstore.Store, decision decisionengine.Port, schema schemavalidator.Port, dispatcher *projection.Dispatcher, logger *zap.Logger) *CommandBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandBus{events: events, decision: decision, schema: schema, dispatcher: dispatcher, logger: logger}
}

func (b *CommandBus) services() journey.Services {
	var svc journey.Services
	if b.decision != nil {
		svc.DecisionEngine = decisionEngineAdapter{port: b.decision}
	}
	if b.schema != nil {
		svc.SchemaValidator = schemaValidatorAdapter{port: b.schema}
	}
	return svc
}

// Dispatch loads aggregateID, applies cmd, appends the resulting events
// with retry-on-conflict, and synchronously projects them. It returns the
// post-command aggregate state.
func (b *CommandBus) Dispatch(ctx context.Context, aggregateID string, cmd journey.Command) (journey.Journey, error) {
	var state journey.Journey

	for attempt := 0; ; attempt++ {
		loaded, nextSeq, err := journey.Load(ctx, b.events, aggregateID)
		if err != nil {
			return journey.Journey{}, err
		}

		events, err := journey.Handle(ctx, loaded, cmd, b.services())
		if err != nil {
			return journey.Journey{}, err
		}

		metadata := map[string]interface{}{
			domain.MetadataCorrelationID: correlationID(ctx),
		}
		envelopes, err := journey.Envelopes(aggregateID, nextSeq, events, metadata)
		if err != nil {
			return journey.Journey{}, err
		}

		if err := b.events.Append(ctx, journey.AggregateType, aggregateID, envelopes, nextSeq); err != nil {
			if err == eventstore.ErrConcurrencyConflict && attempt < MaxConcurrencyRetries {
				b.logger.Warn("concurrency conflict, retrying command",
					zap.String("aggregate_id", aggregateID), zap.Int("attempt", attempt))
				continue
			}
			return journey.Journey{}, err
		}

		state = loaded
		for _, env := range envelopes {
			state, err = journey.Apply(state, env)
			if err != nil {
				return journey.Journey{}, err
			}
		}

		if err := b.dispatcher.Dispatch(ctx, envelopes); err != nil {
			return state, domain.NewStorageError(err)
		}
		return state, nil
	}
}

func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok && v != "" {
		return v
	}
	return time.Now().UTC().Format("20060102T150405.000000000Z")
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation id to ctx for CommandBus to
// stamp onto the events it appends.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}
