// Package decisionengine defines the capability interface the Journey
// aggregate calls into when a Capture command needs to know which steps to
// suggest next (component D). The concrete JDM/rule-graph evaluator is an
// external capability out of scope here; this package only defines the
// contract plus a deterministic reference implementation in ./tabular.
package decisionengine

import (
	"context"
	"encoding/json"
)

// Context carries everything a Port implementation needs to evaluate the
// next suggested steps. AccumulatedData is the journey's merged data from
// before the current step's payload is folded in.
type Context struct {
	JourneyID       string
	CurrentStep     *string
	AccumulatedData json.RawMessage
	Step            string
	Data            json.RawMessage
}

// Decision is a Port's verdict: zero or more suggested next steps, and an
// optional primary recommendation among them.
type Decision struct {
	SuggestedActions []string
	PrimaryNextStep  *string
}

// Port is the capability the journey aggregate's Capture handler depends
// on. Implementations must be deterministic for a given Context: the
// aggregate has no other source of truth for what it decided.
type Port interface {
	Evaluate(ctx context.Context, dc Context) (Decision, error)
}
