// Package journey implements the Journey aggregate: a pure command/event
// fold with no dependency on any persistence or transport technology.
package journey

import "encoding/json"

// AggregateType identifies this aggregate's stream in the event store.
const AggregateType = "Journey"

// State is the lifecycle phase of a journey.
type State string

const (
	StateUnstarted State = ""
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
)

// WorkflowDecision is the most recent suggestion produced by the decision
// engine, folded into the aggregate so later commands can consult it.
type WorkflowDecision struct {
	SuggestedActions []string `json:"suggested_actions"`
}

// Journey is the in-memory aggregate state. It is rebuilt by replaying
// events through Apply; nothing here is persisted directly.
type Journey struct {
	ID                      string
	State                   State
	AccumulatedData         json.RawMessage
	CurrentStep             *string
	LatestWorkflowDecision  *WorkflowDecision
}

// New returns a fresh, unstarted journey ready to be folded from sequence 0.
func New() Journey {
	return Journey{AccumulatedData: json.RawMessage(`{}`)}
}

func (j Journey) started() bool {
	return j.ID != ""
}
