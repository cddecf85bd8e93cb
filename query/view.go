// Package query implements the read-side API over the projected tables
// (component H), grounded on fastygo-backend's usecase/task and
// usecase/profile read methods (thin pass-through over a repository),
// generalized here to join across three projected tables.
package query

import (
	"encoding/json"
	"time"
)

// JourneyView is the merged, query-facing read model for a single journey.
type JourneyView struct {
	JourneyID              string                  `json:"journey_id"`
	State                  string                  `json:"state"`
	AccumulatedData        json.RawMessage         `json:"accumulated_data"`
	CurrentStep            *string                 `json:"current_step,omitempty"`
	LatestWorkflowDecision *WorkflowDecisionView   `json:"latest_workflow_decision,omitempty"`
	Person                 *PersonView             `json:"person,omitempty"`
	Version                int64                   `json:"version"`
	CreatedAt              time.Time               `json:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
}

// WorkflowDecisionView is the latest decision-engine suggestion for a journey.
type WorkflowDecisionView struct {
	SuggestedActions []string `json:"suggested_actions"`
	PrimaryNextStep  *string  `json:"primary_next_step,omitempty"`
}

// PersonView is the captured contact details for a journey, if any.
type PersonView struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// DataCaptureEntry is one row of the supplemental per-step audit trail.
type DataCaptureEntry struct {
	Sequence  int64           `json:"sequence"`
	Step      string          `json:"step"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}
