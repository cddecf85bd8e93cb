package transport

import "encoding/json"

// CommandRequest is the discriminated body accepted by the journey command
// endpoint. Type selects which journey.Command the handler builds; the
// remaining fields are interpreted according to Type and left zero
// otherwise.
type CommandRequest struct {
	Type  string          `json:"type"`
	Step  string          `json:"step,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email,omitempty"`
	Phone *string         `json:"phone,omitempty"`
}

// StartRequest creates a new journey under a caller-chosen id.
type StartRequest struct {
	ID string `json:"id"`
}
