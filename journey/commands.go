package journey

import "encoding/json"

// Command is the marker interface implemented by every journey command.
type Command interface {
	commandName() string
}

// Start opens a new journey under the given aggregate id.
type Start struct {
	ID string
}

// Capture submits form data for a step and folds it into the journey,
// invoking the schema validator and decision engine in the process.
type Capture struct {
	Step string
	Data json.RawMessage
}

// CapturePerson records or overwrites the journey's contact details.
type CapturePerson struct {
	Name  string
	Email string
	Phone *string
}

// Complete closes a journey. No further Capture/CapturePerson commands are
// accepted afterwards.
type Complete struct{}

func (Start) commandName() string         { return "Start" }
func (Capture) commandName() string       { return "Capture" }
func (CapturePerson) commandName() string { return "CapturePerson" }
func (Complete) commandName() string      { return "Complete" }
