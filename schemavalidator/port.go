// Package schemavalidator defines the capability interface the Journey
// aggregate calls into when a Capture command submits step data (component
// E). The default implementation in ./jsonschemavalidator wraps
// github.com/google/jsonschema-go.
package schemavalidator

import (
	"context"
	"encoding/json"
)

// Port validates the document a Capture command would produce (the
// journey's accumulated data with the command's payload merged in) against
// whatever schema the implementation was constructed with. A non-nil error
// means the capture is rejected; the aggregate wraps it as
// domain.NewSchemaValidationFailed.
type Port interface {
	Validate(ctx context.Context, data json.RawMessage) error
}
