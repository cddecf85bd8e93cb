// Package jsonschemavalidator implements schemavalidator.Port with
// github.com/google/jsonschema-go, the JSON Schema validator already
// present in the retrieval pack (pulled transitively by
// louisbranch-fracturing.space's MCP SDK dependency) and promoted here to a
// direct dependency since it is exactly what component E calls for.
package jsonschemavalidator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validator validates Capture payloads against a single compiled schema
// document, shared across every Capture command regardless of step —
// matching the original aggregate's single schema_validator() service.
type Validator struct {
	resolved *jsonschema.Resolved
}

// New compiles schemaDoc (a raw JSON Schema document) once at construction
// time; Validate reuses the compiled form for every call.
func New(schemaDoc json.RawMessage) (*Validator, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaDoc, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	return &Validator{resolved: resolved}, nil
}

// Validate implements schemavalidator.Port.
func (v *Validator) Validate(ctx context.Context, data json.RawMessage) error {
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	if err := v.resolved.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
