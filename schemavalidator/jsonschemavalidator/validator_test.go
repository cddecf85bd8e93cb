package jsonschemavalidator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"passengers": {
			"type": "object",
			"properties": {
				"total": { "type": "integer", "minimum": 1 }
			},
			"required": ["total"]
		}
	},
	"required": ["passengers"]
}`

func TestValidator_AcceptsMatchingPayload(t *testing.T) {
	v, err := New(json.RawMessage(testSchema))
	require.NoError(t, err)

	err = v.Validate(context.Background(), json.RawMessage(`{"passengers":{"total":2}}`))
	assert.NoError(t, err)
}

func TestValidator_RejectsMissingRequiredField(t *testing.T) {
	v, err := New(json.RawMessage(testSchema))
	require.NoError(t, err)

	err = v.Validate(context.Background(), json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestValidator_RejectsZeroPassengers(t *testing.T) {
	v, err := New(json.RawMessage(testSchema))
	require.NoError(t, err)

	err = v.Validate(context.Background(), json.RawMessage(`{"passengers":{"total":0}}`))
	assert.Error(t, err)
}

func TestValidator_RejectsMalformedPayload(t *testing.T) {
	v, err := New(json.RawMessage(testSchema))
	require.NoError(t, err)

	err = v.Validate(context.Background(), json.RawMessage(`not json`))
	assert.Error(t, err)
}
