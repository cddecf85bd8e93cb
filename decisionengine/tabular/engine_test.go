package tabular

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeydynamics/backend/decisionengine"
)

func TestEngine_DefaultSuggestsForm3WhenFirstNamePresent(t *testing.T) {
	engine := Default()
	decision, err := engine.Evaluate(context.Background(), decisionengine.Context{
		Step: "step-1",
		Data: json.RawMessage(`{"first_name":"Alice"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"form_3"}, decision.SuggestedActions)
}

func TestEngine_DefaultSuggestsForm4ForSection2Step(t *testing.T) {
	engine := Default()
	decision, err := engine.Evaluate(context.Background(), decisionengine.Context{
		Step: "form_section_2_details",
		Data: json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"form_4"}, decision.SuggestedActions)
}

func TestEngine_DefaultNoMatch(t *testing.T) {
	engine := Default()
	decision, err := engine.Evaluate(context.Background(), decisionengine.Context{
		Step: "step-1",
		Data: json.RawMessage(`{"email":"user@example.com"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, decision.SuggestedActions)
}

func TestEngine_FirstNameRuleTakesPrecedence(t *testing.T) {
	engine := Default()
	decision, err := engine.Evaluate(context.Background(), decisionengine.Context{
		Step: "form_section_2",
		Data: json.RawMessage(`{"first_name":"Bob"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"form_3"}, decision.SuggestedActions)
}

func TestEngine_AccumulatedDataFeedsPredicate(t *testing.T) {
	engine := Default()
	decision, err := engine.Evaluate(context.Background(), decisionengine.Context{
		Step:            "step-2",
		AccumulatedData: json.RawMessage(`{"first_name":"Alice"}`),
		Data:            json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"form_3"}, decision.SuggestedActions)
}
