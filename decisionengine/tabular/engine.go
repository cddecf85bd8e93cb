// Package tabular implements decisionengine.Port as a deterministic
// rule-table evaluator: an ordered list of (predicate, suggested actions)
// rules, the first match wins. Grounded on the declarative rule-table
// matcher in mb0-daql's pol.Rules (subject/action lookup generalized here
// to accumulated-data/step lookup), since no real Go JDM or rule-graph
// library exists in the retrieval pack to wire instead.
package tabular

import (
	"context"
	"encoding/json"

	"github.com/journeydynamics/backend/decisionengine"
)

// Predicate inspects the combined data captured so far (every prior step's
// payload plus the step currently being submitted) and reports whether its
// rule applies.
type Predicate func(combined map[string]interface{}) bool

// Rule is one row of the table: if Predicate matches, SuggestedActions is
// the engine's verdict and evaluation stops.
type Rule struct {
	Name             string
	Predicate        Predicate
	SuggestedActions []string
}

// Engine evaluates an ordered Rule table. The zero value has no rules and
// always returns an empty decision.
type Engine struct {
	Rules []Rule
}

// New builds an Engine with the given rule table, evaluated top to bottom.
func New(rules ...Rule) *Engine {
	return &Engine{Rules: rules}
}

// Default mirrors the original reference engine: a journey whose combined
// data carries a "first_name" key is routed to form_3; otherwise, if any
// step name contains "section_2", it is routed to form_4; otherwise no
// action is suggested.
func Default() *Engine {
	return New(
		Rule{
			Name: "has_first_name",
			Predicate: func(combined map[string]interface{}) bool {
				_, ok := combined["first_name"]
				return ok
			},
			SuggestedActions: []string{"form_3"},
		},
		Rule{
			Name: "section_2_step",
			Predicate: func(combined map[string]interface{}) bool {
				step, _ := combined["__step__"].(string)
				return containsSection2(step)
			},
			SuggestedActions: []string{"form_4"},
		},
	)
}

func containsSection2(step string) bool {
	const needle = "section_2"
	if len(step) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(step); i++ {
		if step[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// Evaluate implements decisionengine.Port.
func (e *Engine) Evaluate(ctx context.Context, dc decisionengine.Context) (decisionengine.Decision, error) {
	combined := map[string]interface{}{}

	var accumulated map[string]interface{}
	if len(dc.AccumulatedData) > 0 {
		_ = json.Unmarshal(dc.AccumulatedData, &accumulated)
		for k, v := range accumulated {
			combined[k] = v
		}
	}

	var stepData map[string]interface{}
	if len(dc.Data) > 0 {
		_ = json.Unmarshal(dc.Data, &stepData)
		for k, v := range stepData {
			combined[k] = v
		}
	}
	combined["__step__"] = dc.Step

	for _, rule := range e.Rules {
		if rule.Predicate(combined) {
			return decisionengine.Decision{SuggestedActions: rule.SuggestedActions}, nil
		}
	}
	return decisionengine.Decision{SuggestedActions: []string{}}, nil
}

var _ decisionengine.Port = (*Engine)(nil)
