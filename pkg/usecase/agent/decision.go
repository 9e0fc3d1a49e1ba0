package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/utils/jsonx"
)

// fallbackReply is used when stripping leaves no conversational text
const fallbackReply = "Nasıl yardımcı olabilirim?"

// normalizeDecision turns a raw completion response into a Decision and
// the reply text that surrounds it. The extractor guarantees syntactic
// validity only; an unexpected shape always degrades to ASK, because
// granting menu access or finalizing an order on a misparse is the
// costlier failure.
func normalizeDecision(raw string) (model.Decision, string) {
	decision := model.DefaultDecision("fallback")

	if payload, ok := jsonx.Extract(raw); ok {
		decision = decodeDecision(payload)
	}

	reply := jsonx.Strip(raw)
	if reply == "" {
		reply = fallbackReply
	}

	return decision, reply
}

func decodeDecision(payload string) model.Decision {
	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return model.DefaultDecision("fallback")
	}

	switch v := parsed.(type) {
	case map[string]any:
		return decisionFromMap(v)

	case []any:
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				return decisionFromMap(m)
			}
		}
		return classifySequence(v)

	default:
		return model.DefaultDecision("fallback")
	}
}

func decisionFromMap(m map[string]any) model.Decision {
	raw, err := json.Marshal(m)
	if err != nil {
		return model.DefaultDecision("fallback")
	}

	var decision model.Decision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return model.DefaultDecision("fallback")
	}

	if decision.Action == "" {
		decision.Action = model.ActionAsk
	}
	if !decision.Action.Valid() {
		return model.DefaultDecision("unknown_action")
	}

	return decision
}

// classifySequence handles responses like ["allergy_or_diet"]: a bare
// array with no decision object. The flattened text is matched against a
// small vocabulary so the clarifying question can at least be on topic.
func classifySequence(seq []any) model.Decision {
	text := strings.ToLower(fmt.Sprint(seq...))

	switch {
	case containsAny(text, "allergy", "diet", "preference"):
		return model.DefaultDecision("clarify_diet_allergy")
	case containsAny(text, "drink", "beverage"):
		return model.DefaultDecision("clarify_drink")
	case containsAny(text, "side", "accompaniment"):
		return model.DefaultDecision("clarify_side")
	default:
		return model.DefaultDecision("general_clarification")
	}
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
