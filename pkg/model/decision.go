package model

// Action is the per-turn classification produced by the conversational core
type Action string

const (
	ActionAsk       Action = "ASK"
	ActionLookup    Action = "LOOKUP"
	ActionRecommend Action = "RECOMMEND"
	ActionRefine    Action = "REFINE"
	ActionFinalize  Action = "FINALIZE"
)

// NeedsMenu reports whether the action requires menu grounding. Menu access
// is additionally gated on the local intent signal; the model's claim alone
// is never sufficient.
func (a Action) NeedsMenu() bool {
	switch a {
	case ActionLookup, ActionRecommend, ActionRefine:
		return true
	default:
		return false
	}
}

// Valid reports whether the action is one of the known values
func (a Action) Valid() bool {
	switch a {
	case ActionAsk, ActionLookup, ActionRecommend, ActionRefine, ActionFinalize:
		return true
	default:
		return false
	}
}

// Decision is produced fresh each turn from the first completion call.
// It is never carried across turns except implicitly via history.
type Decision struct {
	Action      Action   `json:"action"`
	IntentClear bool     `json:"intent_clear"`
	NeedSlots   []string `json:"need_slots,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Items       []string `json:"items,omitempty"`
}

// DefaultDecision is the conservative fallback used whenever the model
// output cannot be parsed into a usable decision.
func DefaultDecision(notes string) Decision {
	return Decision{
		Action:      ActionAsk,
		IntentClear: false,
		Notes:       notes,
	}
}
