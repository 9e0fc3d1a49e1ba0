package model

// Constraints are the caller-supplied dietary and price preferences for a
// single candidate lookup. They are never persisted.
//
// Diet and AvoidAllergens are hard constraints: matching items are excluded
// outright. PricePreference is a soft preference that only re-weights
// similarity scores.
type Constraints struct {
	Diet            []string
	AvoidAllergens  []string
	PricePreference PriceLevel
}

// Empty reports whether no constraint is set
func (c *Constraints) Empty() bool {
	return len(c.Diet) == 0 && len(c.AvoidAllergens) == 0 && c.PricePreference == ""
}
