package rank

import (
	"strings"

	"github.com/m-mizutani/parlaplate/pkg/model"
)

// DietExclusions maps a diet tag to the terms that disqualify an item when
// they appear in its combined name/keyword/ingredient text. This is a
// deliberately conservative textual heuristic, not a guarantee of dietary
// safety.
var DietExclusions = map[string][]string{
	"vegetarian": {"chicken", "beef", "lamb", "fish", "seafood", "turkey", "pork"},
	"vegan": {
		"chicken", "beef", "lamb", "fish", "seafood", "turkey", "pork",
		"cheese", "milk", "cream", "butter",
	},
}

// keepMask returns one bool per item: false means the item violates a hard
// constraint and must never surface, regardless of similarity.
func keepMask(items []model.MenuItem, c model.Constraints) []bool {
	mask := make([]bool, len(items))

	for i := range items {
		item := &items[i]

		if item.HasAllergen(c.AvoidAllergens) {
			continue
		}

		excluded := false
		if len(c.Diet) > 0 {
			text := item.SearchText()
			for _, diet := range c.Diet {
				for _, term := range DietExclusions[strings.ToLower(diet)] {
					if strings.Contains(text, term) {
						excluded = true
						break
					}
				}
				if excluded {
					break
				}
			}
		}

		mask[i] = !excluded
	}

	return mask
}
