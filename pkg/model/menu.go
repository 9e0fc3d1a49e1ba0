package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidMenu       = goerr.New("invalid menu")
	ErrInvalidSpiceLevel = goerr.New("invalid spice level")
)

type SpiceLevel string

const (
	SpiceLevelLow    SpiceLevel = "low"
	SpiceLevelMedium SpiceLevel = "medium"
	SpiceLevelHigh   SpiceLevel = "high"
)

// Validate checks if the spice level is valid. An empty value is allowed
// because most menus do not annotate spice at all.
func (s SpiceLevel) Validate() error {
	switch s {
	case "", SpiceLevelLow, SpiceLevelMedium, SpiceLevelHigh:
		return nil
	default:
		return goerr.Wrap(ErrInvalidSpiceLevel, "unknown value", goerr.V("spice_level", s))
	}
}

// MenuItem is a single dish extracted from a menu document. Items are
// read-only once loaded; every core component treats them as immutable.
type MenuItem struct {
	Name        string     `json:"name"`
	Price       string     `json:"price,omitempty"`
	Ingredients []string   `json:"ingredients"`
	Keywords    []string   `json:"keywords"`
	Allergens   []string   `json:"allergens"`
	Category    string     `json:"category,omitempty"`
	SpiceLevel  SpiceLevel `json:"spice_level,omitempty"`
}

// Validate checks if the menu item is well-formed
func (m *MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return goerr.Wrap(ErrInvalidMenu, "item name is empty")
	}
	if err := m.SpiceLevel.Validate(); err != nil {
		return err
	}
	return nil
}

// SearchText returns the lower-cased concatenation of name, ingredients,
// keywords and category. It is the text used both for embedding the item
// and for the diet exclusion heuristics.
func (m *MenuItem) SearchText() string {
	parts := make([]string, 0, 1+len(m.Ingredients)+len(m.Keywords)+1)
	parts = append(parts, m.Name)
	parts = append(parts, m.Ingredients...)
	parts = append(parts, m.Keywords...)
	if m.Category != "" {
		parts = append(parts, m.Category)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// HasAllergen reports whether the item declares any of the given allergens.
// Comparison is case-insensitive.
func (m *MenuItem) HasAllergen(avoid []string) bool {
	for _, a := range avoid {
		for _, own := range m.Allergens {
			if strings.EqualFold(a, own) {
				return true
			}
		}
	}
	return false
}

type PriceLevel string

const (
	PriceLevelLow    PriceLevel = "low"
	PriceLevelMedium PriceLevel = "medium"
	PriceLevelHigh   PriceLevel = "high"
)

// RestaurantProfile is the summary generated from a full menu
type RestaurantProfile struct {
	Name              string     `json:"name,omitempty"`
	DisplayName       string     `json:"display_name,omitempty"`
	CuisineTags       []string   `json:"cuisine_tags"`
	PriceLevel        PriceLevel `json:"price_level,omitempty"`
	ServiceStyle      []string   `json:"service_style"`
	DietCoverage      []string   `json:"diet_coverage"`
	PopularCategories []string   `json:"popular_categories"`
	SummaryText       string     `json:"summary_text"`
}

// Label returns the name to present to users, preferring the display name
func (r *RestaurantProfile) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unknown"
}

// Menu is a restaurant profile plus its items. The menu is owned by the
// calling session and read-only to every core component. Cache identity is
// the content hash of the item list, not the file it was loaded from.
type Menu struct {
	Restaurant RestaurantProfile `json:"restaurant"`
	Items      []MenuItem        `json:"items"`
}

// Validate checks the menu schema. This is the only hard error gate on
// session start: an unusable menu cannot be gated around.
func (m *Menu) Validate() error {
	for i := range m.Items {
		if err := m.Items[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid menu item", goerr.V("index", i))
		}
	}
	return nil
}
