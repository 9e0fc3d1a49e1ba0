package agent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/service/persona"
)

//go:embed prompt/system.md
var systemPromptRaw string

//go:embed prompt/keywords.md
var keywordsPrompt string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

// Limits applied when serializing candidates into the grounding prompt
const (
	promptCandidateLimit  = 3
	promptKeywordLimit    = 5
	promptIngredientLimit = 3
)

// buildSystemPrompt renders the unified agent prompt, optionally grounded
// with ranked candidates for the second completion call.
func buildSystemPrompt(p persona.Persona, restaurant *model.RestaurantProfile, candidates []model.MenuItem) (string, error) {
	cuisine := "diverse"
	if len(restaurant.CuisineTags) > 0 {
		cuisine = strings.Join(restaurant.CuisineTags, ", ")
	}
	service := "casual"
	if len(restaurant.ServiceStyle) > 0 {
		service = strings.Join(restaurant.ServiceStyle, ", ")
	}
	priceLevel := "varies"
	if restaurant.PriceLevel != "" {
		priceLevel = string(restaurant.PriceLevel)
	}

	candidatesJSON := ""
	if len(candidates) > 0 {
		raw, err := json.MarshalIndent(candidatePrompts(candidates), "", "  ")
		if err != nil {
			return "", goerr.Wrap(err, "failed to marshal candidates")
		}
		candidatesJSON = string(raw)
	}

	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, map[string]any{
		"ServiceStyle":   service,
		"CuisineTags":    cuisine,
		"PriceLevel":     priceLevel,
		"SummaryText":    restaurant.SummaryText,
		"PersonaContext": p.SystemPrompt,
		"CandidatesJSON": candidatesJSON,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt")
	}

	return buf.String(), nil
}

type candidatePrompt struct {
	Name        string   `json:"name"`
	Price       string   `json:"price,omitempty"`
	Keywords    []string `json:"keywords"`
	Allergens   []string `json:"allergens"`
	Ingredients []string `json:"ingredients"`
}

func candidatePrompts(candidates []model.MenuItem) []candidatePrompt {
	if len(candidates) > promptCandidateLimit {
		candidates = candidates[:promptCandidateLimit]
	}

	out := make([]candidatePrompt, 0, len(candidates))
	for _, item := range candidates {
		out = append(out, candidatePrompt{
			Name:        item.Name,
			Price:       item.Price,
			Keywords:    headOf(item.Keywords, promptKeywordLimit),
			Allergens:   item.Allergens,
			Ingredients: headOf(item.Ingredients, promptIngredientLimit),
		})
	}
	return out
}

func headOf(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
