// Package persona holds the waitress persona definitions. Personas are
// static configuration shipped with the binary.
package persona

import (
	_ "embed"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var personasRaw []byte

var ErrUnknownPersona = goerr.New("unknown persona")

// DefaultID is used when the caller does not pick a persona
const DefaultID = "ayla"

// Persona is one waitress character with its system prompt
type Persona struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Emoji        string `yaml:"emoji"`
	Summary      string `yaml:"summary"`
	SystemPrompt string `yaml:"system_prompt"`
}

var registry map[string]Persona

func init() {
	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(personasRaw, &doc); err != nil {
		panic("failed to parse embedded personas: " + err.Error())
	}

	registry = make(map[string]Persona, len(doc.Personas))
	for _, p := range doc.Personas {
		registry[p.ID] = p
	}
}

// Get returns the persona with the given ID
func Get(id string) (Persona, error) {
	p, ok := registry[id]
	if !ok {
		return Persona{}, goerr.Wrap(ErrUnknownPersona, "not registered", goerr.V("persona_id", id))
	}
	return p, nil
}

// List returns all personas ordered by ID
func List() []Persona {
	personas := make([]Persona, 0, len(registry))
	for _, p := range registry {
		personas = append(personas, p)
	}
	sort.Slice(personas, func(i, j int) bool {
		return personas[i].ID < personas[j].ID
	})
	return personas
}
