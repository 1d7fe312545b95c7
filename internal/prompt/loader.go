package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Conceptual-Machines/bidrohi/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// Style fixes the persona and formatting rules of the generated poem
type Style struct {
	Name         string   `yaml:"name"`
	Persona      string   `yaml:"persona"`
	RulesHeading string   `yaml:"rules_heading"`
	Rules        []string `yaml:"rules"`
	Instructions string   `yaml:"instructions"`
	ExampleLines []string `yaml:"example_lines"`
	SeedIntro    string   `yaml:"seed_intro"`
}

// Loader reads a Style from a YAML file, or from the embedded default
type Loader struct {
	path string
}

// NewPromptLoader returns a loader; an empty path selects the embedded style
func NewPromptLoader(path string) *Loader {
	return &Loader{path: path}
}

// LoadStyle parses and validates the style definition
func (l *Loader) LoadStyle() (*Style, error) {
	raw := embedded.NazrulStyleYAML
	source := "embedded"
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt style %s: %w", l.path, err)
		}
		raw = data
		source = l.path
	}

	var style Style
	if err := yaml.Unmarshal(raw, &style); err != nil {
		return nil, fmt.Errorf("failed to parse prompt style %s: %w", source, err)
	}
	if err := style.validate(); err != nil {
		return nil, fmt.Errorf("invalid prompt style %s: %w", source, err)
	}
	return &style, nil
}

func (s *Style) validate() error {
	if strings.TrimSpace(s.Persona) == "" {
		return errors.New("persona is required")
	}
	if len(s.Rules) == 0 {
		return errors.New("at least one rule is required")
	}
	if strings.TrimSpace(s.SeedIntro) == "" {
		return errors.New("seed_intro is required")
	}
	return nil
}
