package generation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var builtinPrompts []byte

// PromptTemplate is a system/user prompt pair with {{placeholder}} slots.
type PromptTemplate struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// PromptSet holds the templates for every generation operation.
type PromptSet struct {
	Titles      PromptTemplate `yaml:"titles"`
	Hooks       PromptTemplate `yaml:"hooks"`
	Script      PromptTemplate `yaml:"script"`
	Description PromptTemplate `yaml:"description"`
	Tags        PromptTemplate `yaml:"tags"`
	Choose      PromptTemplate `yaml:"choose"`
}

// LoadPrompts returns the built-in prompt set, overlaid with any templates
// found at overridePath (empty path skips the overlay). Overrides replace
// whole entries; a partially specified entry keeps the built-in half.
func LoadPrompts(overridePath string) (PromptSet, error) {
	var prompts PromptSet
	if err := yaml.Unmarshal(builtinPrompts, &prompts); err != nil {
		return prompts, fmt.Errorf("parse built-in prompts: %w", err)
	}

	overridePath = strings.TrimSpace(overridePath)
	if overridePath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return prompts, fmt.Errorf("read prompt overrides: %w", err)
	}
	var overrides PromptSet
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("parse prompt overrides %s: %w", overridePath, err)
	}

	merge := func(dst *PromptTemplate, src PromptTemplate) {
		if strings.TrimSpace(src.System) != "" {
			dst.System = src.System
		}
		if strings.TrimSpace(src.User) != "" {
			dst.User = src.User
		}
	}
	merge(&prompts.Titles, overrides.Titles)
	merge(&prompts.Hooks, overrides.Hooks)
	merge(&prompts.Script, overrides.Script)
	merge(&prompts.Description, overrides.Description)
	merge(&prompts.Tags, overrides.Tags)
	merge(&prompts.Choose, overrides.Choose)

	return prompts, nil
}

// Render substitutes {{key}} placeholders in both halves of the template.
func (t PromptTemplate) Render(vars map[string]string) (system, user string) {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace(t.System), replacer.Replace(t.User)
}
