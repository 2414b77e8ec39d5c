// Package language normalizes the configured content language into a
// display name suitable for prompt templates.
package language

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const fallback = "English"

// DisplayName resolves a language setting to its English display name.
// Accepted inputs are BCP 47 tags ("en", "pt-BR"), bare ISO codes, or a
// plain language word ("english"). Unrecognized values fall back to the
// title-cased input so a niche language still reaches the prompt verbatim.
func DisplayName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}

	if tag, err := language.Parse(value); err == nil {
		if name := display.English.Languages().Name(tag); name != "" && !strings.EqualFold(name, "unknown language") {
			return name
		}
	}

	return cases.Title(language.English).String(strings.ToLower(value))
}
