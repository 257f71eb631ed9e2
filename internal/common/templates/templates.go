// Package templates provides {placeholder} string rendering with an
// explicit missing-key policy.
package templates

import (
	"regexp"
	"strings"

	"service-orchestrator/internal/common/utils"
)

// placeholderRegex matches {name} patterns. Placeholders with a dot in
// them (step references) are intentionally excluded; those are handled
// by the orchestrator's reference resolver.
var placeholderRegex = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// MissingKeyPolicy decides what an unresolvable placeholder renders as.
type MissingKeyPolicy int

const (
	// MissingEmpty substitutes the empty string for unknown placeholders.
	MissingEmpty MissingKeyPolicy = iota
	// MissingKeep leaves the literal {name} text in place.
	MissingKeep
)

// Render fills {name} placeholders in template from vars.
func Render(template string, vars map[string]interface{}, policy MissingKeyPolicy) string {
	if !strings.Contains(template, "{") {
		return template
	}

	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "{"), "}")

		value, found := vars[name]
		if !found {
			if policy == MissingKeep {
				return match
			}
			return ""
		}

		return utils.Stringify(value)
	})
}

// HasPlaceholders reports whether template contains at least one
// {name} placeholder.
func HasPlaceholders(template string) bool {
	return placeholderRegex.MatchString(template)
}
