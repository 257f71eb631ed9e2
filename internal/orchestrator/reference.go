package orchestrator

import (
	"encoding/json"
	"regexp"

	"service-orchestrator/internal/common/utils"
)

// referenceRegex matches {step_id.field} placeholders. The dot is what
// separates these from plain {name} template placeholders.
var referenceRegex = regexp.MustCompile(`\{(\w+)\.(\w+)\}`)

// resultSentinel addresses a prior step's entire output.
const resultSentinel = "_result"

// ResolveReferences substitutes {step_id.field} placeholders in a
// value, recursing through maps and slices. Unknown step ids stay as
// literal text; missing fields on a known step become empty strings.
func ResolveReferences(value interface{}, outputs map[string]interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return resolveString(v, outputs)
	case map[string]interface{}:
		resolved := make(map[string]interface{}, len(v))
		for key, item := range v {
			resolved[key] = ResolveReferences(item, outputs)
		}
		return resolved
	case []interface{}:
		resolved := make([]interface{}, len(v))
		for i, item := range v {
			resolved[i] = ResolveReferences(item, outputs)
		}
		return resolved
	default:
		return value
	}
}

// ResolveReferenceString is the string form of ResolveReferences, used
// for headers and endpoint templates.
func ResolveReferenceString(s string, outputs map[string]interface{}) string {
	return resolveString(s, outputs)
}

func resolveString(s string, outputs map[string]interface{}) string {
	if len(outputs) == 0 || !referenceRegex.MatchString(s) {
		return s
	}

	return referenceRegex.ReplaceAllStringFunc(s, func(match string) string {
		parts := referenceRegex.FindStringSubmatch(match)
		stepID, field := parts[1], parts[2]

		output, known := outputs[stepID]
		if !known {
			return match
		}

		if field == resultSentinel {
			return utils.Stringify(output)
		}

		obj, ok := output.(map[string]interface{})
		if !ok {
			return ""
		}
		return utils.Stringify(obj[field])
	})
}

// HasReferences reports whether any step's configuration contains a
// reference placeholder. The orchestrator uses this pre-execution scan
// to force sequential mode: a referencing step needs its predecessors'
// outputs, which parallel execution never provides.
func HasReferences(steps []*PipelineStep) bool {
	serialized, err := json.Marshal(steps)
	if err != nil {
		// Unserializable configs cannot be executed in parallel safely
		// either; sequential is the conservative answer.
		return true
	}
	return referenceRegex.Match(serialized)
}
