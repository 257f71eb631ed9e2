package transform

import (
	"math"
	"strings"
	"time"

	strip "github.com/grokify/html-strip-tags-go"

	"service-orchestrator/internal/common/templates"
	"service-orchestrator/internal/common/utils"
)

// epochLayout is the rendered form of epoch-second timestamps.
const epochLayout = "2006-01-02 15:04:05"

// MapFields projects one source object into a new object per the field
// specs. Derivation never fails: missing sources become defaults or
// empty strings, and coercions degrade instead of erroring.
func MapFields(source map[string]interface{}, fields map[string]*FieldSpec) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for key, spec := range fields {
		out[key] = deriveField(source, spec)
	}
	return out
}

func deriveField(source map[string]interface{}, spec *FieldSpec) interface{} {
	var value interface{}

	switch spec.Kind {
	case FieldConstant:
		value = spec.Constant
	case FieldTemplate:
		value = templates.Render(spec.Template, source, templates.MissingEmpty)
	case FieldFrom:
		if strings.Contains(spec.From, ".") {
			value = ResolvePath(source, spec.From)
		} else {
			value = source[spec.From]
		}
		if value == nil && spec.HasDef {
			value = spec.Default
		}
	}

	if value == nil {
		value = ""
	}

	return applyCoercions(value, spec)
}

// applyCoercions runs the typed coercions in their fixed order:
// strip_html, epoch, to_int, to_string.
func applyCoercions(value interface{}, spec *FieldSpec) interface{} {
	if spec.StripHTML {
		if s, ok := value.(string); ok {
			value = strip.StripTags(s)
		}
	}

	if spec.Epoch {
		value = epochToString(value)
	}

	if spec.ToInt {
		value = toIntBestEffort(value)
	}

	if spec.ToString {
		value = utils.Stringify(value)
	}

	return value
}

// epochToString renders positive epoch seconds as a timestamp string.
// Non-numeric, non-positive or out-of-range inputs become the empty
// string.
func epochToString(value interface{}) interface{} {
	seconds, err := utils.ToFloat64(value)
	if err != nil || seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	if seconds > math.MaxInt64/2 {
		return ""
	}

	return time.Unix(int64(seconds), 0).UTC().Format(epochLayout)
}

// toIntBestEffort truncates numbers and numeric strings to an integer,
// leaving the value unchanged when it cannot be parsed.
func toIntBestEffort(value interface{}) interface{} {
	f, err := utils.ToFloat64(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	return int(f)
}
