package transform

import (
	"encoding/json"
	"fmt"

	"service-orchestrator/internal/common/errors"
	"service-orchestrator/internal/common/templates"
)

// WrapKind identifies how one wrap entry computes its value.
type WrapKind int

const (
	// WrapConstant emits a literal value.
	WrapConstant WrapKind = iota
	// WrapResults emits the computed collection/value ("_results").
	WrapResults
	// WrapCount emits the collection length ("_count").
	WrapCount
	// WrapFromRoot dot-path lookup against the pre-transform raw value.
	WrapFromRoot
	// WrapTemplate fills a template against the caller's input plus _count.
	WrapTemplate
	// WrapFromInput looks a key up in the caller's original input.
	WrapFromInput
)

// WrapValue is one entry of a Wrap spec.
type WrapValue struct {
	Kind     WrapKind
	Constant interface{}
	Path     string // from_root
	Template string
	InputKey string // from_input
}

// WrapSpec builds a final output object from a computed value, the raw
// response and the caller's input.
type WrapSpec map[string]*WrapValue

// wrapValueJSON is the object form of a wrap entry.
type wrapValueJSON struct {
	FromRoot  string `json:"from_root,omitempty"`
	Template  string `json:"template,omitempty"`
	FromInput string `json:"from_input,omitempty"`
}

// UnmarshalJSON decodes a wrap entry: the sentinels "_results" and
// "_count", an object selecting from_root/template/from_input, or any
// other literal constant.
func (w *WrapValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "_results":
			w.Kind = WrapResults
		case "_count":
			w.Kind = WrapCount
		default:
			w.Kind = WrapConstant
			w.Constant = s
		}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		var obj wrapValueJSON
		if err := json.Unmarshal(data, &obj); err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid wrap entry: %v", err))
		}

		switch {
		case obj.FromRoot != "":
			w.Kind = WrapFromRoot
			w.Path = obj.FromRoot
		case obj.Template != "":
			w.Kind = WrapTemplate
			w.Template = obj.Template
		case hasKey(raw, "from_input"):
			w.Kind = WrapFromInput
			w.InputKey = obj.FromInput
		default:
			return errors.ConfigError(fmt.Sprintf("wrap entry needs one of from_root, template or from_input: %s", string(data)))
		}
		return nil
	}

	var constant interface{}
	if err := json.Unmarshal(data, &constant); err != nil {
		return errors.ConfigError(fmt.Sprintf("invalid wrap entry: %s", string(data)))
	}

	w.Kind = WrapConstant
	w.Constant = constant
	return nil
}

// BuildWrap computes the wrapped output object. results is the value
// the pipeline or merge produced, raw is the pre-transform response
// (nil when wrapping merged outcomes), input is the caller's original
// request input.
func (spec WrapSpec) BuildWrap(results, raw interface{}, input map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(spec))

	for key, entry := range spec {
		switch entry.Kind {
		case WrapConstant:
			out[key] = entry.Constant
		case WrapResults:
			out[key] = results
		case WrapCount:
			out[key] = CountOf(results)
		case WrapFromRoot:
			value := ResolvePath(raw, entry.Path)
			if value == nil {
				value = 0
			}
			out[key] = value
		case WrapTemplate:
			vars := make(map[string]interface{}, len(input)+1)
			for k, v := range input {
				vars[k] = v
			}
			vars["_count"] = CountOf(results)
			out[key] = templates.Render(entry.Template, vars, templates.MissingEmpty)
		case WrapFromInput:
			value, found := input[entry.InputKey]
			if !found || value == nil {
				value = ""
			}
			out[key] = value
		}
	}

	return out
}

// CountOf is the _count sentinel: list length for lists, otherwise 1
// for a truthy value and 0 for an empty or falsy one (nil, "", false,
// numeric zero, empty object).
func CountOf(value interface{}) int {
	switch v := value.(type) {
	case nil:
		return 0
	case []interface{}:
		return len(v)
	case string:
		if v == "" {
			return 0
		}
		return 1
	case bool:
		if !v {
			return 0
		}
		return 1
	case float64:
		if v == 0 {
			return 0
		}
		return 1
	case int:
		if v == 0 {
			return 0
		}
		return 1
	case map[string]interface{}:
		if len(v) == 0 {
			return 0
		}
		return 1
	default:
		return 1
	}
}
