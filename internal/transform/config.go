// Package transform implements the declarative response transform: a
// fixed pipeline of extract, first, fields, filter, sort, limit and
// wrap stages driven entirely by configuration. Every stage degrades
// gracefully; a transform never raises past its caller.
package transform

import (
	"encoding/json"
	"fmt"

	"service-orchestrator/internal/common/errors"
)

// Config shapes one step's response. Each stage runs only when its key
// is present in the configuration.
type Config struct {
	Extract *ExtractSpec          `json:"extract,omitempty"`
	First   bool                  `json:"first,omitempty"`
	Fields  map[string]*FieldSpec `json:"fields,omitempty"`
	Filter  ConditionList         `json:"filter,omitempty"`
	Sort    *SortSpec             `json:"sort,omitempty"`
	Limit   *int                  `json:"limit,omitempty"`
	Wrap    WrapSpec              `json:"wrap,omitempty"`
}

// ExtractSpec addresses a value inside the raw response: either a
// dotted/bracketed path string or a bare integer index into a
// top-level array.
type ExtractSpec struct {
	Path  string
	Index int
	IsInt bool
}

// UnmarshalJSON accepts "documents.items", "body.rows[0].title" or 2.
func (e *ExtractSpec) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		e.Path = path
		return nil
	}

	var index int
	if err := json.Unmarshal(data, &index); err == nil {
		e.Index = index
		e.IsInt = true
		return nil
	}

	return errors.ConfigError(fmt.Sprintf("extract must be a path string or integer index, got %s", string(data)))
}

// FieldKind identifies which derivation a FieldSpec uses.
type FieldKind int

const (
	// FieldFrom reads a source field, optionally through a dot path.
	FieldFrom FieldKind = iota
	// FieldConstant emits a literal value.
	FieldConstant
	// FieldTemplate fills a {placeholder} template against the source object.
	FieldTemplate
)

// FieldSpec derives one output field. Exactly one of the three kinds
// applies; coercions run afterwards in a fixed order.
type FieldSpec struct {
	Kind     FieldKind
	Constant interface{}
	Template string
	From     string
	Default  interface{}
	HasDef   bool

	StripHTML bool
	Epoch     bool
	ToInt     bool
	ToString  bool
}

// fieldSpecJSON is the on-disk object shape of a FieldSpec.
type fieldSpecJSON struct {
	Value     interface{} `json:"value,omitempty"`
	Template  string      `json:"template,omitempty"`
	From      string      `json:"from,omitempty"`
	Default   interface{} `json:"default,omitempty"`
	StripHTML bool        `json:"strip_html,omitempty"`
	Epoch     bool        `json:"epoch,omitempty"`
	ToInt     bool        `json:"to_int,omitempty"`
	ToString  bool        `json:"to_string,omitempty"`
}

// UnmarshalJSON decodes the loosely-typed configuration into a closed
// variant set. A bare string is shorthand for {"from": string}.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var from string
	if err := json.Unmarshal(data, &from); err == nil {
		f.Kind = FieldFrom
		f.From = from
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.ConfigError(fmt.Sprintf("field spec must be a string or object, got %s", string(data)))
	}

	var obj fieldSpecJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.ConfigError(fmt.Sprintf("invalid field spec: %v", err))
	}

	switch {
	case hasKey(raw, "value"):
		f.Kind = FieldConstant
		f.Constant = obj.Value
	case obj.Template != "":
		f.Kind = FieldTemplate
		f.Template = obj.Template
	case obj.From != "":
		f.Kind = FieldFrom
		f.From = obj.From
	default:
		return errors.ConfigError(fmt.Sprintf("field spec needs one of value, template or from: %s", string(data)))
	}

	f.HasDef = hasKey(raw, "default")
	f.Default = obj.Default
	f.StripHTML = obj.StripHTML
	f.Epoch = obj.Epoch
	f.ToInt = obj.ToInt
	f.ToString = obj.ToString
	return nil
}

func hasKey(raw map[string]json.RawMessage, key string) bool {
	_, ok := raw[key]
	return ok
}

// Condition is one filter predicate evaluated against one record.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// ConditionList accepts either a single condition object or a list of
// them; a single condition is a one-element list.
type ConditionList []*Condition

// UnmarshalJSON normalizes the single-or-list filter shapes.
func (c *ConditionList) UnmarshalJSON(data []byte) error {
	var list []*Condition
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}

	var single Condition
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.ConfigError(fmt.Sprintf("filter must be a condition or list of conditions: %v", err))
	}

	*c = ConditionList{&single}
	return nil
}

// SortSpec orders an array by one field.
type SortSpec struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"` // asc (default) or desc
	Type  string `json:"type,omitempty"`  // text (default) or number
}

// Validate checks the stages that carry constraints. Called once at
// pipeline decode time so execution never sees a malformed config.
func (c *Config) Validate() error {
	for _, cond := range c.Filter {
		if cond.Field == "" {
			return errors.ConfigError("filter condition requires field")
		}
		if !isKnownOperator(cond.Operator) {
			return errors.ConfigError(fmt.Sprintf("unknown filter operator %q", cond.Operator))
		}
	}

	if c.Sort != nil {
		if c.Sort.Field == "" {
			return errors.ConfigError("sort requires field")
		}
		switch c.Sort.Order {
		case "", "asc", "desc":
		default:
			return errors.ConfigError(fmt.Sprintf("sort order must be asc or desc, got %q", c.Sort.Order))
		}
		switch c.Sort.Type {
		case "", "text", "number":
		default:
			return errors.ConfigError(fmt.Sprintf("sort type must be text or number, got %q", c.Sort.Type))
		}
	}

	if c.Limit != nil && *c.Limit < 0 {
		return errors.ConfigError("limit must be non-negative")
	}

	return nil
}
