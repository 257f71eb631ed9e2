package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFields(t *testing.T, raw string) map[string]*FieldSpec {
	t.Helper()
	var fields map[string]*FieldSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))
	return fields
}

func TestMapFields_Derivations(t *testing.T) {
	source := map[string]interface{}{
		"place_name": "Pasta House",
		"address": map[string]interface{}{
			"city": "Seoul",
		},
		"rating": 4.5,
	}

	fields := decodeFields(t, `{
		"name": "place_name",
		"city": {"from": "address.city"},
		"kind": {"value": "restaurant"},
		"label": {"template": "{place_name} ({rating})"},
		"phone": {"from": "tel", "default": "n/a"},
		"fax": {"from": "fax"}
	}`)

	out := MapFields(source, fields)

	assert.Equal(t, "Pasta House", out["name"])
	assert.Equal(t, "Seoul", out["city"])
	assert.Equal(t, "restaurant", out["kind"])
	assert.Equal(t, "Pasta House (4.5)", out["label"])
	assert.Equal(t, "n/a", out["phone"], "default fills a missing source field")
	assert.Equal(t, "", out["fax"], "missing field without default becomes empty string")
}

func TestMapFields_TemplateMissingPlaceholder(t *testing.T) {
	fields := decodeFields(t, `{"label": {"template": "a={a} b={b}"}}`)
	out := MapFields(map[string]interface{}{"a": "1"}, fields)
	assert.Equal(t, "a=1 b=", out["label"])
}

func TestMapFields_Coercions(t *testing.T) {
	source := map[string]interface{}{
		"desc":    "<b>bold</b> text",
		"created": float64(1700000000),
		"bad_ts":  "not-a-number",
		"neg_ts":  float64(-5),
		"price":   "19.99",
		"word":    "abc",
		"count":   float64(7),
	}

	fields := decodeFields(t, `{
		"desc":    {"from": "desc", "strip_html": true},
		"created": {"from": "created", "epoch": true},
		"bad_ts":  {"from": "bad_ts", "epoch": true},
		"neg_ts":  {"from": "neg_ts", "epoch": true},
		"price":   {"from": "price", "to_int": true},
		"word":    {"from": "word", "to_int": true},
		"count":   {"from": "count", "to_string": true}
	}`)

	out := MapFields(source, fields)

	assert.Equal(t, "bold text", out["desc"])
	assert.Equal(t, "2023-11-14 22:13:20", out["created"])
	assert.Equal(t, "", out["bad_ts"], "non-numeric epoch degrades to empty string")
	assert.Equal(t, "", out["neg_ts"], "non-positive epoch degrades to empty string")
	assert.Equal(t, 19, out["price"])
	assert.Equal(t, "abc", out["word"], "to_int leaves unparseable values unchanged")
	assert.Equal(t, "7", out["count"])
}

func TestFieldSpec_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    FieldKind
		wantErr bool
	}{
		{"bare string", `"place_name"`, FieldFrom, false},
		{"constant", `{"value": 3}`, FieldConstant, false},
		{"null constant", `{"value": null}`, FieldConstant, false},
		{"template", `{"template": "{a}"}`, FieldTemplate, false},
		{"from object", `{"from": "a.b", "to_string": true}`, FieldFrom, false},
		{"empty object", `{}`, 0, true},
		{"wrong type", `3`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec FieldSpec
			err := json.Unmarshal([]byte(tt.raw), &spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Kind)
		})
	}
}
