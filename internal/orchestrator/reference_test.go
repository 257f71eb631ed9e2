package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveReferences_Strings(t *testing.T) {
	outputs := map[string]interface{}{
		"auth": map[string]interface{}{
			"token": "abc",
			"ttl":   float64(3600),
		},
		"list_step": []interface{}{float64(1), float64(2), float64(3)},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"field lookup", "{auth.token}", "abc"},
		{"numeric field renders clean", "{auth.ttl}", "3600"},
		{"embedded in text", "Bearer {auth.token}", "Bearer abc"},
		{"whole result of a list", "{list_step._result}", "1,2,3"},
		{"missing field", "{auth.missing_field}", ""},
		{"unknown step stays literal", "{unknown_step.x}", "{unknown_step.x}"},
		{"no references", "plain text", "plain text"},
		{"dotless placeholder untouched", "{query}", "{query}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveReferenceString(tt.in, outputs))
		})
	}
}

func TestResolveReferences_Recursive(t *testing.T) {
	outputs := map[string]interface{}{
		"auth": map[string]interface{}{"token": "abc"},
	}

	value := map[string]interface{}{
		"header": "{auth.token}",
		"nested": map[string]interface{}{
			"list": []interface{}{"{auth.token}", float64(1)},
		},
		"untouched": float64(42),
	}

	resolved := ResolveReferences(value, outputs).(map[string]interface{})

	assert.Equal(t, "abc", resolved["header"])
	nested := resolved["nested"].(map[string]interface{})
	assert.Equal(t, []interface{}{"abc", float64(1)}, nested["list"])
	assert.Equal(t, float64(42), resolved["untouched"])

	// the original is never mutated
	assert.Equal(t, "{auth.token}", value["header"])
}

func TestResolveReferences_EmptyOutputs(t *testing.T) {
	assert.Equal(t, "{auth.token}", ResolveReferenceString("{auth.token}", nil))
}

func TestHasReferences(t *testing.T) {
	plain := []*PipelineStep{
		{ID: "a", Service: "svc", Endpoint: "/x", Params: map[string]interface{}{"q": "{query}"}},
	}
	assert.False(t, HasReferences(plain), "dotless placeholders are not references")

	referencing := []*PipelineStep{
		{ID: "a", Service: "svc", Endpoint: "/x"},
		{ID: "b", Service: "svc", Endpoint: "/y", Params: map[string]interface{}{"token": "{a.token}"}},
	}
	assert.True(t, HasReferences(referencing))

	inBody := []*PipelineStep{
		{ID: "a", Service: "svc", Endpoint: "/x"},
		{ID: "b", Service: "svc", Endpoint: "/y", Body: map[string]interface{}{"v": "{a._result}"}},
	}
	assert.True(t, HasReferences(inBody))
}
