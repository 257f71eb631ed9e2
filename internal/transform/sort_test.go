package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(name string, rating interface{}) map[string]interface{} {
	return map[string]interface{}{"name": name, "rating": rating}
}

func TestSortList_Text(t *testing.T) {
	list := []interface{}{row("charlie", 1), row("alpha", 2), row("bravo", 3)}

	sorted := SortList(list, &SortSpec{Field: "name"})
	assert.Equal(t, "alpha", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "bravo", sorted[1].(map[string]interface{})["name"])
	assert.Equal(t, "charlie", sorted[2].(map[string]interface{})["name"])

	desc := SortList(list, &SortSpec{Field: "name", Order: "desc"})
	assert.Equal(t, "charlie", desc[0].(map[string]interface{})["name"])

	// input order untouched
	assert.Equal(t, "charlie", list[0].(map[string]interface{})["name"])
}

func TestSortList_Number(t *testing.T) {
	list := []interface{}{
		row("a", float64(2)),
		row("b", "10"),
		row("c", "oops"), // coerces to 0
	}

	sorted := SortList(list, &SortSpec{Field: "rating", Type: "number"})
	assert.Equal(t, "c", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "a", sorted[1].(map[string]interface{})["name"])
	assert.Equal(t, "b", sorted[2].(map[string]interface{})["name"])
}

func TestSortList_HeterogeneousKeysKeepOrder(t *testing.T) {
	list := []interface{}{
		row("first", map[string]interface{}{"nested": true}),
		row("second", "text"),
	}

	sorted := SortList(list, &SortSpec{Field: "rating"})
	assert.Equal(t, "first", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "second", sorted[1].(map[string]interface{})["name"])
}

func TestSortList_MixedScalarKindsKeepOrder(t *testing.T) {
	list := []interface{}{
		row("first", "b"),
		row("second", float64(2)),
		row("third", "a"),
	}

	sorted := SortList(list, &SortSpec{Field: "rating"})
	assert.Equal(t, "first", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "second", sorted[1].(map[string]interface{})["name"])
	assert.Equal(t, "third", sorted[2].(map[string]interface{})["name"])
}

func TestSortList_MissingKeysKeepOrder(t *testing.T) {
	list := []interface{}{
		row("first", "b"),
		map[string]interface{}{"name": "second"},
		row("third", "a"),
	}

	sorted := SortList(list, &SortSpec{Field: "rating"})
	assert.Equal(t, "first", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "second", sorted[1].(map[string]interface{})["name"])
	assert.Equal(t, "third", sorted[2].(map[string]interface{})["name"])
}

func TestSortList_Stable(t *testing.T) {
	list := []interface{}{
		map[string]interface{}{"name": "x", "group": "a"},
		map[string]interface{}{"name": "y", "group": "a"},
		map[string]interface{}{"name": "z", "group": "a"},
	}

	sorted := SortList(list, &SortSpec{Field: "group"})
	assert.Equal(t, "x", sorted[0].(map[string]interface{})["name"])
	assert.Equal(t, "y", sorted[1].(map[string]interface{})["name"])
	assert.Equal(t, "z", sorted[2].(map[string]interface{})["name"])
}
