package transform

import (
	"sort"

	"service-orchestrator/internal/common/utils"
)

// SortList stably orders a list by the spec's field. Heterogeneous
// keys (objects or nested lists in text mode) make a comparison
// meaningless, so the list comes back in its pre-sort order instead.
func SortList(list []interface{}, spec *SortSpec) []interface{} {
	if len(list) < 2 {
		return list
	}

	numeric := spec.Type == "number"
	descending := spec.Order == "desc"

	if !numeric && !textSortable(list, spec.Field) {
		return list
	}

	sorted := make([]interface{}, len(list))
	copy(sorted, list)

	sort.SliceStable(sorted, func(i, j int) bool {
		if numeric {
			a, b := sortKeyNumber(sorted[i], spec.Field), sortKeyNumber(sorted[j], spec.Field)
			if descending {
				return a > b
			}
			return a < b
		}

		a, b := sortKeyText(sorted[i], spec.Field), sortKeyText(sorted[j], spec.Field)
		if descending {
			return a > b
		}
		return a < b
	})

	return sorted
}

// textSortable rejects lists whose sort keys include composite values
// or mix scalar kinds (number vs string vs nil); comparing those as
// text would be arbitrary.
func textSortable(list []interface{}, field string) bool {
	kind := ""
	for _, item := range list {
		k := sortKeyKind(rawSortKey(item, field))
		if k == kindComposite {
			return false
		}
		if kind == "" {
			kind = k
			continue
		}
		if k != kind {
			return false
		}
	}
	return true
}

const (
	kindNil       = "nil"
	kindString    = "string"
	kindBool      = "bool"
	kindNumber    = "number"
	kindComposite = "composite"
)

func sortKeyKind(value interface{}) string {
	switch value.(type) {
	case nil:
		return kindNil
	case string:
		return kindString
	case bool:
		return kindBool
	case float64, float32, int, int64, int32, int16, int8,
		uint, uint64, uint32, uint16, uint8:
		return kindNumber
	default:
		return kindComposite
	}
}

func rawSortKey(item interface{}, field string) interface{} {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return nil
	}
	return obj[field]
}

// sortKeyNumber coerces the key to a number, falling back to 0.
func sortKeyNumber(item interface{}, field string) float64 {
	f, err := utils.ToFloat64(rawSortKey(item, field))
	if err != nil {
		return 0
	}
	return f
}

func sortKeyText(item interface{}, field string) string {
	return utils.Stringify(rawSortKey(item, field))
}
