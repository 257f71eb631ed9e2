package transform

import (
	"strings"

	"service-orchestrator/internal/common/utils"
)

// knownOperators is the closed set the filter stage understands.
var knownOperators = map[string]bool{
	"eq": true, "ne": true,
	"gt": true, "gte": true, "lt": true, "lte": true,
	"contains": true, "not_contains": true,
	"in": true, "not_in": true,
}

func isKnownOperator(op string) bool {
	return knownOperators[op]
}

// EvaluateCondition applies one predicate to one record. Records that
// are not objects never match. Comparison failures (missing field,
// uncoercible numbers) evaluate to false rather than erroring.
func EvaluateCondition(record interface{}, cond *Condition) bool {
	obj, ok := record.(map[string]interface{})
	if !ok {
		return false
	}

	var fieldValue interface{}
	if strings.Contains(cond.Field, ".") {
		fieldValue = ResolvePath(obj, cond.Field)
	} else {
		fieldValue = obj[cond.Field]
	}

	switch cond.Operator {
	case "eq":
		return valuesEqual(fieldValue, cond.Value)
	case "ne":
		return !valuesEqual(fieldValue, cond.Value)
	case "gt", "gte", "lt", "lte":
		return compareNumeric(fieldValue, cond.Value, cond.Operator)
	case "contains":
		return containsValue(fieldValue, cond.Value)
	case "not_contains":
		return !containsValue(fieldValue, cond.Value)
	case "in":
		return valueIn(fieldValue, cond.Value)
	case "not_in":
		return !valueIn(fieldValue, cond.Value)
	}

	return false
}

// EvaluateAll reports whether the record matches every condition.
func EvaluateAll(record interface{}, conditions ConditionList) bool {
	for _, cond := range conditions {
		if !EvaluateCondition(record, cond) {
			return false
		}
	}
	return true
}

// valuesEqual compares numerically when both sides coerce to numbers,
// otherwise by stringified text. JSON decoding makes 3 and 3.0
// indistinguishable, so numeric comparison has to come first.
func valuesEqual(a, b interface{}) bool {
	fa, errA := utils.ToFloat64(a)
	fb, errB := utils.ToFloat64(b)
	if errA == nil && errB == nil {
		return fa == fb
	}

	return utils.Stringify(a) == utils.Stringify(b)
}

func compareNumeric(fieldValue, operand interface{}, op string) bool {
	fv, err := utils.ToFloat64(fieldValue)
	if err != nil {
		return false
	}
	ov, err := utils.ToFloat64(operand)
	if err != nil {
		return false
	}

	switch op {
	case "gt":
		return fv > ov
	case "gte":
		return fv >= ov
	case "lt":
		return fv < ov
	case "lte":
		return fv <= ov
	}
	return false
}

// containsValue does substring matching on strings and membership on
// lists.
func containsValue(fieldValue, operand interface{}) bool {
	switch fv := fieldValue.(type) {
	case string:
		return strings.Contains(fv, utils.Stringify(operand))
	case []interface{}:
		for _, item := range fv {
			if valuesEqual(item, operand) {
				return true
			}
		}
	}
	return false
}

// valueIn checks membership of the field value in the operand list.
func valueIn(fieldValue, operand interface{}) bool {
	list, ok := operand.([]interface{})
	if !ok {
		return false
	}
	for _, item := range list {
		if valuesEqual(fieldValue, item) {
			return true
		}
	}
	return false
}
