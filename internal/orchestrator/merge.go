package orchestrator

// listViewKeys are the wrapper keys concat probes when a successful
// step's data is an object rather than a list.
var listViewKeys = []string{"data", "items", "results", "restaurants", "combined"}

// Merge reconciles the collected outcomes per the merge configuration.
// Outcomes arrive in collection order: declared order when sequential,
// completion order when parallel. Merge always returns a value.
func Merge(outcomes []*StepOutcome, merge *MergeConfig, input map[string]interface{}) interface{} {
	if merge == nil {
		merge = &MergeConfig{}
	}

	switch merge.Mode {
	case MergeFirstSuccess:
		return mergeFirstSuccess(outcomes, merge, input)
	case MergeLast:
		return mergeLast(outcomes)
	default:
		// concat and sequential share concat semantics; sequential
		// additionally forced ordered execution upstream.
		return mergeConcat(outcomes, merge, input)
	}
}

// mergeConcat appends every successful outcome's list view into one
// accumulator. A failed step with on_error stop abandons the merge and
// returns that step's raw error payload, discarding earlier results.
func mergeConcat(outcomes []*StepOutcome, merge *MergeConfig, input map[string]interface{}) interface{} {
	combined := make([]interface{}, 0)

	for _, outcome := range outcomes {
		if !outcome.Success {
			if outcome.OnError != OnErrorContinue {
				return outcome.Data
			}
			continue
		}

		for _, element := range listView(outcome.Data) {
			if merge.SourceTag {
				element = tagSource(element, outcome.StepID)
			}
			combined = append(combined, element)
		}
	}

	if len(merge.Wrap) > 0 {
		return merge.Wrap.BuildWrap(combined, nil, input)
	}
	return combined
}

func mergeFirstSuccess(outcomes []*StepOutcome, merge *MergeConfig, input map[string]interface{}) interface{} {
	for _, outcome := range outcomes {
		if !outcome.Success {
			continue
		}
		if len(merge.Wrap) > 0 {
			return merge.Wrap.BuildWrap(listView(outcome.Data), nil, input)
		}
		return outcome.Data
	}

	return allFailedDiagnostic(outcomes)
}

func mergeLast(outcomes []*StepOutcome) interface{} {
	for i := len(outcomes) - 1; i >= 0; i-- {
		if outcomes[i].Success {
			return outcomes[i].Data
		}
	}

	return allFailedDiagnostic(outcomes)
}

// listView extracts the list form of a step's data: lists pass
// through, objects surrender a list found under a known wrapper key or
// become a singleton, anything else becomes a singleton.
func listView(data interface{}) []interface{} {
	switch v := data.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		for _, key := range listViewKeys {
			if list, ok := v[key].([]interface{}); ok {
				return list
			}
		}
		return []interface{}{v}
	case nil:
		return nil
	default:
		return []interface{}{v}
	}
}

// tagSource marks an object element with the step that produced it,
// unless the element already carries a source. The element is copied
// rather than written in place: step data may be shared with the
// response cache and with other runs.
func tagSource(element interface{}, stepID string) interface{} {
	obj, ok := element.(map[string]interface{})
	if !ok {
		return element
	}
	if _, tagged := obj["source"]; tagged {
		return element
	}

	tagged := make(map[string]interface{}, len(obj)+1)
	for k, v := range obj {
		tagged[k] = v
	}
	tagged["source"] = stepID
	return tagged
}

// allFailedDiagnostic describes every step's failure so the caller
// still receives a value when nothing succeeded.
func allFailedDiagnostic(outcomes []*StepOutcome) map[string]interface{} {
	steps := make([]interface{}, 0, len(outcomes))
	for _, outcome := range outcomes {
		steps = append(steps, map[string]interface{}{
			"id":   outcome.StepID,
			"data": outcome.Data,
		})
	}

	return map[string]interface{}{
		"error": "no step succeeded",
		"steps": steps,
	}
}
