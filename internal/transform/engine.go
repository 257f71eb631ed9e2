package transform

// Apply runs the fixed stage pipeline over a raw response. Stages with
// no configuration are skipped; a wrap stage, when present, terminates
// the pipeline and returns the built object. Apply is pure and never
// errors: malformed inputs flow through as nil or unchanged values.
func Apply(raw interface{}, cfg *Config, input map[string]interface{}) interface{} {
	if cfg == nil {
		return raw
	}

	current := raw

	if cfg.Extract != nil {
		if cfg.Extract.IsInt {
			current = ResolveIndex(current, cfg.Extract.Index)
		} else {
			current = ResolvePath(current, cfg.Extract.Path)
		}
	}

	if cfg.First {
		if list, ok := current.([]interface{}); ok {
			if len(list) == 0 {
				current = nil
			} else {
				current = list[0]
			}
		}
	}

	if len(cfg.Fields) > 0 {
		switch v := current.(type) {
		case []interface{}:
			mapped := make([]interface{}, 0, len(v))
			for _, item := range v {
				if obj, ok := item.(map[string]interface{}); ok {
					mapped = append(mapped, MapFields(obj, cfg.Fields))
				} else {
					mapped = append(mapped, item)
				}
			}
			current = mapped
		case map[string]interface{}:
			current = MapFields(v, cfg.Fields)
		}
	}

	if len(cfg.Filter) > 0 {
		if list, ok := current.([]interface{}); ok {
			kept := make([]interface{}, 0, len(list))
			for _, item := range list {
				if EvaluateAll(item, cfg.Filter) {
					kept = append(kept, item)
				}
			}
			current = kept
		}
	}

	if cfg.Sort != nil {
		if list, ok := current.([]interface{}); ok {
			current = SortList(list, cfg.Sort)
		}
	}

	if cfg.Limit != nil {
		if list, ok := current.([]interface{}); ok && len(list) > *cfg.Limit {
			current = list[:*cfg.Limit]
		}
	}

	if len(cfg.Wrap) > 0 {
		return cfg.Wrap.BuildWrap(current, raw, input)
	}

	return current
}
