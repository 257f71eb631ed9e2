package transform

import (
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex splits one path segment into its key and an optional
// trailing [N] index, e.g. "rows[2]" -> ("rows", 2).
var segmentRegex = regexp.MustCompile(`^([^\[\]]*)(?:\[(\d+)\])?$`)

// Wrapper keys probed when a literal key is missing. XML-to-map
// conversion tends to bury the interesting payload one or two levels
// under names like these.
var (
	wrapperKeysShallow = []string{"body", "response", "dbs", "items", "result", "data"}
	wrapperKeysDeep    = []string{"body", "items", "result", "data"}
)

// ResolvePath walks a dotted path ("meta.total", "body.rows[0].title")
// through nested maps and slices. Resolution failure at any point
// yields nil, never an error.
func ResolvePath(value interface{}, path string) interface{} {
	if path == "" {
		return nil
	}

	current := value
	for _, segment := range strings.Split(path, ".") {
		key, index, hasIndex, ok := parseSegment(segment)
		if !ok {
			return nil
		}

		if key != "" {
			current = lookupKey(current, key)
			if current == nil {
				return nil
			}
		}

		if hasIndex {
			list, isList := current.([]interface{})
			if !isList || index >= len(list) {
				return nil
			}
			current = list[index]
		}
	}

	return current
}

// ResolveIndex indexes into a top-level array. Out-of-range or
// non-array values yield nil.
func ResolveIndex(value interface{}, index int) interface{} {
	list, ok := value.([]interface{})
	if !ok || index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

func parseSegment(segment string) (key string, index int, hasIndex bool, ok bool) {
	match := segmentRegex.FindStringSubmatch(segment)
	if match == nil {
		return "", 0, false, false
	}

	key = match[1]
	if match[2] != "" {
		n, err := strconv.Atoi(match[2])
		if err != nil {
			return "", 0, false, false
		}
		index = n
		hasIndex = true
	}

	if key == "" && !hasIndex {
		return "", 0, false, false
	}

	return key, index, hasIndex, true
}

// lookupKey finds key in an object, falling back to the XML wrapper
// heuristic: one level down through wrapperKeysShallow, then two
// levels down through wrapperKeysDeep.
func lookupKey(value interface{}, key string) interface{} {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	if v, exists := obj[key]; exists {
		return v
	}

	for _, wrapper := range wrapperKeysShallow {
		inner, isMap := obj[wrapper].(map[string]interface{})
		if !isMap {
			continue
		}
		if v, exists := inner[key]; exists {
			return v
		}
	}

	for _, outer := range wrapperKeysDeep {
		inner, isMap := obj[outer].(map[string]interface{})
		if !isMap {
			continue
		}
		for _, wrapper := range wrapperKeysDeep {
			deeper, isDeepMap := inner[wrapper].(map[string]interface{})
			if !isDeepMap {
				continue
			}
			if v, exists := deeper[key]; exists {
				return v
			}
		}
	}

	return nil
}
