package settings

import (
	"fmt"
	"reflect"
	"strings"
)

// asObject reports whether v is object-shaped and returns it as a
// map[string]any. Any map with string keys qualifies; nested values are left as-is.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// cloneValue deep-copies object-shaped values and slices of any; other
// values are returned unchanged.
func cloneValue(v any) any {
	if m, ok := asObject(v); ok {
		return cloneTree(m)
	}
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

// cloneTree deep-copies a data tree, normalizing nested string-keyed maps.
func cloneTree(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// flattenMap converts a nested map[string]any to a flat map with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		newPath := key
		if prefix != "" {
			newPath = prefix + "." + key
		}
		if nestedMap, isMap := asObject(value); isMap {
			for subPath, subValue := range flattenMap(nestedMap, newPath) {
				flat[subPath] = subValue
			}
			continue
		}
		flat[newPath] = value
	}
	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// Intermediate maps are created; a non-map segment is overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// navigateToPath traverses a nested map to the dot-separated path.
func navigateToPath(nested map[string]any, path string) (any, bool) {
	path = strings.TrimSuffix(path, ".")
	if path == "" {
		return nested, true
	}

	current := any(nested)
	for _, segment := range strings.Split(path, ".") {
		currentMap, ok := asObject(current)
		if !ok {
			return nil, false
		}
		value, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}

// isValidKeySegment checks if a single path segment is a valid TOML bare key.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// recovered runs fn and turns a panic into an error.
func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
