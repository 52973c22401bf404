// Package extractors provides data extraction from decoded responses.
// This file implements JSON path lookup over values decoded into
// map[string]interface{} / []interface{} trees.
package extractors

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a path such as "watch.id", "flights[0].price" or
// "$.result.content.html" inside decoded JSON. An empty path or "$"
// returns data itself.
func Lookup(data interface{}, path string) (interface{}, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return data, nil
	}

	current := data
	for i, component := range strings.Split(path, ".") {
		name, indexes, err := splitComponent(component)
		if err != nil {
			return nil, fmt.Errorf("invalid path '%s': %w", path, err)
		}

		if name != "" {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("expected object at '%s', got %s", prefix(path, i), TypeName(current))
			}
			val, exists := obj[name]
			if !exists {
				return nil, &MissingError{Path: joinPrefix(path, i, name)}
			}
			current = val
		}

		for _, idx := range indexes {
			arr, ok := current.([]interface{})
			if !ok {
				return nil, fmt.Errorf("expected array at '%s', got %s", joinPrefix(path, i, name), TypeName(current))
			}
			if idx < 0 {
				idx += len(arr)
			}
			if idx < 0 || idx >= len(arr) {
				return nil, fmt.Errorf("array index %d out of bounds (array length: %d) at '%s'", idx, len(arr), joinPrefix(path, i, name))
			}
			current = arr[idx]
		}
	}

	return current, nil
}

// Exists reports whether path resolves inside data.
func Exists(data interface{}, path string) bool {
	_, err := Lookup(data, path)
	return err == nil
}

// MissingError reports a key that is absent from an object.
type MissingError struct {
	Path string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("'%s' not found", e.Path)
}

// TypeName names the JSON type of a decoded value.
func TypeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, uint, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// splitComponent splits "flights[0][1]" into "flights" and [0 1].
func splitComponent(component string) (string, []int, error) {
	open := strings.Index(component, "[")
	if open == -1 {
		if component == "" {
			return "", nil, fmt.Errorf("empty path component")
		}
		return component, nil, nil
	}

	name := component[:open]
	rest := component[open:]
	var indexes []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("unexpected '%s' after index", rest)
		}
		end := strings.Index(rest, "]")
		if end == -1 {
			return "", nil, fmt.Errorf("unclosed index in '%s'", component)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return "", nil, fmt.Errorf("invalid array index '%s'", rest[1:end])
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, nil
}

func prefix(path string, i int) string {
	parts := strings.Split(path, ".")
	if i == 0 {
		return "$"
	}
	return strings.Join(parts[:i], ".")
}

func joinPrefix(path string, i int, name string) string {
	p := prefix(path, i)
	if p == "$" {
		return name
	}
	if name == "" {
		return p
	}
	return p + "." + name
}
