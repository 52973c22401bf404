package checks

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// validateType reports whether a decoded JSON value has the named type.
func validateType(value interface{}, typeName string) bool {
	switch typeName {
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := toFloat(value)
		return ok
	case "integer":
		f, ok := toFloat(value)
		return ok && f == math.Trunc(f)
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "null":
		return value == nil
	}
	return false
}

// toFloat converts decoded JSON numbers and YAML integers alike.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// deepEquals compares decoded values, treating numbers of different Go
// types as equal when their values are.
func deepEquals(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	switch valA := a.(type) {
	case map[string]interface{}:
		mapB, ok := b.(map[string]interface{})
		if !ok || len(valA) != len(mapB) {
			return false
		}
		for k, v := range valA {
			valueB, ok := mapB[k]
			if !ok || !deepEquals(v, valueB) {
				return false
			}
		}
		return true

	case []interface{}:
		arrB, ok := b.([]interface{})
		if !ok || len(valA) != len(arrB) {
			return false
		}
		for i, v := range valA {
			if !deepEquals(v, arrB[i]) {
				return false
			}
		}
		return true

	default:
		return a == b
	}
}

// truthy follows the usual JSON notion: false, 0, "", null and empty
// collections are falsy.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

// describe renders a value for failure messages.
func describe(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "object{" + strings.Join(keys, ", ") + "}"
	case []interface{}:
		return fmt.Sprintf("array(len=%d)", len(val))
	}
	if f, ok := toFloat(v); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
