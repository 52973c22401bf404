// Package context defines the ExecutionContext which holds the state of a run.
// This file implements the built-in functions available within variable
// substitution syntax (`{{ func(...) }}`) and their registration mechanism.
package context

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VariableFunction is the type for all built-in functions available in substitution.
type VariableFunction func(args ...interface{}) (interface{}, error)

var (
	functionsMu         sync.RWMutex
	registeredFunctions = map[string]VariableFunction{
		"uuid":          newUUID,
		"random_string": randomString,
		"random_int":    randomInt,
		"timestamp":     timestamp,
		"format_date":   formatDate,
		"concat":        concat,
		"lower":         lower,
		"upper":         upper,
	}
)

// GetFunction retrieves a registered function by name.
func GetFunction(name string) (VariableFunction, bool) {
	functionsMu.RLock()
	defer functionsMu.RUnlock()
	f, ok := registeredFunctions[name]
	return f, ok
}

// RegisterFunction allows registering custom functions.
func RegisterFunction(name string, fn VariableFunction) error {
	functionsMu.Lock()
	defer functionsMu.Unlock()
	if _, exists := registeredFunctions[name]; exists {
		return fmt.Errorf("function %s is already registered", name)
	}
	registeredFunctions[name] = fn
	return nil
}

// checkArgCount validates the number of arguments for a function.
func checkArgCount(name string, args []interface{}, expectedCount int) error {
	if len(args) != expectedCount {
		return fmt.Errorf("%s expects %d argument(s), got %d", name, expectedCount, len(args))
	}
	return nil
}

func toInt(name string, arg interface{}) (int, error) {
	switch v := arg.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s: invalid integer '%s'", name, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: unsupported argument type %T", name, arg)
	}
}

// newUUID returns a random v4 UUID.
func newUUID(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("uuid", args, 0); err != nil {
		return nil, err
	}
	return uuid.NewString(), nil
}

const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomString generates a lowercase alphanumeric string of the given length.
func randomString(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("random_string", args, 1); err != nil {
		return nil, err
	}
	n, err := toInt("random_string", args[0])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("random_string: length must be non-negative")
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b), nil
}

// randomInt generates a random integer between min and max (inclusive).
func randomInt(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("random_int", args, 2); err != nil {
		return nil, err
	}
	lo, err := toInt("random_int", args[0])
	if err != nil {
		return nil, err
	}
	hi, err := toInt("random_int", args[1])
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, fmt.Errorf("random_int: max (%d) is less than min (%d)", hi, lo)
	}
	// span wraps negative when hi-lo exceeds MaxInt; MaxInt itself overflows +1
	if span := hi - lo; span < 0 || span == math.MaxInt {
		return nil, fmt.Errorf("random_int: range [%d, %d] is too large", lo, hi)
	}
	return lo + rand.Intn(hi-lo+1), nil
}

// timestamp returns the current Unix timestamp.
func timestamp(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("timestamp", args, 0); err != nil {
		return nil, err
	}
	return time.Now().Unix(), nil
}

// formatDate formats today plus an offset in days with a Go layout.
func formatDate(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("format_date", args, 2); err != nil {
		return nil, err
	}
	days, err := toInt("format_date", args[0])
	if err != nil {
		return nil, err
	}
	layout, ok := args[1].(string)
	if !ok || layout == "" {
		return nil, fmt.Errorf("format_date: layout must be a non-empty string")
	}
	return time.Now().AddDate(0, 0, days).Format(layout), nil
}

// concat concatenates its arguments.
func concat(args ...interface{}) (interface{}, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(stringify(a))
	}
	return sb.String(), nil
}

func lower(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("lower", args, 1); err != nil {
		return nil, err
	}
	return strings.ToLower(stringify(args[0])), nil
}

func upper(args ...interface{}) (interface{}, error) {
	if err := checkArgCount("upper", args, 1); err != nil {
		return nil, err
	}
	return strings.ToUpper(stringify(args[0])), nil
}
