package context

import (
	"fmt"
	"strings"
)

// Substitute performs variable substitution in a string, including function calls.
// It replaces all occurrences of {{ ... }} with their resolved values.
func (c *ExecutionContext) Substitute(input string) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	result := input
	startIdx := 0
	for {
		openBrace := strings.Index(result[startIdx:], "{{")
		if openBrace == -1 {
			break
		}
		openBrace += startIdx

		closeBrace := strings.Index(result[openBrace:], "}}")
		if closeBrace == -1 {
			return result, fmt.Errorf("unclosed substitution pattern in '%s'", result[openBrace:])
		}
		closeBrace += openBrace

		replacement, err := c.evaluate(strings.TrimSpace(result[openBrace+2 : closeBrace]))
		if err != nil {
			return result, err
		}
		replacementStr := stringify(replacement)

		result = result[:openBrace] + replacementStr + result[closeBrace+2:]
		startIdx = openBrace + len(replacementStr)
		if startIdx >= len(result) {
			break
		}
	}

	return result, nil
}

// SubstituteValue walks maps and slices and substitutes every string leaf.
// A string consisting of exactly one {{...}} pattern is replaced by the
// resolved value itself, so numbers and booleans keep their type.
func (c *ExecutionContext) SubstituteValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") &&
			strings.Count(trimmed, "{{") == 1 {
			return c.evaluate(strings.TrimSpace(trimmed[2 : len(trimmed)-2]))
		}
		return c.Substitute(val)

	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			resolved, err := c.SubstituteValue(item)
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil

	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			resolved, err := c.SubstituteValue(item)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return v, nil
	}
}

// evaluate resolves the inside of one {{ ... }} pattern: either a function
// call like random_string(8) or a variable path.
func (c *ExecutionContext) evaluate(pattern string) (interface{}, error) {
	funcNameEnd := strings.Index(pattern, "(")
	if funcNameEnd == -1 {
		value, err := c.ResolveVariable(pattern)
		if err != nil {
			return nil, fmt.Errorf("error resolving variable %s: %w", pattern, err)
		}
		return value, nil
	}

	funcName := strings.TrimSpace(pattern[:funcNameEnd])
	if !strings.HasSuffix(pattern, ")") {
		return nil, fmt.Errorf("invalid function call syntax: missing closing parenthesis in '%s'", pattern)
	}
	argsStr := strings.TrimSpace(pattern[funcNameEnd+1 : len(pattern)-1])

	var args []interface{}
	if argsStr != "" {
		for _, rawArg := range splitArgs(argsStr) {
			arg, err := c.resolveArg(rawArg)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}

	fn, exists := GetFunction(funcName)
	if !exists {
		return nil, fmt.Errorf("undefined function: %s", funcName)
	}
	value, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("error executing function %s: %w", funcName, err)
	}
	return value, nil
}

// resolveArg turns one raw function argument into a value. Quoted strings
// are literals, nested calls are evaluated, bare words are variables when
// set and literals otherwise.
func (c *ExecutionContext) resolveArg(rawArg string) (interface{}, error) {
	if len(rawArg) >= 2 {
		first, last := rawArg[0], rawArg[len(rawArg)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return rawArg[1 : len(rawArg)-1], nil
		}
	}
	if strings.Contains(rawArg, "(") {
		return c.evaluate(rawArg)
	}
	if c.HasVariable(rawArg) {
		return c.ResolveVariable(rawArg)
	}
	return rawArg, nil
}

// splitArgs splits a comma-separated argument string, respecting nested
// parentheses and quotes.
// For example: `a, concat(b, "c,d"), e` -> ["a", `concat(b, "c,d")`, "e"]
func splitArgs(argsStr string) []string {
	var args []string
	var currentArg strings.Builder
	parenLevel := 0
	var quote rune

	for _, char := range argsStr {
		switch {
		case quote != 0:
			if char == quote {
				quote = 0
			}
			currentArg.WriteRune(char)
		case char == '"' || char == '\'':
			quote = char
			currentArg.WriteRune(char)
		case char == '(':
			parenLevel++
			currentArg.WriteRune(char)
		case char == ')':
			parenLevel--
			currentArg.WriteRune(char)
		case char == ',' && parenLevel == 0:
			args = append(args, strings.TrimSpace(currentArg.String()))
			currentArg.Reset()
		default:
			currentArg.WriteRune(char)
		}
	}

	if last := strings.TrimSpace(currentArg.String()); last != "" {
		args = append(args, last)
	}
	return args
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
