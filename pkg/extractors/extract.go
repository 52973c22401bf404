package extractors

import (
	"fmt"
	"log/slog"
	"strings"

	"airprobe/pkg/context"
	"airprobe/pkg/suite"
)

// Apply copies values out of a decoded body into run variables. It stops
// at the first extraction that cannot be resolved.
func Apply(execCtx *context.ExecutionContext, body interface{}, extracts []suite.Extract) error {
	for _, e := range extracts {
		value, err := Lookup(body, e.Path)
		if err != nil {
			return fmt.Errorf("extract '%s': %w", e.Variable, err)
		}
		if value == nil {
			return fmt.Errorf("extract '%s': '%s' is null", e.Variable, e.Path)
		}
		if err := execCtx.SetVariable(e.Variable, value); err != nil {
			return fmt.Errorf("extract '%s': %w", e.Variable, err)
		}
		slog.Debug("Extracted variable", "variable", e.Variable, "path", e.Path, "value", value)
	}
	return nil
}

// Render expands {{path}} and {{len(path)}} patterns in a summary
// template against a decoded body. Unresolvable patterns render as "?".
func Render(template string, body interface{}) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	var sb strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open == -1 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[open:], "}}")
		if end == -1 {
			sb.WriteString(rest)
			break
		}
		end += open

		sb.WriteString(rest[:open])
		sb.WriteString(renderPattern(strings.TrimSpace(rest[open+2:end]), body))
		rest = rest[end+2:]
	}
	return sb.String()
}

func renderPattern(pattern string, body interface{}) string {
	if strings.HasPrefix(pattern, "len(") && strings.HasSuffix(pattern, ")") {
		value, err := Lookup(body, pattern[4:len(pattern)-1])
		if err != nil {
			return "?"
		}
		switch v := value.(type) {
		case []interface{}:
			return fmt.Sprintf("%d", len(v))
		case map[string]interface{}:
			return fmt.Sprintf("%d", len(v))
		case string:
			return fmt.Sprintf("%d", len(v))
		default:
			return "?"
		}
	}

	value, err := Lookup(body, pattern)
	if err != nil || value == nil {
		return "?"
	}
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
