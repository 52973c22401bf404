// Package suite defines the Go data structures that describe a check suite.
// This file handles loading suite definitions from YAML, parsing them into
// the defined Go structs, and performing structural validation.
package suite

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Load reads a suite definition from a YAML file.
// It accepts both bare suites and documents with a top-level 'suite:' key.
func Load(filePath string) (*Suite, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file '%s': %w", filePath, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("suite file '%s': %w", filepath.Base(filePath), err)
	}
	return s, nil
}

// Parse unmarshals and validates a suite definition.
func Parse(data []byte) (*Suite, error) {
	var wrapper SuiteWrapper
	if err := yaml.Unmarshal(data, &wrapper); err == nil && wrapper.Suite.Name != "" {
		if err := Validate(&wrapper.Suite); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		return &wrapper.Suite, nil
	}

	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("YAML parsing error: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &s, nil
}

// Validate performs structural validation of a suite
func Validate(s *Suite) error {
	if s == nil {
		return fmt.Errorf("nil suite cannot be validated")
	}
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("suite '%s' must contain at least one check", s.Name)
	}

	seen := make(map[string]bool, len(s.Checks))
	for i, c := range s.Checks {
		if c.Name == "" {
			return fmt.Errorf("checks[%d].name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate check name '%s'", c.Name)
		}
		seen[c.Name] = true

		if c.Handler == "" && c.Request == nil {
			return fmt.Errorf("check '%s' must have either a handler or a request", c.Name)
		}
		if c.Handler != "" && c.Request != nil {
			return fmt.Errorf("check '%s' cannot have both a handler and a request", c.Name)
		}

		if c.Request != nil {
			if c.Request.Method == "" {
				return fmt.Errorf("check '%s': request.method is required", c.Name)
			}
			if c.Request.Path == "" {
				return fmt.Errorf("check '%s': request.path is required", c.Name)
			}
		}

		if c.Expect != nil {
			for j, a := range c.Expect.Assertions {
				if a.Type == "" {
					return fmt.Errorf("check '%s': assertions[%d].type is required", c.Name, j)
				}
			}
		}

		for j, e := range c.Extract {
			if e.Variable == "" || e.Path == "" {
				return fmt.Errorf("check '%s': extract[%d] needs both variable and path", c.Name, j)
			}
		}
	}

	return nil
}

// BuiltinNames lists the suites compiled into the binary, plus "all".
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return append(names, "all")
}

// Builtin returns a suite compiled into the binary. "all" concatenates
// core and ai in that order.
func Builtin(name string) (*Suite, error) {
	if name == "all" {
		return Merge("all", "core", "ai")
	}

	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown built-in suite '%s' (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}

// Merge concatenates built-in suites under a new name. Check names must
// stay unique across the merged suite.
func Merge(name string, parts ...string) (*Suite, error) {
	merged := &Suite{Name: name, Description: "merged: " + strings.Join(parts, " + ")}
	for _, p := range parts {
		s, err := Builtin(p)
		if err != nil {
			return nil, err
		}
		merged.Checks = append(merged.Checks, s.Checks...)
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Resolve interprets ref as a built-in suite name first, then as a path.
func Resolve(ref string) (*Suite, error) {
	for _, n := range BuiltinNames() {
		if n == ref {
			return Builtin(ref)
		}
	}
	return Load(ref)
}
