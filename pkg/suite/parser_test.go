package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSuites(t *testing.T) {
	assert.Equal(t, []string{"ai", "core", "all"}, BuiltinNames())

	core, err := Builtin("core")
	require.NoError(t, err)
	want := []string{
		"health_check",
		"flight_search",
		"watchlist_creation",
		"watchlist_retrieval",
		"watchlist_toggle",
		"notification_test",
		"price_check",
		"notification_send",
	}
	if diff := cmp.Diff(want, core.CheckNames()); diff != "" {
		t.Errorf("core checks mismatch (-want +got):\n%s", diff)
	}

	ai, err := Builtin("ai")
	require.NoError(t, err)
	assert.Equal(t, "ai_integration", ai.Checks[len(ai.Checks)-1].Name)
	assert.Equal(t, "ai_integration", ai.Checks[len(ai.Checks)-1].Handler)

	all, err := Builtin("all")
	require.NoError(t, err)
	assert.Len(t, all.Checks, len(core.Checks)+len(ai.Checks))
	assert.Equal(t, want, all.CheckNames()[:len(want)])
}

func TestBuiltinCoreDetails(t *testing.T) {
	core, err := Builtin("core")
	require.NoError(t, err)

	byName := map[string]Check{}
	for _, c := range core.Checks {
		byName[c.Name] = c
	}

	create := byName["watchlist_creation"]
	require.Len(t, create.Extract, 1)
	assert.Equal(t, Extract{Variable: "watch_id", Path: "watch.id"}, create.Extract[0])

	toggle := byName["watchlist_toggle"]
	assert.Equal(t, []string{"watch_id"}, toggle.Requires)
	assert.Equal(t, "PUT", toggle.Request.Method)
	assert.Equal(t, []int{404}, toggle.Expect.AcceptStatus)

	search := byName["flight_search"]
	body, ok := search.Request.Body.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 600, body["maxPrice"])
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := Builtin("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown built-in suite 'nope'")
}

func TestParseBareAndWrapped(t *testing.T) {
	bare := []byte(`
name: smoke
checks:
  - name: health
    request: {method: GET, path: /api/}
`)
	s, err := Parse(bare)
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)

	wrapped := []byte(`
suite:
  name: smoke
  checks:
    - name: health
      request: {method: GET, path: /api/}
`)
	s, err = Parse(wrapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"health"}, s.CheckNames())
}

func TestValidate(t *testing.T) {
	req := &Request{Method: "GET", Path: "/api/"}

	tests := []struct {
		name    string
		suite   *Suite
		wantErr string
	}{
		{"nil", nil, "nil suite"},
		{"no name", &Suite{Checks: []Check{{Name: "a", Request: req}}}, "suite name is required"},
		{"no checks", &Suite{Name: "s"}, "at least one check"},
		{"unnamed check", &Suite{Name: "s", Checks: []Check{{Request: req}}}, "checks[0].name is required"},
		{"duplicate", &Suite{Name: "s", Checks: []Check{{Name: "a", Request: req}, {Name: "a", Request: req}}}, "duplicate check name 'a'"},
		{"neither", &Suite{Name: "s", Checks: []Check{{Name: "a"}}}, "either a handler or a request"},
		{"both", &Suite{Name: "s", Checks: []Check{{Name: "a", Handler: "h", Request: req}}}, "cannot have both"},
		{"no method", &Suite{Name: "s", Checks: []Check{{Name: "a", Request: &Request{Path: "/"}}}}, "request.method is required"},
		{"no path", &Suite{Name: "s", Checks: []Check{{Name: "a", Request: &Request{Method: "GET"}}}}, "request.path is required"},
		{
			"untyped assertion",
			&Suite{Name: "s", Checks: []Check{{Name: "a", Request: req, Expect: &Expectation{Assertions: []Assertion{{Path: "x"}}}}}},
			"assertions[0].type is required",
		},
		{
			"half extract",
			&Suite{Name: "s", Checks: []Check{{Name: "a", Request: req, Extract: []Extract{{Variable: "v"}}}}},
			"needs both variable and path",
		},
		{"valid", &Suite{Name: "s", Checks: []Check{{Name: "a", Request: req}, {Name: "b", Handler: "h"}}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.suite)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
suite:
  name: custom
  checks:
    - name: health
      request: {method: GET, path: /api/}
`), 0o644))

	s, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name)

	s, err = Resolve("core")
	require.NoError(t, err)
	assert.Equal(t, "core", s.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read suite file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\nchecks: []\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestBuiltinChecksLeaveTimeoutToConfig(t *testing.T) {
	s, err := Builtin("all")
	require.NoError(t, err)
	for _, c := range s.Checks {
		if c.Request != nil {
			assert.Empty(t, c.Request.Timeout, c.Name)
		}
	}
}
