package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airprobe/pkg/mockapi"
	"airprobe/pkg/reporter"
)

// resetFlags puts every flag back to its default so each invocation parses
// from a clean state.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	resetFlags(rootCmd.PersistentFlags())
	resetFlags(runCmd.Flags())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	return execute(), out.String()
}

func TestListBuiltinSuites(t *testing.T) {
	code, out := runCLI(t, "list", "--no-color")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "core    8 checks")
	assert.Contains(t, out, "ai_integration")
	assert.Contains(t, out, "html_contains")

	code, out = runCLI(t, "list", "core")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, " 3. watchlist_creation")
}

func TestValidateSuiteFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: smoke
checks:
  - name: health_check
    request: {method: GET, path: /api/}
    expect:
      assertions:
        - {type: required_keys, keys: [message]}
`), 0o644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
name: smoke
checks:
  - name: health_check
    request: {method: GET, path: /api/}
    expect:
      assertions:
        - {type: matches_regex}
`), 0o644))

	code, out := runCLI(t, "validate", good)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "PASS "+good)

	code, out = runCLI(t, "validate", good, bad)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, out, "FAIL "+bad)
	assert.Contains(t, out, "no assertion registered for type 'matches_regex'")
}

func TestRunWritesReportsAndInspect(t *testing.T) {
	srv := httptest.NewServer(mockapi.New(mockapi.Faults{ShufflePrices: true}))
	defer srv.Close()

	dir := t.TempDir()
	junit := filepath.Join(dir, "report.xml")
	jsonPath := filepath.Join(dir, "report.json")

	code, out := runCLI(t, "run", "--no-color", "--log-level", "error",
		"--target", "Local="+srv.URL, "--suite", "core", "--junit", junit, "--json", jsonPath)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, out, "FAIL flight_search")
	assert.Contains(t, out, "Backend API has issues")

	report, err := reporter.ReadJSON(jsonPath)
	require.NoError(t, err)
	require.Len(t, report.Targets, 1)
	assert.True(t, report.Targets[0].Gating)
	assert.Equal(t, 7, report.Targets[0].Passed())

	code, out = runCLI(t, "inspect", junit)
	assert.Equal(t, exitFail, code)
	assert.Contains(t, out, "FAIL Local/flight_search")
	assert.Contains(t, out, "7/8 tests passed")

	code, _ = runCLI(t, "inspect", filepath.Join(dir, "missing.xml"))
	assert.Equal(t, exitUsage, code)
}

func TestRunRejectsBadTarget(t *testing.T) {
	code, _ := runCLI(t, "run", "--target", "no-url-here")
	assert.Equal(t, exitUsage, code)
}

func TestRunAllPassingExitsZero(t *testing.T) {
	srv := httptest.NewServer(mockapi.New(mockapi.Faults{AIGenerated: true}))
	defer srv.Close()

	code, out := runCLI(t, "run", "--no-color", "--log-level", "error",
		"--base-url", srv.URL, "--suite", "all", "--timeout", "5s")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Local Results: 15/15 tests passed")
	assert.Contains(t, out, "Backend API is fully functional")
	assert.NotContains(t, out, "FAIL ")
}
