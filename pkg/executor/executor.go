// Package executor orchestrates the execution of a check suite.
// This file contains RunAll, which runs the checks of a suite in order
// against one target, and RunTargets, which repeats that for every
// configured target and assembles the run report.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"airprobe/pkg/checks"
	"airprobe/pkg/client"
	execContext "airprobe/pkg/context"
	"airprobe/pkg/suite"
)

// Target is one deployment of the service under test.
type Target struct {
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Gating targets decide the exit code; others are informational.
	Gating bool `yaml:"gating" json:"gating"`
}

// CheckResult represents the outcome of one check invocation
type CheckResult struct {
	Name       string    `json:"name"`
	Target     string    `json:"target"`
	Passed     bool      `json:"passed"`
	Details    string    `json:"details"`
	Warnings   []string  `json:"warnings,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Snapshot   string    `json:"response_snapshot,omitempty"`
	StartTime  time.Time `json:"start_time"`
	Duration   float64   `json:"duration_seconds"` // seconds
}

// Results holds the results of one target in check order.
type Results struct {
	Target    string         `json:"name"`
	BaseURL   string         `json:"base_url"`
	Gating    bool           `json:"gating"`
	StartTime time.Time      `json:"started_at"`
	EndTime   time.Time      `json:"finished_at"`
	Checks    []*CheckResult `json:"results"`
}

// Report is the outcome of a whole run across targets.
type Report struct {
	RunID      string     `json:"run_id"`
	Suite      string     `json:"suite"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Targets    []*Results `json:"targets"`
}

// Options provides configuration options for the executor
type Options struct {
	// Timeout applies to requests whose check declares none.
	Timeout   time.Duration
	UserAgent string
	// Transport replaces the HTTP transport (tests).
	Transport http.RoundTripper
	// Registry compiles checks; the default registry when nil.
	Registry *checks.CheckRegistry
}

// DefaultOptions returns sensible default executor options
func DefaultOptions() *Options {
	return &Options{
		Timeout:   30 * time.Second,
		UserAgent: "airprobe/1.0",
	}
}

func newResults(target Target) *Results {
	return &Results{
		Target:    target.Name,
		BaseURL:   target.BaseURL,
		Gating:    target.Gating,
		StartTime: time.Now(),
	}
}

func (r *Results) add(res *CheckResult) {
	r.Checks = append(r.Checks, res)
}

// Get returns the result recorded for a check name.
func (r *Results) Get(name string) (*CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the check names in execution order.
func (r *Results) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		names = append(names, c.Name)
	}
	return names
}

// Passed counts the passing checks.
func (r *Results) Passed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// Total counts all recorded checks.
func (r *Results) Total() int { return len(r.Checks) }

// AllPassed reports whether every check passed. An empty result set passes.
func (r *Results) AllPassed() bool { return r.Passed() == r.Total() }

// RunCheck invokes one check handler and converts everything it can do
// into a CheckResult: a verdict, a returned error or a panic.
func RunCheck(ctx context.Context, execCtx *execContext.ExecutionContext, name string, fn checks.Handler) (result *CheckResult) {
	result = &CheckResult{
		Name:      name,
		Target:    execCtx.Target(),
		StartTime: time.Now(),
	}
	execCtx.SetLastCheck(name)

	defer func() {
		if r := recover(); r != nil {
			result.Passed = false
			result.Details = fmt.Sprintf("check panicked: %v", r)
			slog.Error("Check panicked", "check", name, "target", result.Target, "panic", r)
		}
		result.Duration = time.Since(result.StartTime).Seconds()
	}()

	if fn == nil {
		result.Details = "check has no handler"
		return result
	}

	verdict, err := fn(ctx, execCtx)
	switch {
	case err != nil:
		result.Details = err.Error()
		var te *client.TimeoutError
		if errors.As(err, &te) {
			slog.Warn("Check timed out", "check", name, "target", result.Target, "timeout", te.Timeout)
		}
	case verdict == nil:
		result.Details = "check returned no verdict"
	default:
		result.Passed = verdict.Passed
		result.Details = verdict.Details
		result.Warnings = verdict.Warnings
		result.StatusCode = verdict.StatusCode
		result.Snapshot = verdict.Snapshot
	}
	return result
}

// RunAll runs every check of the suite, in order, against one target. It
// never returns an error: definition problems, transport failures and
// cancellation all become failed results, one per check.
func RunAll(ctx context.Context, target Target, s *suite.Suite, opts *Options) *Results {
	if opts == nil {
		opts = DefaultOptions()
	}
	registry := opts.Registry
	if registry == nil {
		registry = checks.DefaultRegistry
	}

	results := newResults(target)
	execCtx := execContext.NewExecutionContext(target.Name, target.BaseURL)
	hc := client.New(client.Options{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
		Transport: opts.Transport,
	})
	defer hc.Close()
	execCtx.SetHTTPClient(hc)

	slog.Info("Starting target", "target", target.Name, "base_url", target.BaseURL, "checks", len(s.Checks))

	for i := range s.Checks {
		check := &s.Checks[i]

		if err := ctx.Err(); err != nil {
			results.add(&CheckResult{
				Name:      check.Name,
				Target:    target.Name,
				Details:   fmt.Sprintf("not run: %v", err),
				StartTime: time.Now(),
			})
			continue
		}

		handler, err := registry.Compile(check)
		if err != nil {
			results.add(&CheckResult{
				Name:      check.Name,
				Target:    target.Name,
				Details:   fmt.Sprintf("invalid check definition: %v", err),
				StartTime: time.Now(),
			})
			continue
		}

		res := RunCheck(ctx, execCtx, check.Name, handler)
		results.add(res)

		slog.Info("Check completed",
			"target", target.Name,
			"check", check.Name,
			"passed", res.Passed,
			"duration", res.Duration)
	}

	results.EndTime = time.Now()
	slog.Info("Target completed",
		"target", target.Name,
		"passed", results.Passed(),
		"total", results.Total())
	return results
}

// RunTargets runs the suite against every target in order. When no target
// is marked gating the first one is.
func RunTargets(ctx context.Context, targets []Target, s *suite.Suite, opts *Options) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Suite:     s.Name,
		StartedAt: time.Now(),
	}

	targets = append([]Target(nil), targets...)
	anyGating := false
	for _, t := range targets {
		anyGating = anyGating || t.Gating
	}
	if !anyGating && len(targets) > 0 {
		targets[0].Gating = true
	}

	slog.Info("Starting run", "run_id", report.RunID, "suite", s.Name, "targets", len(targets))
	for _, t := range targets {
		report.Targets = append(report.Targets, RunAll(ctx, t, s, opts))
	}
	report.FinishedAt = time.Now()
	return report
}

// GatingPassed reports whether every check of every gating target passed.
func (r *Report) GatingPassed() bool {
	for _, t := range r.Targets {
		if t.Gating && !t.AllPassed() {
			return false
		}
	}
	return true
}
