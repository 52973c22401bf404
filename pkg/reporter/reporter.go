// Package reporter provides functions for formatting and outputting run results.
package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"airprobe/pkg/executor"
)

// Exit codes returned by Summarize.
const (
	ExitOK     = 0
	ExitFailed = 1
)

type palette struct {
	success, failure, highlight, warning func(a ...interface{}) string
}

func newPalette() palette {
	return palette{
		success:   color.New(color.FgGreen).SprintFunc(),
		failure:   color.New(color.FgRed).SprintFunc(),
		highlight: color.New(color.FgCyan).SprintFunc(),
		warning:   color.New(color.FgYellow).SprintFunc(),
	}
}

// PrintCheck prints one result: a PASS or FAIL line followed by its
// details and warnings.
func PrintCheck(w io.Writer, result *executor.CheckResult) {
	p := newPalette()
	printCheck(w, p, result)
}

func printCheck(w io.Writer, p palette, result *executor.CheckResult) {
	status := p.success("PASS")
	if !result.Passed {
		status = p.failure("FAIL")
	}
	fmt.Fprintf(w, "%s %s\n", status, result.Name)
	if result.Details != "" {
		fmt.Fprintf(w, "   Details: %s\n", Indent(result.Details))
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "   %s %s\n", p.warning("Warning:"), Indent(warn))
	}
}

// continuation indents the wrapped lines of details and warnings.
const continuation = "            "

// Indent prefixes every line after the first with the continuation
// indent. Trailing newlines are dropped.
func Indent(text string) string {
	text = strings.TrimRight(text, "\r\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\n", "\n"+continuation)
}

// PrintTarget prints every result of one target and its x/y line.
func PrintTarget(w io.Writer, results *executor.Results) {
	printTarget(w, newPalette(), results)
}

func printTarget(w io.Writer, p palette, results *executor.Results) {
	gating := ""
	if results.Gating {
		gating = " [gating]"
	}
	fmt.Fprintf(w, "\nTarget: %s (%s)%s\n", p.highlight(results.Target), results.BaseURL, gating)
	fmt.Fprintf(w, "Started: %s\n", results.StartTime.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))

	for _, r := range results.Checks {
		printCheck(w, p, r)
	}

	fmt.Fprintf(w, "\n%s Results: %d/%d tests passed\n", results.Target, results.Passed(), results.Total())
}

// Summarize prints the whole report and returns the process exit code:
// 0 iff every check of every gating target passed, 1 otherwise.
func Summarize(w io.Writer, report *executor.Report) int {
	p := newPalette()

	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "airprobe run %s (suite: %s)\n", report.RunID, report.Suite)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))

	for _, t := range report.Targets {
		printTarget(w, p, t)
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintln(w, "OVERALL TEST SUMMARY")
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))

	for _, t := range report.Targets {
		fmt.Fprintf(w, "\n%s:\n", p.highlight(t.Target))
		for _, r := range t.Checks {
			mark := p.success("✓")
			if !r.Passed {
				mark = p.failure("✗")
			}
			fmt.Fprintf(w, "  %s %s\n", mark, r.Name)
		}
	}

	fmt.Fprintln(w, "\nCritical Assessment:")
	for _, t := range report.Targets {
		if !t.Gating {
			continue
		}
		fmt.Fprintf(w, "%s: %d/%d tests passed\n", t.Target, t.Passed(), t.Total())
	}

	if report.GatingPassed() {
		fmt.Fprintln(w, p.success("Backend API is fully functional"))
		return ExitOK
	}
	fmt.Fprintln(w, p.failure("Backend API has issues"))
	return ExitFailed
}
