// Package main implements the command-line interface of airprobe, the
// integration-test runner for the Airease flight-search API. It loads the
// configuration, resolves the suite, runs it against every target and
// reports the results.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airprobe/pkg/config"
)

// Exit codes: 0 all gating checks passed, 1 a gating check failed,
// 2 usage or configuration error before any check ran.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

var (
	// Global flags
	configPath string
	logLevel   string
	noColor    bool
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, args ...interface{}) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "airprobe",
	Short: "Integration-test runner for the Airease flight-search API",
	Long: `airprobe issues HTTP requests against a running Airease deployment and
asserts on the JSON it returns: health, flight search, price watches,
notifications and the AI recommendation endpoints.

Every check prints one PASS or FAIL line. The exit code is 0 when every
check of every gating target passed, 1 otherwise and 2 when the run could
not start.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles(".env", ".env.local")

		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if v := os.Getenv(config.EnvLogLevel); v != "" {
				level = v
			}
		}
		setupLogging(level)

		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

// setupLogging installs a text slog handler on stderr.
func setupLogging(name string) {
	var level slog.Level
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(runCmd, listCmd, validateCmd, inspectCmd)
}

func main() {
	os.Exit(execute())
}

func execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			slog.Error("airprobe failed", "error", ee.err)
		}
		return ee.code
	}

	// cobra's own errors: unknown flags, wrong argument counts
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitUsage
}
