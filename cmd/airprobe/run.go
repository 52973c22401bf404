package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airprobe/pkg/config"
	"airprobe/pkg/executor"
	"airprobe/pkg/reporter"
	"airprobe/pkg/suite"
)

var (
	runBaseURL     string
	runExternalURL string
	runTargets     []string
	runSuite       string
	runTimeout     time.Duration
	runJSONPath    string
	runJUnitPath   string
)

// runCmd executes a suite against the configured targets
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a suite against one or more targets",
	Long: `Runs every check of the suite, in order, against each target.

The first target is gating unless the configuration marks others: only
gating targets decide the exit code.

Examples:
  airprobe run --base-url http://localhost:3000
  airprobe run --suite all --target Local=http://localhost:3000 --target External=https://airease.example.com
  airprobe run --suite ./custom.yaml --junit report.xml`,
	Args: cobra.NoArgs,
	RunE: runSuiteCmd,
}

func init() {
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Base URL of the first target (default $"+config.EnvBaseURL+")")
	runCmd.Flags().StringVar(&runExternalURL, "external-url", "", "Base URL of a non-gating External target")
	runCmd.Flags().StringArrayVar(&runTargets, "target", nil, "Target as name=url; repeatable, replaces configured targets")
	runCmd.Flags().StringVarP(&runSuite, "suite", "s", "", "Built-in suite name or path to a suite file")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-request timeout for checks that declare none (all built-in checks)")
	runCmd.Flags().StringVar(&runJSONPath, "json", "", "Write a JSON report to this path")
	runCmd.Flags().StringVar(&runJUnitPath, "junit", "", "Write a JUnit XML report to this path")
}

// loadConfig resolves settings with precedence flags > env > file > defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		slog.Debug("Loaded config", "path", path)
	}

	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if len(runTargets) > 0 {
		targets := make([]executor.Target, 0, len(runTargets))
		for _, spec := range runTargets {
			name, baseURL, ok := strings.Cut(spec, "=")
			if !ok || name == "" || baseURL == "" {
				return nil, fmt.Errorf("invalid --target '%s', expected name=url", spec)
			}
			targets = append(targets, executor.Target{Name: name, BaseURL: baseURL})
		}
		cfg.Targets = targets
	}
	if flags.Changed("base-url") {
		cfg.Targets[0].BaseURL = runBaseURL
	}
	if flags.Changed("external-url") {
		cfg.SetExternalURL(runExternalURL)
	}
	if flags.Changed("suite") {
		cfg.Suite = runSuite
	}
	if flags.Changed("timeout") {
		cfg.Timeout = runTimeout
	}
	if flags.Changed("json") {
		cfg.Report.JSON = runJSONPath
	}
	if flags.Changed("junit") {
		cfg.Report.JUnit = runJUnitPath
	}

	return cfg, cfg.Validate()
}

func runSuiteCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageErr("invalid configuration: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		setupLogging(cfg.LogLevel)
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	s, err := suite.Resolve(cfg.Suite)
	if err != nil {
		return usageErr("failed to load suite: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := executor.DefaultOptions()
	opts.Timeout = cfg.Timeout
	opts.UserAgent = cfg.UserAgent

	report := executor.RunTargets(ctx, cfg.Targets, s, opts)
	code := reporter.Summarize(cmd.OutOrStdout(), report)

	if cfg.Report.JSON != "" {
		if err := reporter.WriteJSON(cfg.Report.JSON, report); err != nil {
			slog.Error("Failed to write JSON report", "error", err)
			code = exitFail
		} else {
			slog.Info("Wrote JSON report", "path", cfg.Report.JSON)
		}
	}
	if cfg.Report.JUnit != "" {
		if err := reporter.WriteJUnit(cfg.Report.JUnit, report); err != nil {
			slog.Error("Failed to write JUnit report", "error", err)
			code = exitFail
		} else {
			slog.Info("Wrote JUnit report", "path", cfg.Report.JUnit)
		}
	}

	if code != exitOK {
		return &exitError{code: code}
	}
	return nil
}
