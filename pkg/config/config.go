// Package config loads airprobe settings from a YAML file, .env files and
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"airprobe/pkg/executor"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL     = "AIRPROBE_BASE_URL"
	EnvExternalURL = "AIRPROBE_EXTERNAL_URL"
	EnvConfig      = "AIRPROBE_CONFIG"
	EnvSuite       = "AIRPROBE_SUITE"
	EnvTimeout     = "AIRPROBE_TIMEOUT"
	EnvLogLevel    = "AIRPROBE_LOG_LEVEL"
)

// Defaults
const (
	DefaultSuite   = "core"
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 30 * time.Second
)

// Config represents the airprobe configuration
type Config struct {
	Suite     string            `yaml:"suite"`
	Targets   []executor.Target `yaml:"targets"`
	Timeout   time.Duration     `yaml:"timeout"`
	UserAgent string            `yaml:"user_agent"`
	LogLevel  string            `yaml:"log_level"`
	NoColor   bool              `yaml:"no_color"`
	Report    ReportConfig      `yaml:"report"`
}

// ReportConfig names the report files written after a run
type ReportConfig struct {
	JSON  string `yaml:"json"`
	JUnit string `yaml:"junit"`
}

// Default returns the configuration used when nothing else is given: the
// core suite against a local service, gating.
func Default() *Config {
	return &Config{
		Suite: DefaultSuite,
		Targets: []executor.Target{
			{Name: "Local", BaseURL: DefaultBaseURL, Gating: true},
		},
		Timeout:   DefaultTimeout,
		UserAgent: "airprobe/1.0",
		LogLevel:  "info",
	}
}

// Load reads configuration from a YAML file and fills unset fields with
// defaults.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Suite == "" {
		cfg.Suite = def.Suite
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = def.Targets
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

// LoadEnvFiles loads the .env files that exist among paths. Variables
// already present in the environment are not overridden. It returns the
// files that were loaded.
func LoadEnvFiles(paths ...string) []string {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment", "path", p)
		loaded = append(loaded, p)
	}
	return loaded
}

// ApplyEnv overrides configuration from environment variables.
// AIRPROBE_BASE_URL replaces the URL of the first target and
// AIRPROBE_EXTERNAL_URL sets or adds a non-gating "External" target.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvBaseURL); v != "" {
		if len(cfg.Targets) == 0 {
			cfg.Targets = []executor.Target{{Name: "Local", Gating: true}}
		}
		cfg.Targets[0].BaseURL = v
	}

	if v := getenv(EnvExternalURL); v != "" {
		cfg.SetExternalURL(v)
	}

	if v := getenv(EnvSuite); v != "" {
		cfg.Suite = v
	}

	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// SetExternalURL points the "External" target at baseURL, adding it as a
// non-gating target when absent.
func (c *Config) SetExternalURL(baseURL string) {
	for i := range c.Targets {
		if strings.EqualFold(c.Targets[i].Name, "External") {
			c.Targets[i].BaseURL = baseURL
			return
		}
	}
	c.Targets = append(c.Targets, executor.Target{Name: "External", BaseURL: baseURL})
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Suite == "" {
		return fmt.Errorf("suite is required")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("targets[%d].name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target name '%s'", t.Name)
		}
		seen[t.Name] = true

		u, err := url.Parse(t.BaseURL)
		if err != nil {
			return fmt.Errorf("target '%s': invalid base_url: %w", t.Name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("target '%s': base_url must be an absolute http(s) URL, got '%s'", t.Name, t.BaseURL)
		}
	}
	return nil
}
