// Package config loads and validates the inspection run configuration.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"
)

type Config struct {
	Version     int    `toml:"version"`
	Enabled     *bool  `toml:"enabled"`
	ProjectRoot string `toml:"project_root"`
	MinSeverity string `toml:"min_severity"`

	Scan          Scan                    `toml:"scan"`
	Execution     Execution               `toml:"execution"`
	Rules         map[string]RuleOverride `toml:"rules"`
	Lifecycle     Lifecycle               `toml:"lifecycle"`
	Loops         Loops                   `toml:"loops"`
	Routes        Routes                  `toml:"routes"`
	History       History                 `toml:"history"`
	Observability Observability           `toml:"observability"`
	Watch         Watch                   `toml:"watch"`
}

type Scan struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Execution struct {
	Parallel     *bool `toml:"parallel"`
	MaxWorkers   int   `toml:"max_workers"`
	CacheEnabled *bool `toml:"cache_enabled"`
}

type RuleOverride struct {
	Enabled  *bool  `toml:"enabled"`
	Severity string `toml:"severity"`
}

type Lifecycle struct {
	AcquireCalls []string `toml:"acquire_calls"`
	ReleaseCalls []string `toml:"release_calls"`
}

type Loops struct {
	AccessCalls []string `toml:"access_calls"`
}

type Routes struct {
	CatchAllNames []string `toml:"catch_all_names"`
	Parents       []string `toml:"parents"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Load reads a TOML config file, fills defaults and validates. A missing
// file is an error; use Default for config-less runs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateSeverities(&cfg); err != nil {
		return nil, err
	}
	if err := validateExecution(&cfg); err != nil {
		return nil, err
	}
	if err := validateHistory(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	if strings.TrimSpace(cfg.MinSeverity) == "" {
		cfg.MinSeverity = "hint"
	}

	if len(cfg.Scan.Exclude) == 0 {
		cfg.Scan.Exclude = []string{
			"**/target/**",
			"**/node_modules/**",
			"**/.git/**",
			"**/.idea/**",
		}
	}

	if cfg.Execution.MaxWorkers <= 0 {
		cfg.Execution.MaxWorkers = runtime.NumCPU()
	}

	if len(cfg.Lifecycle.AcquireCalls) == 0 {
		cfg.Lifecycle.AcquireCalls = []string{"login", "getSession", "impersonate"}
	}
	if len(cfg.Lifecycle.ReleaseCalls) == 0 {
		cfg.Lifecycle.ReleaseCalls = []string{"logout", "close"}
	}
	if len(cfg.Loops.AccessCalls) == 0 {
		cfg.Loops.AccessCalls = []string{"getNode", "getNodeByIdentifier", "getProperty", "execute"}
	}
	if len(cfg.Routes.CatchAllNames) == 0 {
		cfg.Routes.CatchAllNames = []string{"**", "_any", "_any_"}
	}
	if len(cfg.Routes.Parents) == 0 {
		cfg.Routes.Parents = []string{"sitemap", "routes"}
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "inspections.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

// IsEnabled reports whether inspection runs at all; it defaults to on.
// A disabled run yields an empty aggregate without touching any file.
func (cfg *Config) IsEnabled() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// IsParallel reports whether parallel execution is on; it defaults to on.
func (e Execution) IsParallel() bool {
	if e.Parallel == nil {
		return true
	}
	return *e.Parallel
}

// IsCacheEnabled reports whether the run cache is on; it defaults to on.
func (e Execution) IsCacheEnabled() bool {
	if e.CacheEnabled == nil {
		return true
	}
	return *e.CacheEnabled
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	for _, pattern := range append(append([]string{}, cfg.Scan.Include...), cfg.Scan.Exclude...) {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("scan patterns must not be empty")
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid scan pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func validateSeverities(cfg *Config) error {
	if _, err := rule.ParseSeverity(cfg.MinSeverity); err != nil {
		return fmt.Errorf("min_severity: %w", err)
	}
	for id, override := range cfg.Rules {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("rule override with empty rule id")
		}
		if override.Severity == "" {
			continue
		}
		if _, err := rule.ParseSeverity(override.Severity); err != nil {
			return fmt.Errorf("rules.%s.severity: %w", id, err)
		}
	}
	return nil
}

func validateExecution(cfg *Config) error {
	if cfg.Execution.MaxWorkers < 1 {
		return fmt.Errorf("execution.max_workers must be >= 1, got %d", cfg.Execution.MaxWorkers)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	return nil
}

// Settings converts the validated config into the rule-facing settings
// bundle. Severity strings were checked during Load, so parse failures here
// only happen for configs built in code; those fall back to the defaults.
func (cfg *Config) Settings() rule.Settings {
	minSeverity, _ := rule.ParseSeverity(cfg.MinSeverity)

	perRule := make(map[string]rule.Override, len(cfg.Rules))
	for id, override := range cfg.Rules {
		o := rule.Override{Enabled: override.Enabled}
		if override.Severity != "" {
			if sev, err := rule.ParseSeverity(override.Severity); err == nil {
				o.Severity = &sev
			}
		}
		perRule[id] = o
	}

	return rule.Settings{
		MinSeverity:   minSeverity,
		AcquireCalls:  cfg.Lifecycle.AcquireCalls,
		ReleaseCalls:  cfg.Lifecycle.ReleaseCalls,
		AccessCalls:   cfg.Loops.AccessCalls,
		CatchAllNames: cfg.Routes.CatchAllNames,
		RouteParents:  cfg.Routes.Parents,
		PerRule:       perRule,
	}
}
