// Package config provides YAML-based configuration loading for kubesift.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mhoran/kubesift/internal/backend"
	"github.com/mhoran/kubesift/internal/reduce"
)

// Config is the top-level kubesift configuration, loaded from
// kubesift.yaml.
type Config struct {
	Kubeconfig string         `yaml:"kubeconfig"`
	Store      StoreConfig    `yaml:"store"`
	Backend    BackendConfig  `yaml:"backend"`
	Reduce     reduce.Config  `yaml:"reduce"`
	Timeouts   TimeoutsConfig `yaml:"timeouts"`
	Batch      BatchConfig    `yaml:"batch"`
	Notify     NotifyConfig   `yaml:"notify"`
	Watch      WatchConfig    `yaml:"watch"`
}

// StoreConfig locates the history database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite (default) | mysql
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // mysql DSN
}

// BackendConfig holds analysis defaults. Credentials are read from the
// environment, never from this file.
type BackendConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	APIBaseURL    string `yaml:"api_base_url"`
	Mode          string `yaml:"mode"` // simple | full_scan
	MaxIterations int    `yaml:"max_iterations"`
}

// TimeoutsConfig overrides the external-call budgets, in seconds.
type TimeoutsConfig struct {
	ExtractListSec int `yaml:"extract_list_sec"`
	ExtractLogsSec int `yaml:"extract_logs_sec"`
	SimpleSec      int `yaml:"simple_sec"`
	FullScanSec    int `yaml:"full_scan_sec"`
}

// BatchConfig bounds batch concurrency.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// NotifyConfig enables Slack notifications for batch runs. The bot token
// is read from SLACK_BOT_TOKEN, never from this file.
type NotifyConfig struct {
	SlackChannel string `yaml:"slack_channel"`
}

// WatchConfig schedules recurring batch analyses.
type WatchConfig struct {
	Schedule   string          `yaml:"schedule"` // 5-field cron expression
	Components []WatchedTarget `yaml:"components"`
}

// WatchedTarget is one workload in the watch rotation.
type WatchedTarget struct {
	ComponentType string `yaml:"component_type"`
	ComponentName string `yaml:"component_name"`
	Namespace     string `yaml:"namespace"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults, matching first-run use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Backend.Provider == "" {
		c.Backend.Provider = "gemini"
	}
	if c.Backend.Mode == "" {
		c.Backend.Mode = backend.ModeSimple
	}
	if c.Backend.MaxIterations == 0 {
		c.Backend.MaxIterations = 50
	}
	if c.Reduce.MaxLines == 0 {
		c.Reduce.MaxLines = reduce.DefaultMaxLines
	}
	if c.Reduce.MaxChars == 0 {
		c.Reduce.MaxChars = reduce.DefaultMaxChars
	}
	if len(c.Reduce.PriorityKeywords) == 0 {
		c.Reduce.PriorityKeywords = reduce.DefaultPriorityKeywords
	}
	if c.Timeouts.ExtractListSec == 0 {
		c.Timeouts.ExtractListSec = 30
	}
	if c.Timeouts.ExtractLogsSec == 0 {
		c.Timeouts.ExtractLogsSec = 300
	}
	if c.Timeouts.SimpleSec == 0 {
		c.Timeouts.SimpleSec = 120
	}
	if c.Timeouts.FullScanSec == 0 {
		c.Timeouts.FullScanSec = 180
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 3
	}
	for i := range c.Watch.Components {
		if c.Watch.Components[i].Namespace == "" {
			c.Watch.Components[i].Namespace = "default"
		}
	}
}

// validate checks that all configured values are consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Store.Driver != "sqlite" && c.Store.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("store.driver %q is not sqlite or mysql", c.Store.Driver))
	}
	if c.Store.Driver == "mysql" && c.Store.DSN == "" {
		errs = append(errs, "store.dsn is required for the mysql driver")
	}
	if _, err := backend.LookupProvider(c.Backend.Provider); err != nil {
		errs = append(errs, fmt.Sprintf("backend.provider %q is not supported", c.Backend.Provider))
	}
	if c.Backend.Mode != backend.ModeSimple && c.Backend.Mode != backend.ModeFullScan {
		errs = append(errs, fmt.Sprintf("backend.mode %q is not simple or full_scan", c.Backend.Mode))
	}
	if c.Reduce.MaxLines < 0 {
		errs = append(errs, "reduce.max_lines must be positive")
	}
	if c.Reduce.MaxChars < 0 {
		errs = append(errs, "reduce.max_chars must be positive")
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, "batch.workers must be positive")
	}
	for i, target := range c.Watch.Components {
		if target.ComponentName == "" {
			errs = append(errs, fmt.Sprintf("watch.components[%d].component_name is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
