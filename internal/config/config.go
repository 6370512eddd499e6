package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the service configuration. Values come from an optional
// YAML file; RUNNER_URL, METRICS_ADDR and DAEMON_ENABLED env vars win
// over the file.
type Config struct {
	Runner struct {
		URL         string `yaml:"url"`
		ProfileName string `yaml:"profile_name"`
	} `yaml:"runner"`

	Daemon struct {
		Enabled        bool     `yaml:"enabled"`
		Cron           string   `yaml:"cron"`
		BatchSize      int      `yaml:"batch_size"`
		PageCodes      []string `yaml:"page_codes"`
		StaleThreshold string   `yaml:"stale_threshold"`
	} `yaml:"daemon"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	ReportDir string `yaml:"report_dir"`
}

// LoadConfig reads the YAML file at path. A missing file is not an
// error; defaults plus env overrides are returned instead.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Daemon.Cron == "" {
		// every 30 minutes, matching the original batch cadence
		c.Daemon.Cron = "0 */30 * * * *"
	}
	if c.Daemon.BatchSize <= 0 {
		c.Daemon.BatchSize = 5
	}
	if len(c.Daemon.PageCodes) == 0 {
		c.Daemon.PageCodes = []string{"funcion_judicial"}
	}
	if c.Daemon.StaleThreshold == "" {
		c.Daemon.StaleThreshold = "2h"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.ReportDir == "" {
		c.ReportDir = "reports"
	}
	if c.Runner.ProfileName == "" {
		c.Runner.ProfileName = "default"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RUNNER_URL"); v != "" {
		c.Runner.URL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("DAEMON_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Daemon.Enabled = enabled
		}
	}
}

// StaleAge parses the stale-process threshold, falling back to 2h.
func (c *Config) StaleAge() time.Duration {
	d, err := time.ParseDuration(c.Daemon.StaleThreshold)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}
