// Package config loads the reachgraph configuration file.
//
// Config file locations (priority order):
//  1. explicit path (--config flag)
//  2. $REACHGRAPH_CONFIG
//  3. ./reachgraph.yaml
//  4. $XDG_CONFIG_HOME/reachgraph/config.yaml
//  5. ~/.config/reachgraph/config.yaml
//  6. /etc/reachgraph/config.yaml
//
// Values missing from the file keep their defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reachgraph/internal/layout"
	"reachgraph/internal/probe"
	"reachgraph/internal/scheduler"
)

// DefaultEndpoints are monitored when the config names none
var DefaultEndpoints = []string{"8.8.8.8", "8.8.4.4", "139.130.4.5"}

const (
	DefaultListen    = ":3000"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Load finds and loads the config file, or returns defaults if none found.
// A non-empty explicit path must exist.
func Load(explicit string) (*Config, string, error) {
	if explicit != "" {
		return LoadFromPath(explicit)
	}

	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes a config document over the defaults and validates it
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultConfig returns the defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		Endpoints: append([]string(nil), DefaultEndpoints...),
		Monitor: MonitorConfig{
			Interval: Duration(scheduler.DefaultInterval),
			Timeout:  Duration(probe.DefaultTimeout),
			Overhead: Duration(probe.DefaultOverhead),
			Method:   probe.MethodICMP,
			TCPPorts: append([]int(nil), probe.DefaultTCPPorts...),
			STUNPort: probe.DefaultSTUNPort,
		},
		Layout: LayoutConfig{Magnitude: layout.DefaultMagnitude},
		Server: ServerConfig{Enabled: true, Listen: DefaultListen},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Watch: true,
	}
}

// applyDefaults fills in zero values left by the file
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Endpoints == nil {
		c.Endpoints = append([]string(nil), DefaultEndpoints...)
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = Duration(scheduler.DefaultInterval)
	}
	if c.Monitor.Timeout == 0 {
		c.Monitor.Timeout = Duration(probe.DefaultTimeout)
	}
	c.Monitor.Method = strings.ToLower(strings.TrimSpace(c.Monitor.Method))
	if c.Monitor.Method == "" {
		c.Monitor.Method = probe.MethodICMP
	}
	if len(c.Monitor.TCPPorts) == 0 {
		c.Monitor.TCPPorts = append([]int(nil), probe.DefaultTCPPorts...)
	}
	if c.Monitor.STUNPort == 0 {
		c.Monitor.STUNPort = probe.DefaultSTUNPort
	}
	if c.Layout.Magnitude == 0 {
		c.Layout.Magnitude = layout.DefaultMagnitude
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// ProbeConfig returns the prober settings
func (c *Config) ProbeConfig() probe.Config {
	return probe.Config{
		Timeout:  c.Monitor.Timeout.Duration(),
		Overhead: c.Monitor.Overhead.Duration(),
	}
}

// ProbeOptions returns the primitive settings
func (c *Config) ProbeOptions() probe.Options {
	return probe.Options{
		TCPPorts: c.Monitor.TCPPorts,
		STUNPort: c.Monitor.STUNPort,
	}
}

// SchedulerConfig returns the scheduler settings
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Interval:      c.Monitor.Interval.Duration(),
		MaxConcurrent: c.Monitor.MaxConcurrent,
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Endpoints (%d): %s\n", len(c.Endpoints), strings.Join(c.Endpoints, ", "))
	summary += fmt.Sprintf("Method: %s, Interval: %s, Timeout: %s, Concurrency: %s\n",
		c.Monitor.Method, c.Monitor.Interval, c.Monitor.Timeout, concurrency(c.Monitor.MaxConcurrent))
	if c.Server.Enabled {
		summary += fmt.Sprintf("Server: %s", c.Server.Listen)
	} else {
		summary += "Server: disabled"
	}
	return summary
}

func concurrency(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}

// RoundBound is the longest a single round can take with these settings
func (c *Config) RoundBound() time.Duration {
	return c.Monitor.Timeout.Duration() + c.Monitor.Overhead.Duration()
}
