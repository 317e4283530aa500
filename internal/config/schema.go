package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version   int           `yaml:"version"`
	Endpoints []string      `yaml:"endpoints"`
	Monitor   MonitorConfig `yaml:"monitor"`
	Layout    LayoutConfig  `yaml:"layout"`
	Server    ServerConfig  `yaml:"server"`
	Logging   LoggingConfig `yaml:"logging"`
	Watch     bool          `yaml:"watch"`
}

// MonitorConfig holds probing settings
type MonitorConfig struct {
	Interval      Duration `yaml:"interval"`
	Timeout       Duration `yaml:"timeout"`
	Overhead      Duration `yaml:"overhead"`
	Method        string   `yaml:"method"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	TCPPorts      []int    `yaml:"tcp_ports,omitempty"`
	STUNPort      int      `yaml:"stun_port,omitempty"`
}

// LayoutConfig holds ring layout settings
type LayoutConfig struct {
	Magnitude float64 `yaml:"magnitude"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Path of the log file; empty logs to stderr
	Path string `yaml:"path"`
}

// Duration wraps time.Duration for YAML unmarshaling. Bare numbers are
// seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration parses a Go duration string. Bare numbers are seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
