package config

import (
	"errors"
	"fmt"
	"net"

	"reachgraph/internal/probe"
)

const (
	fmtErrEmptyConfigOption   = "config option %s must not be empty"
	fmtErrInvalidConfigOption = "config option %s is invalid: %s"
)

// Validate checks the config after defaults have been applied
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is empty")
	}

	var errs []error
	errs = append(errs, c.validateMonitor()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLogging()...)

	if c.Layout.Magnitude <= 0 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "layout.magnitude", "must be positive"))
	}
	for i, e := range c.Endpoints {
		if e == "" {
			errs = append(errs, fmt.Errorf(fmtErrEmptyConfigOption, fmt.Sprintf("endpoints[%d]", i)))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) validateMonitor() []error {
	var errs []error
	m := c.Monitor

	if m.Interval <= 0 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.interval", "must be positive"))
	}
	if m.Timeout <= 0 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.timeout", "must be positive"))
	}
	if m.Overhead < 0 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.overhead", "must not be negative"))
	}
	if m.Method == "" {
		errs = append(errs, fmt.Errorf(fmtErrEmptyConfigOption, "monitor.method"))
	} else if !probe.IsMethod(m.Method) {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.method",
			fmt.Sprintf("%q is not one of %v", m.Method, probe.Methods())))
	}
	if m.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.max_concurrent", "must not be negative"))
	}
	for _, p := range m.TCPPorts {
		if p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.tcp_ports",
				fmt.Sprintf("%d is outside 1-65535", p)))
		}
	}
	if m.STUNPort <= 0 || m.STUNPort > 65535 {
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "monitor.stun_port", "must be in the range 1-65535"))
	}
	return errs
}

func (c *Config) validateServer() []error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Listen == "" {
		return []error{fmt.Errorf(fmtErrEmptyConfigOption, "server.listen")}
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return []error{fmt.Errorf(fmtErrInvalidConfigOption, "server.listen", err.Error())}
	}
	return nil
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "logging.level",
			fmt.Sprintf("%q is not one of debug, info, warn, error", c.Logging.Level)))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(fmtErrInvalidConfigOption, "logging.format",
			fmt.Sprintf("%q is not one of text, json", c.Logging.Format)))
	}
	return errs
}
