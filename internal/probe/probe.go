// Package probe checks whether a single endpoint is reachable.
//
// A Primitive is the black-box mechanism that sends one probe (an ICMP echo
// through the system ping binary, a TCP connect, an nmap host discovery or a
// STUN binding request). The Prober wraps a primitive with a hard time bound
// and collapses every failure mode into domain.StatusDisconnected.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reachgraph/internal/domain"
)

const (
	// DefaultTimeout is the per-probe timeout handed to the primitive
	DefaultTimeout = time.Second
	// DefaultOverhead is how long past the timeout the prober waits for a
	// primitive before giving up on it
	DefaultOverhead = 500 * time.Millisecond
)

// Primitive performs one reachability probe. A nil error means reachable.
type Primitive interface {
	// Name returns the primitive identifier (icmp, tcp, nmap, stun)
	Name() string

	// Reach sends one probe to address and waits at most timeout
	Reach(ctx context.Context, address string, timeout time.Duration) error
}

// Func adapts a plain function to the Primitive interface
type Func func(ctx context.Context, address string, timeout time.Duration) error

// Name returns "func"
func (f Func) Name() string {
	return "func"
}

// Reach calls f
func (f Func) Reach(ctx context.Context, address string, timeout time.Duration) error {
	return f(ctx, address, timeout)
}

// Config holds prober settings
type Config struct {
	// Timeout handed to the primitive for each probe
	Timeout time.Duration
	// Overhead added to Timeout for the hard wait bound
	Overhead time.Duration
}

// DefaultConfig returns the default prober settings
func DefaultConfig() Config {
	return Config{
		Timeout:  DefaultTimeout,
		Overhead: DefaultOverhead,
	}
}

// Prober maps primitive outcomes to a liveness status
type Prober struct {
	primitive Primitive
	config    Config
	logger    *slog.Logger
}

// New creates a prober around primitive
func New(primitive Primitive, config Config, logger *slog.Logger) *Prober {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Overhead < 0 {
		config.Overhead = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		primitive: primitive,
		config:    config,
		logger:    logger.With("component", "prober", "method", primitive.Name()),
	}
}

// Method returns the name of the wrapped primitive
func (p *Prober) Method() string {
	return p.primitive.Name()
}

// Timeout returns the per-probe timeout
func (p *Prober) Timeout() time.Duration {
	return p.config.Timeout
}

// Probe runs one probe against address. It never returns an error: success
// maps to Connected, everything else (error, timeout, cancellation, panic)
// maps to Disconnected. It returns within Timeout+Overhead.
func (p *Prober) Probe(ctx context.Context, address string) domain.Status {
	bound := p.config.Timeout + p.config.Overhead
	ctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("primitive panicked: %v", r)
			}
		}()
		done <- p.primitive.Reach(ctx, address, p.config.Timeout)
	}()

	select {
	case err := <-done:
		if err != nil {
			p.logger.Debug("probe failure", "address", address, "error", err)
			return domain.StatusDisconnected
		}
		return domain.StatusConnected
	case <-ctx.Done():
		p.logger.Debug("probe failure", "address", address, "error", ctx.Err())
		return domain.StatusDisconnected
	}
}
