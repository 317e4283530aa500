package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"
)

// DefaultTCPPorts are the ports the TCP primitive tries when none are set
var DefaultTCPPorts = []int{53, 80, 443}

// DialFunc opens a connection, as net.Dialer.DialContext does
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCP treats a host as reachable when any port accepts or actively refuses
// a connection
type TCP struct {
	Ports []int
	// Dial opens connections, a plain net.Dialer by default
	Dial DialFunc
}

// NewTCP creates a TCP primitive trying ports
func NewTCP(ports []int) *TCP {
	if len(ports) == 0 {
		ports = DefaultTCPPorts
	}
	var d net.Dialer
	return &TCP{Ports: ports, Dial: d.DialContext}
}

// Name returns "tcp"
func (p *TCP) Name() string {
	return "tcp"
}

// Reach dials every port at once and returns on the first answer. A port
// that silently drops packets only costs its own dial, the timeout is shared.
func (p *TCP) Reach(ctx context.Context, address string, timeout time.Duration) error {
	if len(p.Ports) == 0 {
		return fmt.Errorf("tcp %s: no ports to try", address)
	}

	dial := p.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan error, len(p.Ports))
	for _, port := range p.Ports {
		go func(port int) {
			conn, err := dial(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
			if err == nil {
				conn.Close()
				results <- nil
				return
			}
			if IsRefused(err) {
				results <- nil
				return
			}
			results <- err
		}(port)
	}

	var lastErr error
	for range p.Ports {
		err := <-results
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("tcp %s: %w", address, lastErr)
}

// IsRefused reports whether a dial error is an active refusal, which means
// the host is up and the port is closed
func IsRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
