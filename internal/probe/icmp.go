package probe

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// ICMP sends one echo request through the system ping binary
type ICMP struct {
	// Binary is the ping executable, "ping" by default
	Binary string
	goos   string
}

// NewICMP creates an ICMP primitive for the running OS
func NewICMP() *ICMP {
	return &ICMP{Binary: "ping", goos: runtime.GOOS}
}

// Name returns "icmp"
func (p *ICMP) Name() string {
	return "icmp"
}

// Reach runs ping with a single packet. Exit status 0 means reachable.
func (p *ICMP) Reach(ctx context.Context, address string, timeout time.Duration) error {
	// Give the process a little longer than its own wait flag
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Binary, p.Args(address, timeout)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ping %s: %w", address, err)
	}
	return nil
}

// Args builds the ping arguments for one packet with the given wait
func (p *ICMP) Args(address string, timeout time.Duration) []string {
	switch p.goos {
	case "windows":
		ms := int(timeout.Milliseconds())
		if ms < 1 {
			ms = 1
		}
		return []string{"-n", "1", "-w", strconv.Itoa(ms), address}
	case "darwin", "freebsd", "netbsd", "openbsd":
		// BSD ping: -W is in milliseconds
		ms := int(timeout.Milliseconds())
		if ms < 1 {
			ms = 1
		}
		return []string{"-c", "1", "-W", strconv.Itoa(ms), address}
	default:
		// Linux ping: -c count, -W timeout in seconds
		sec := int(timeout.Seconds())
		if sec < 1 {
			sec = 1
		}
		return []string{"-c", "1", "-W", strconv.Itoa(sec), address}
	}
}
