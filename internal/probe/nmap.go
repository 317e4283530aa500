package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// Nmap runs nmap host discovery (-sn) against a single address
type Nmap struct {
	// Binary overrides the nmap executable path when set
	Binary string
}

// NewNmap creates an nmap primitive
func NewNmap() *Nmap {
	return &Nmap{}
}

// Name returns "nmap"
func (p *Nmap) Name() string {
	return "nmap"
}

// Options builds the scanner options for one host discovery probe
func (p *Nmap) Options(address string, timeout time.Duration) []nmap.Option {
	opts := []nmap.Option{
		nmap.WithTargets(address),
		nmap.WithPingScan(),
		nmap.WithMaxRetries(0),
		nmap.WithHostTimeout(timeout),
	}
	if strings.Contains(address, ":") {
		opts = append(opts, nmap.WithIPv6Scanning())
	}
	if p.Binary != "" {
		opts = append(opts, nmap.WithBinaryPath(p.Binary))
	}
	return opts
}

// Reach reports success when nmap sees the host as up
func (p *Nmap) Reach(ctx context.Context, address string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx, p.Options(address, timeout)...)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	result, _, err := scanner.Run()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	for _, host := range result.Hosts {
		if host.Status.State == "up" {
			return nil
		}
	}
	return fmt.Errorf("nmap %s: host down", address)
}
