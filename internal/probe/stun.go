package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pion/stun/v3"
)

// DefaultSTUNPort is used when the address carries no port
const DefaultSTUNPort = 3478

// STUN sends one binding request to the endpoint and treats any binding
// response as reachable
type STUN struct {
	Port int
}

// NewSTUN creates a STUN primitive
func NewSTUN(port int) *STUN {
	if port <= 0 {
		port = DefaultSTUNPort
	}
	return &STUN{Port: port}
}

// Name returns "stun"
func (p *STUN) Name() string {
	return "stun"
}

// URI builds the stun: URI for address, adding the default port when the
// address has none
func (p *STUN) URI(address string) string {
	a := strings.TrimPrefix(strings.TrimSpace(address), "stun:")
	if _, _, err := net.SplitHostPort(a); err == nil {
		return "stun:" + a
	}
	return "stun:" + net.JoinHostPort(strings.Trim(a, "[]"), strconv.Itoa(p.Port))
}

// Reach waits for a binding response or the timeout
func (p *STUN) Reach(ctx context.Context, address string, timeout time.Duration) error {
	uri, err := stun.ParseURI(p.URI(address))
	if err != nil {
		return err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return err
	}
	defer client.Close()

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	done := make(chan error, 1)

	go func() {
		err := client.Do(msg, func(res stun.Event) {
			done <- res.Error
		})
		if err != nil {
			done <- err
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("stun %s: %w", address, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
