package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProber(f Func, timeout, overhead time.Duration) *Prober {
	return New(f, Config{Timeout: timeout, Overhead: overhead}, quietLogger())
}

func TestProberProbe(t *testing.T) {
	t.Run("success maps to connected", func(t *testing.T) {
		p := newTestProber(func(context.Context, string, time.Duration) error {
			return nil
		}, time.Second, 0)

		assert.Equal(t, domain.StatusConnected, p.Probe(context.Background(), "8.8.8.8"))
	})

	t.Run("error maps to disconnected", func(t *testing.T) {
		p := newTestProber(func(context.Context, string, time.Duration) error {
			return errors.New("unreachable")
		}, time.Second, 0)

		assert.Equal(t, domain.StatusDisconnected, p.Probe(context.Background(), "8.8.8.8"))
	})

	t.Run("panic maps to disconnected", func(t *testing.T) {
		p := newTestProber(func(context.Context, string, time.Duration) error {
			panic("boom")
		}, time.Second, 0)

		assert.Equal(t, domain.StatusDisconnected, p.Probe(context.Background(), "8.8.8.8"))
	})

	t.Run("hung primitive is bounded by timeout plus overhead", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		p := newTestProber(func(context.Context, string, time.Duration) error {
			<-release
			return nil
		}, 20*time.Millisecond, 10*time.Millisecond)

		start := time.Now()
		status := p.Probe(context.Background(), "8.8.4.4")

		assert.Equal(t, domain.StatusDisconnected, status)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context maps to disconnected", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := newTestProber(func(ctx context.Context, _ string, _ time.Duration) error {
			<-ctx.Done()
			return ctx.Err()
		}, time.Second, 0)

		assert.Equal(t, domain.StatusDisconnected, p.Probe(ctx, "8.8.8.8"))
	})

	t.Run("primitive receives the configured timeout", func(t *testing.T) {
		var got time.Duration
		p := newTestProber(func(_ context.Context, _ string, timeout time.Duration) error {
			got = timeout
			return nil
		}, 750*time.Millisecond, 0)

		p.Probe(context.Background(), "8.8.8.8")
		assert.Equal(t, 750*time.Millisecond, got)
	})
}

func TestNewDefaults(t *testing.T) {
	p := New(Func(func(context.Context, string, time.Duration) error { return nil }), Config{}, nil)

	assert.Equal(t, DefaultTimeout, p.Timeout())
	assert.Equal(t, "func", p.Method())
}

func TestICMPArgs(t *testing.T) {
	tests := []struct {
		goos    string
		timeout time.Duration
		want    []string
	}{
		{"linux", time.Second, []string{"-c", "1", "-W", "1", "8.8.8.8"}},
		{"linux", 200 * time.Millisecond, []string{"-c", "1", "-W", "1", "8.8.8.8"}},
		{"linux", 3 * time.Second, []string{"-c", "1", "-W", "3", "8.8.8.8"}},
		{"darwin", time.Second, []string{"-c", "1", "-W", "1000", "8.8.8.8"}},
		{"windows", 1500 * time.Millisecond, []string{"-n", "1", "-w", "1500", "8.8.8.8"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.timeout.String(), func(t *testing.T) {
			p := &ICMP{Binary: "ping", goos: tt.goos}
			assert.Equal(t, tt.want, p.Args("8.8.8.8", tt.timeout))
		})
	}
}

func TestICMPMissingBinary(t *testing.T) {
	p := NewICMP()
	p.Binary = "reachgraph-no-such-ping"

	err := p.Reach(context.Background(), "127.0.0.1", 100*time.Millisecond)
	assert.Error(t, err)
}

func TestTCPReach(t *testing.T) {
	t.Run("listening port is reachable", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}()

		port := ln.Addr().(*net.TCPAddr).Port
		p := NewTCP([]int{port})

		assert.NoError(t, p.Reach(context.Background(), "127.0.0.1", time.Second))
	})

	t.Run("refused port still counts as reachable", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		p := NewTCP([]int{port})

		assert.NoError(t, p.Reach(context.Background(), "127.0.0.1", time.Second))
	})

	t.Run("filtered port does not hide a later open one", func(t *testing.T) {
		p := NewTCP([]int{53, 80})
		p.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
			if address == "192.0.2.10:53" {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			client, server := net.Pipe()
			server.Close()
			return client, nil
		}

		start := time.Now()
		err := p.Reach(context.Background(), "192.0.2.10", time.Second)

		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("every port silent is unreachable", func(t *testing.T) {
		p := NewTCP([]int{53, 80, 443})
		p.Dial = func(ctx context.Context, network, address string) (net.Conn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}

		err := p.Reach(context.Background(), "192.0.2.10", 50*time.Millisecond)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("no ports", func(t *testing.T) {
		p := &TCP{}
		assert.Error(t, p.Reach(context.Background(), "127.0.0.1", time.Second))
	})

	t.Run("default ports", func(t *testing.T) {
		assert.Equal(t, DefaultTCPPorts, NewTCP(nil).Ports)
	})
}

func TestSTUNURI(t *testing.T) {
	p := NewSTUN(0)
	require.Equal(t, DefaultSTUNPort, p.Port)

	tests := map[string]string{
		"stun.example.org":       "stun:stun.example.org:" + strconv.Itoa(DefaultSTUNPort),
		"stun.example.org:19302": "stun:stun.example.org:19302",
		"stun:10.0.0.1:3479":     "stun:10.0.0.1:3479",
		"2001:db8::1":            "stun:[2001:db8::1]:3478",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, p.URI(in))
		})
	}
}

func TestNmapOptions(t *testing.T) {
	p := NewNmap()

	assert.Len(t, p.Options("10.0.0.1", time.Second), 4)
	assert.Len(t, p.Options("2001:db8::1", time.Second), 5)

	p.Binary = "/opt/nmap/bin/nmap"
	assert.Len(t, p.Options("10.0.0.1", time.Second), 5)
}

func TestNewPrimitive(t *testing.T) {
	for _, method := range Methods() {
		t.Run(method, func(t *testing.T) {
			prim, err := NewPrimitive(method, Options{})
			require.NoError(t, err)
			assert.Equal(t, method, prim.Name())
			assert.True(t, IsMethod(method))
		})
	}

	t.Run("options reach the primitive", func(t *testing.T) {
		prim, err := NewPrimitive(MethodTCP, Options{TCPPorts: []int{22}})
		require.NoError(t, err)
		assert.Equal(t, []int{22}, prim.(*TCP).Ports)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewPrimitive("carrier-pigeon", Options{})
		assert.Error(t, err)
		assert.False(t, IsMethod("carrier-pigeon"))
	})

	assert.Equal(t, []string{"icmp", "nmap", "stun", "tcp"}, Methods())
}
