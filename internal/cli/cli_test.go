package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/config"
	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
	"reachgraph/internal/service"
	"reachgraph/internal/ui"
)

func TestMain(m *testing.M) {
	ui.DisableColor()
	os.Exit(m.Run())
}

// writeConfig writes a config file to a temp dir and returns its path
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reachgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the command line and returns exit status, stdout and stderr
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

type snapshotJSON struct {
	Labels       []string   `json:"labels"`
	Colors       []string   `json:"colors"`
	ColorClasses []string   `json:"color_classes"`
	Edges        []struct{} `json:"edges"`
}

func TestVersion(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	defer SetVersionInfo(originalVersion, originalCommit, originalDate)

	SetVersionInfo("1.2.3", "abc1234", "2026-01-08T12:00:00Z")

	t.Run("full", func(t *testing.T) {
		code, out, _ := execute(t, "version")

		require.Zero(t, code)
		assert.Contains(t, out, "reachgraph v1.2.3")
		assert.Contains(t, out, "commit: abc1234")
		assert.Contains(t, out, "built: 2026-01-08T12:00:00Z")
		assert.Contains(t, out, "os/arch: "+runtime.GOOS+"/"+runtime.GOARCH)
	})

	t.Run("short", func(t *testing.T) {
		code, out, _ := execute(t, "version", "--short")

		require.Zero(t, code)
		assert.Equal(t, "1.2.3\n", out)
	})
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
	assert.Equal(t, "v1.0.0", formatVersion("1.0.0"))
	assert.Equal(t, "v1.0.0", formatVersion("v1.0.0"))
}

func TestLayoutCommand(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: [\"a.example\", \"b.example\", \"c.example\"]\n")

	t.Run("configured endpoints as table", func(t *testing.T) {
		code, out, _ := execute(t, "--config", cfgPath, "layout")

		require.Zero(t, code)
		assert.Contains(t, out, "(hub)")
		assert.Contains(t, out, "a.example")
		assert.Contains(t, out, "c.example")
		assert.Contains(t, out, "unknown")
	})

	t.Run("arguments replace endpoints", func(t *testing.T) {
		code, out, _ := execute(t, "--config", cfgPath, "layout", "8.8.8.8", "8.8.4.4", "-o", "json")
		require.Zero(t, code)

		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, []string{"", "8.8.8.8", "8.8.4.4"}, snap.Labels)
		assert.Equal(t, []string{"unknown", "unknown", "unknown"}, snap.Colors)
		assert.Equal(t, []string{"orange", "orange", "orange"}, snap.ColorClasses)
		assert.Len(t, snap.Edges, 2)
	})

	t.Run("invalid address is reported and skipped", func(t *testing.T) {
		code, out, errOut := execute(t, "--config", cfgPath, "layout", "8.8.8.8", "bad address", "-o", "json")
		require.Zero(t, code)

		assert.Contains(t, errOut, "warning: add bad address")
		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, []string{"", "8.8.8.8"}, snap.Labels)
	})

	t.Run("unknown output format", func(t *testing.T) {
		code, _, errOut := execute(t, "--config", cfgPath, "layout", "-o", "xml")

		assert.Equal(t, 1, code)
		assert.Contains(t, errOut, "Unknown output format xml")
	})
}

func TestProbeCommand(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: []\nmonitor:\n  tcp_ports: [1]\n")

	// A closed port on loopback refuses the connection, which counts as up
	code, out, errOut := execute(t, "--config", cfgPath, "probe", "127.0.0.1",
		"--method", "tcp", "--timeout", "2s", "-o", "json")
	require.Zero(t, code, errOut)

	var snap snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, []string{"", "127.0.0.1"}, snap.Labels)
	assert.Equal(t, "connected", snap.Colors[1])
	assert.Equal(t, "green", snap.ColorClasses[1])
}

func TestConfigErrors(t *testing.T) {
	t.Run("missing explicit config", func(t *testing.T) {
		code, _, errOut := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "layout")

		assert.Equal(t, 78, code)
		assert.Contains(t, errOut, "Failed to load")
	})

	t.Run("invalid override", func(t *testing.T) {
		cfgPath := writeConfig(t, "endpoints: []\n")
		code, _, errOut := execute(t, "--config", cfgPath, "probe", "--method", "carrier-pigeon")

		assert.Equal(t, 78, code)
		assert.Contains(t, errOut, "Invalid setting")
		assert.Contains(t, errOut, "monitor.method")
	})
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reachgraph.yaml")

	code, out, _ := execute(t, "--config", path, "config", "init")
	require.Zero(t, code)
	assert.Contains(t, out, "wrote "+path)
	assert.FileExists(t, path)

	code, _, errOut := execute(t, "--config", path, "config", "init")
	assert.Equal(t, 78, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = execute(t, "--config", path, "config", "init", "--force")
	assert.Zero(t, code)

	code, out, _ = execute(t, "--config", path, "config", "show")
	require.Zero(t, code)
	assert.Contains(t, out, "# source: "+path)
	assert.Contains(t, out, "8.8.8.8")

	cfg, err := config.Parse([]byte(strings.SplitN(out, "\n", 2)[1]))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Endpoints, cfg.Endpoints)
}

func TestApplyOverrides(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv("REACHGRAPH_INTERVAL", "7")
		t.Setenv("REACHGRAPH_METHOD", "TCP")
		t.Setenv("REACHGRAPH_LOG_LEVEL", "debug")

		v, err := newViper(nil)
		require.NoError(t, err)
		cfg := config.DefaultConfig()

		require.NoError(t, applyOverrides(v, cfg))
		assert.Equal(t, 7*time.Second, cfg.Monitor.Interval.Duration())
		assert.Equal(t, "tcp", cfg.Monitor.Method)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, time.Second, cfg.Monitor.Timeout.Duration(), "unset keys keep their value")
	})

	t.Run("flags", func(t *testing.T) {
		cmd := newRunCmd(&globalOptions{})
		require.NoError(t, cmd.ParseFlags([]string{"--timeout", "250ms", "--magnitude", "9", "--listen", "127.0.0.1:9000"}))

		v, err := newViper(cmd.Flags())
		require.NoError(t, err)
		cfg := config.DefaultConfig()

		require.NoError(t, applyOverrides(v, cfg))
		assert.Equal(t, 250*time.Millisecond, cfg.Monitor.Timeout.Duration())
		assert.InDelta(t, 9, cfg.Layout.Magnitude, 1e-9)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
		assert.Equal(t, config.DefaultConfig().Monitor.Interval, cfg.Monitor.Interval)
	})

	t.Run("bad duration", func(t *testing.T) {
		v, err := newViper(nil)
		require.NoError(t, err)
		v.Set(keyInterval, "soon")

		assert.Error(t, applyOverrides(v, config.DefaultConfig()))
	})
}

func TestHTTPHandler(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Endpoints = []string{"8.8.8.8"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := newEngine(cfg, logger)
	require.NoError(t, err)
	eng.seed(cfg.Endpoints, io.Discard)

	srv := httptest.NewServer(newHTTPHandler(eng.service, nil, logger))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/api/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap snapshotJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, []string{"", "8.8.8.8"}, snap.Labels)
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogRounds(t *testing.T) {
	reg := registry.New(5)
	require.NoError(t, reg.Add("8.8.8.8"))
	pub := service.NewPublisher(reg, nil)

	feed, unsubscribe := pub.Subscribe()
	defer unsubscribe()

	// Published before the reader starts, still printed
	require.NoError(t, reg.UpdateStatus("8.8.8.8", domain.StatusConnected))
	pub.PublishRound(1)

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- logRounds(ctx, feed, out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "connected")
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), "round 1")
	assert.Contains(t, out.String(), "(hub)")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("logRounds did not stop")
	}
}

func TestDoctorJSON(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: []\n")

	_, out, _ := execute(t, "--config", cfgPath, "doctor", "--json", "--method", "tcp")

	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "tcp", report.Configured)
	assert.Len(t, report.Methods, 4)
	assert.NotEmpty(t, report.Recommendation.Method)
	assert.NotEmpty(t, report.Evidence)
}

func TestEventHubServesSeededSnapshot(t *testing.T) {
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := newEngine(cfg, logger)
	require.NoError(t, err)
	eng.seed([]string{"8.8.8.8", "8.8.4.4"}, io.Discard)

	events, feed, unsubscribe := newEventHub(eng.publisher, logger)
	defer unsubscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go events.Run(ctx, feed)

	srv := httptest.NewServer(events)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	data := make(chan string, 1)
	go func() {
		r := bufio.NewReader(resp.Body)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				data <- strings.TrimPrefix(line, "data: ")
				return
			}
		}
	}()

	select {
	case d := <-data:
		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(d), &snap))
		assert.Equal(t, []string{"", "8.8.8.8", "8.8.4.4"}, snap.Labels)
	case <-time.After(time.Second):
		t.Fatal("new client got no snapshot before the first round")
	}
}

func TestEndpointsFile(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: [\"a.example\"]\n")
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "hosts.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"endpoints": ["8.8.8.8", "1.1.1.1"]}`), 0644))
	yamlPath := filepath.Join(dir, "hosts.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- 9.9.9.9\n- example.com\n"), 0644))

	t.Run("json file replaces configured endpoints", func(t *testing.T) {
		code, out, _ := execute(t, "--config", cfgPath, "layout", "--endpoints-file", jsonPath, "-o", "json")
		require.Zero(t, code)

		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, []string{"", "8.8.8.8", "1.1.1.1"}, snap.Labels)
	})

	t.Run("yaml list", func(t *testing.T) {
		code, out, _ := execute(t, "--config", cfgPath, "layout", "--endpoints-file", yamlPath, "-o", "json")
		require.Zero(t, code)

		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, []string{"", "9.9.9.9", "example.com"}, snap.Labels)
	})

	t.Run("arguments win over the file", func(t *testing.T) {
		code, out, _ := execute(t, "--config", cfgPath, "layout", "4.4.4.4", "--endpoints-file", jsonPath, "-o", "json")
		require.Zero(t, code)

		var snap snapshotJSON
		require.NoError(t, json.Unmarshal([]byte(out), &snap))
		assert.Equal(t, []string{"", "4.4.4.4"}, snap.Labels)
	})

	t.Run("missing file is a config error", func(t *testing.T) {
		code, _, errOut := execute(t, "--config", cfgPath, "layout", "--endpoints-file", filepath.Join(dir, "nope.yaml"))

		assert.Equal(t, 78, code)
		assert.Contains(t, errOut, "Failed to read endpoints")
	})

	t.Run("stdin", func(t *testing.T) {
		src := &endpointSource{file: "-"}
		got, replaced, err := src.resolve(config.DefaultConfig(), nil, strings.NewReader("[\"10.0.0.1\"]"))
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, []string{"10.0.0.1"}, got)
	})

	t.Run("no file keeps configured endpoints", func(t *testing.T) {
		cfg := config.DefaultConfig()
		got, replaced, err := (&endpointSource{}).resolve(cfg, nil, nil)
		require.NoError(t, err)
		assert.False(t, replaced)
		assert.Equal(t, cfg.Endpoints, got)
	})
}

func TestGlobalLogFlags(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: []\n")

	code, out, _ := execute(t, "--config", cfgPath, "--log-level", "debug", "--log-format", "json", "config", "show")
	require.Zero(t, code)

	cfg, err := config.Parse([]byte(strings.SplitN(out, "\n", 2)[1]))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestWatchConfigStopsQuietly(t *testing.T) {
	cfgPath := writeConfig(t, "endpoints: []\n")
	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	eng, err := newEngine(config.DefaultConfig(), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	watchConfig(ctx, cfgPath, eng.service, logger)

	assert.NotContains(t, logs.String(), "config watch stopped")

	watchConfig(context.Background(), filepath.Join(t.TempDir(), "missing", "reachgraph.yaml"), eng.service, logger)
	assert.Contains(t, logs.String(), "config watch stopped")
}
