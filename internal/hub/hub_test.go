package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/domain"
	"reachgraph/internal/service"
)

func testEvent(seq uint64, labels ...string) service.Event {
	nodes := make([]domain.Node, len(labels))
	for i, l := range labels {
		nodes[i] = domain.NewNode(l)
	}
	snap := domain.NewSnapshot(nodes)
	snap.Sequence = seq
	return service.Event{Type: service.EventSnapshot, Snapshot: snap}
}

func startHub(t *testing.T) (*Hub, chan service.Event, *httptest.Server) {
	t.Helper()
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	feed := make(chan service.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, feed)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, feed, srv
}

// readData returns the payload of the next data line on the stream
func readData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func connect(t *testing.T, srv *httptest.Server) *bufio.Reader {
	t.Helper()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func TestHubBroadcast(t *testing.T) {
	h, feed, srv := startHub(t)
	r := connect(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	feed <- testEvent(7, "8.8.8.8")

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(readData(t, r)), &got))
	assert.EqualValues(t, 7, got["sequence"])
	assert.Equal(t, []any{"", "8.8.8.8"}, got["labels"])
}

func TestHubSendsLatestOnConnect(t *testing.T) {
	h, _, srv := startHub(t)

	h.Broadcast(testEvent(3, "8.8.4.4"))
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.latest != nil
	}, time.Second, 5*time.Millisecond)

	r := connect(t, srv)
	assert.Contains(t, readData(t, r), `"sequence":3`)
}

func TestHubPrime(t *testing.T) {
	t.Run("client connecting before any broadcast gets the primed snapshot", func(t *testing.T) {
		h, _, srv := startHub(t)
		h.Prime(testEvent(1, "8.8.8.8", "8.8.4.4"))

		r := connect(t, srv)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(readData(t, r)), &got))
		assert.EqualValues(t, 1, got["sequence"])
		assert.Equal(t, []any{"", "8.8.8.8", "8.8.4.4"}, got["labels"])
	})

	t.Run("older snapshot does not replace a newer one", func(t *testing.T) {
		h := New(nil)
		h.Prime(testEvent(5, "1.1.1.1"))
		h.Prime(testEvent(4, "9.9.9.9"))

		h.mu.RLock()
		defer h.mu.RUnlock()
		assert.EqualValues(t, 5, h.latestSeq)
		assert.Contains(t, string(h.latest), "1.1.1.1")
	})
}

func TestFormat(t *testing.T) {
	msg, err := Format(testEvent(12))
	require.NoError(t, err)

	s := string(msg)
	assert.True(t, strings.HasPrefix(s, "id: 12\nevent: snapshot\ndata: {"))
	assert.True(t, strings.HasSuffix(s, "\n\n"))
}

func TestHubStopsWithFeed(t *testing.T) {
	h := New(nil)
	feed := make(chan service.Event)
	done := make(chan struct{})
	go func() {
		h.Run(context.Background(), feed)
		close(done)
	}()

	close(feed)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop when its feed closed")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
