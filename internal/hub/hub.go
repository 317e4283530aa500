// Package hub streams published snapshots to browser renderers over
// Server-Sent Events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"reachgraph/internal/service"
)

// KeepAlive is the interval between keep-alive comments
const KeepAlive = 30 * time.Second

// Client represents a connected SSE client
type Client struct {
	id     string
	events chan []byte
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	latest     []byte
	latestSeq  uint64
	register   chan *Client
	unregister chan *Client
	broadcast  chan service.Event
	done       chan struct{}
	logger     *slog.Logger
	keepAlive  time.Duration
}

// New creates a new Hub
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan service.Event, 16),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
		keepAlive:  KeepAlive,
	}
}

// Run starts the hub's event loop. Events from the optional feed (a
// publisher subscription) are broadcast to every client. Run returns when
// ctx is done or the feed is closed.
func (h *Hub) Run(ctx context.Context, feed <-chan service.Event) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			if h.latest != nil {
				client.events <- h.latest
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("SSE client connected", "client", client.id, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("SSE client disconnected", "client", client.id, "total", total)

		case ev, ok := <-feed:
			if !ok {
				h.closeAll()
				return
			}
			h.send(ev)

		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

// Prime sets the snapshot new clients receive on connect, unless a newer
// one was already sent. Call it with the publisher's latest snapshot before
// Run so clients connecting ahead of the first round still get one.
func (h *Hub) Prime(ev service.Event) {
	msg, err := Format(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest != nil && ev.Snapshot.Sequence <= h.latestSeq {
		return
	}
	h.latest = msg
	h.latestSeq = ev.Snapshot.Sequence
}

// Broadcast queues an event for all connected clients
func (h *Hub) Broadcast(ev service.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", ev.Type)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(ev service.Event) {
	msg, err := Format(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	h.latestSeq = ev.Snapshot.Sequence
	for client := range h.clients {
		select {
		case client.events <- msg:
		default:
			h.logger.Debug("SSE client is slow, skipping message", "client", client.id)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.events)
	}
}

// Format renders an event as an SSE message
func Format(ev service.Event) ([]byte, error) {
	data, err := json.Marshal(ev.Snapshot)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", ev.Snapshot.Sequence, ev.Type, data)), nil
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:     uuid.NewString(),
		events: make(chan []byte, 8),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "hub stopped", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	fmt.Fprintf(w, ": connected %s\n\n", client.id)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
