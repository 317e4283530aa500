package service

import (
	"context"
	"log/slog"
	"sync"

	"reachgraph/internal/domain"
)

// EventType defines the type of event
type EventType string

const (
	EventSnapshot EventType = "snapshot"
)

// Event represents a publication delivered to subscribers
type Event struct {
	Type     EventType       `json:"type"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// SnapshotSource builds a consistent snapshot of the monitored nodes
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// Publisher stamps and distributes snapshots
type Publisher struct {
	mu      sync.Mutex
	source  SnapshotSource
	logger  *slog.Logger
	seq     uint64
	round   uint64
	latest  domain.Snapshot
	hasLast bool
	subs    map[uint64]chan Event
	nextSub uint64
}

// NewPublisher creates a publisher reading from source
func NewPublisher(source SnapshotSource, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		source: source,
		logger: logger.With("component", "publisher"),
		subs:   make(map[uint64]chan Event),
	}
}

// Subscribe returns a channel receiving every publication (latest-wins) and
// a function that ends the subscription and closes the channel
func (p *Publisher) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextSub++
	id := p.nextSub
	ch := make(chan Event, 1)
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscriptions
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish builds a snapshot, stamps it and delivers it
func (p *Publisher) Publish(reason domain.SnapshotReason) domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publish(reason)
}

// PublishRound publishes the snapshot for a completed round
func (p *Publisher) PublishRound(round uint64) domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if round > p.round {
		p.round = round
	}
	return p.publish(domain.ReasonRound)
}

// Latest returns the most recent publication
func (p *Publisher) Latest() (domain.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLast
}

// publish must be called with p.mu held
func (p *Publisher) publish(reason domain.SnapshotReason) domain.Snapshot {
	snap := p.source.Snapshot()
	p.seq++
	snap.Sequence = p.seq
	snap.Round = p.round
	snap.Reason = reason

	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		if err := snap.Validate(); err != nil {
			p.logger.Error("invalid snapshot", "sequence", snap.Sequence, "error", err)
		}
		p.logger.Debug("snapshot published",
			"sequence", snap.Sequence, "reason", reason, "spokes", snap.Spokes(), "subscribers", len(p.subs))
	}

	p.latest = snap
	p.hasLast = true

	ev := Event{Type: EventSnapshot, Snapshot: snap}
	for _, ch := range p.subs {
		deliver(ch, ev)
	}
	return snap
}

// deliver replaces a pending stale event so the subscriber always ends up
// with the newest one. Only the publisher sends on ch.
func deliver(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
