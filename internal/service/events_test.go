package service

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestPublisher(t *testing.T, addresses ...string) (*registry.Registry, *Publisher) {
	t.Helper()
	reg := registry.New(5)
	for _, a := range addresses {
		require.NoError(t, reg.Add(a))
	}
	return reg, NewPublisher(reg, quietLogger())
}

func TestPublisherSequence(t *testing.T) {
	_, pub := newTestPublisher(t, "8.8.8.8")

	_, ok := pub.Latest()
	assert.False(t, ok)

	first := pub.Publish(domain.ReasonInitial)
	second := pub.PublishRound(4)
	third := pub.Publish(domain.ReasonAdded)

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, uint64(3), third.Sequence)
	assert.Equal(t, uint64(4), third.Round, "round number carries over")
	assert.Equal(t, domain.ReasonRound, second.Reason)

	latest, ok := pub.Latest()
	require.True(t, ok)
	assert.Equal(t, third.Sequence, latest.Sequence)
}

func TestPublisherLatestWins(t *testing.T) {
	reg, pub := newTestPublisher(t, "8.8.8.8")
	ch, cancel := pub.Subscribe()
	defer cancel()

	pub.Publish(domain.ReasonInitial)
	require.NoError(t, reg.Add("8.8.4.4"))
	pub.Publish(domain.ReasonAdded)
	require.NoError(t, reg.Add("1.1.1.1"))
	pub.Publish(domain.ReasonAdded)

	ev := <-ch
	assert.Equal(t, EventSnapshot, ev.Type)
	assert.Equal(t, uint64(3), ev.Snapshot.Sequence)
	assert.Equal(t, 3, ev.Snapshot.Spokes())
	require.NoError(t, ev.Snapshot.Validate())

	select {
	case extra := <-ch:
		t.Fatalf("unexpected stale event %d", extra.Snapshot.Sequence)
	default:
	}
}

func TestPublisherUnsubscribe(t *testing.T) {
	_, pub := newTestPublisher(t)
	ch, cancel := pub.Subscribe()
	assert.Equal(t, 1, pub.Subscribers())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, pub.Subscribers())

	pub.Publish(domain.ReasonInitial)
}

func TestPublisherConcurrentMutation(t *testing.T) {
	reg, pub := newTestPublisher(t)
	ch, cancel := pub.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range ch {
			if err := ev.Snapshot.Validate(); err != nil {
				t.Errorf("torn snapshot %d: %v", ev.Snapshot.Sequence, err)
			}
		}
	}()

	var writers sync.WaitGroup
	for w := 0; w < 4; w++ {
		writers.Add(1)
		go func(w int) {
			defer writers.Done()
			for i := 0; i < 25; i++ {
				addr := string(rune('a'+w)) + ".example" + string(rune('0'+i%10))
				if reg.Add(addr) == nil {
					pub.Publish(domain.ReasonAdded)
				}
			}
		}(w)
	}
	writers.Wait()
	cancel()
	wg.Wait()

	latest, ok := pub.Latest()
	require.True(t, ok)
	assert.Equal(t, 40, latest.Spokes())
}
