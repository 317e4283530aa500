// Package scheduler runs probing rounds on a fixed interval.
//
// A round takes a point-in-time copy of the registry's targets, probes
// every target concurrently, waits for all of them and writes the whole
// round back in one batch. At most one round is in flight: a tick that
// arrives while a round is running is skipped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
)

// DefaultInterval between round starts
const DefaultInterval = 2 * time.Second

// ErrRoundInFlight is returned by RunRound while another round is running
var ErrRoundInFlight = errors.New("probing round already in flight")

// State of the scheduler
type State int32

const (
	Idle State = iota
	Probing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Probing:
		return "probing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// MarshalText renders the state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "probing":
		*s = Probing
	default:
		return fmt.Errorf("unknown scheduler state %q", text)
	}
	return nil
}

// Store is the part of the registry a round needs
type Store interface {
	Targets() []registry.Target
	ApplyRound(targets []registry.Target, statuses []domain.Status, at time.Time) registry.RoundWrite
}

// Prober maps one address to a status. It must not return before its own
// time bound has elapsed or it has an answer.
type Prober interface {
	Probe(ctx context.Context, address string) domain.Status
}

// RoundResult summarises a completed round
type RoundResult struct {
	Round        uint64        `json:"round"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Probed       int           `json:"probed"`
	Connected    int           `json:"connected"`
	Disconnected int           `json:"disconnected"`
	Applied      int           `json:"applied"`
	Dropped      []string      `json:"dropped,omitempty"`
}

// Stats reports scheduler counters
type Stats struct {
	State     State        `json:"state"`
	Interval  string       `json:"interval"`
	Rounds    uint64       `json:"rounds"`
	Skipped   uint64       `json:"skipped_ticks"`
	Discarded uint64       `json:"discarded_rounds"`
	LastRound *RoundResult `json:"last_round,omitempty"`
}

// Config holds scheduler settings
type Config struct {
	Interval time.Duration
	// MaxConcurrent bounds probes in flight per round; 0 means one
	// goroutine per target
	MaxConcurrent int
}

// Scheduler drives probing rounds
type Scheduler struct {
	store   Store
	prober  Prober
	config  Config
	logger  *slog.Logger
	onRound func(RoundResult)

	state     atomic.Int32
	rounds    atomic.Uint64
	skipped   atomic.Uint64
	discarded atomic.Uint64
	last      atomic.Pointer[RoundResult]
	wg        sync.WaitGroup
}

// New creates a scheduler probing the targets of store
func New(store Store, prober Prober, config Config, logger *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MaxConcurrent < 0 {
		config.MaxConcurrent = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  store,
		prober: prober,
		config: config,
		logger: logger.With("component", "scheduler"),
	}
}

// OnRound sets the round-complete callback. Call it before Run.
func (s *Scheduler) OnRound(fn func(RoundResult)) {
	s.onRound = fn
}

// State returns the current state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns a copy of the scheduler counters
func (s *Scheduler) Stats() Stats {
	return Stats{
		State:     s.State(),
		Interval:  s.config.Interval.String(),
		Rounds:    s.rounds.Load(),
		Skipped:   s.skipped.Load(),
		Discarded: s.discarded.Load(),
		LastRound: s.last.Load(),
	}
}

// Run starts one round immediately and then one per interval until ctx is
// done. It waits for an in-flight round to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.config.Interval, "max_concurrent", s.config.MaxConcurrent)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("scheduler stopped", "rounds", s.rounds.Load(), "skipped", s.skipped.Load())
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick starts a round in the background unless one is in flight
func (s *Scheduler) tick(ctx context.Context) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Probing)) {
		n := s.skipped.Add(1)
		s.logger.Debug("tick coalesced", "skipped", n)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.state.Store(int32(Idle))
		if _, err := s.round(ctx); err != nil {
			s.logger.Debug("round discarded", "error", err)
		}
	}()
}

// RunRound runs one round synchronously under the same one-in-flight rule
func (s *Scheduler) RunRound(ctx context.Context) (RoundResult, error) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Probing)) {
		return RoundResult{}, ErrRoundInFlight
	}
	defer s.state.Store(int32(Idle))
	return s.round(ctx)
}

// round must be called in the Probing state
func (s *Scheduler) round(ctx context.Context) (RoundResult, error) {
	res := RoundResult{StartedAt: time.Now()}

	targets := s.store.Targets()
	statuses := make([]domain.Status, len(targets))

	var g errgroup.Group
	if s.config.MaxConcurrent > 0 {
		g.SetLimit(s.config.MaxConcurrent)
	}
	for i, t := range targets {
		g.Go(func() error {
			statuses[i] = s.prober.Probe(ctx, t.Address)
			return nil
		})
	}
	_ = g.Wait()

	// Shutdown is not a reachability failure
	if err := ctx.Err(); err != nil {
		s.discarded.Add(1)
		return res, fmt.Errorf("round cancelled: %w", err)
	}

	write := s.store.ApplyRound(targets, statuses, time.Now())
	for _, addr := range write.Dropped {
		s.logger.Debug("concurrent removal", "address", addr)
	}

	res.Round = s.rounds.Add(1)
	res.Duration = time.Since(res.StartedAt)
	res.Probed = len(targets)
	res.Applied = write.Applied
	res.Dropped = write.Dropped
	for _, st := range statuses {
		switch st {
		case domain.StatusConnected:
			res.Connected++
		case domain.StatusDisconnected:
			res.Disconnected++
		}
	}

	last := res
	s.last.Store(&last)

	s.logger.Debug("round complete",
		"round", res.Round,
		"probed", res.Probed,
		"connected", res.Connected,
		"disconnected", res.Disconnected,
		"duration", res.Duration)

	if s.onRound != nil {
		s.onRound(res)
	}
	return res, nil
}
