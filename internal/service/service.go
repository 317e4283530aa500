package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
	"reachgraph/internal/scheduler"
)

// Op names a mutation command
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Result reports the outcome of a mutation command to its issuer
type Result struct {
	Op      Op
	Address string
	Err     error
}

// OK reports whether the command changed the registry
func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.Op, r.Address, r.Err)
	}
	switch r.Op {
	case OpAdd:
		return fmt.Sprintf("added %s", r.Address)
	case OpRemove:
		return fmt.Sprintf("removed %s", r.Address)
	default:
		return fmt.Sprintf("%s %s", r.Op, r.Address)
	}
}

// Rounds runs probing rounds on demand
type Rounds interface {
	RunRound(ctx context.Context) (scheduler.RoundResult, error)
	Stats() scheduler.Stats
}

// ErrNoScheduler is returned by round operations before a scheduler is set
var ErrNoScheduler = errors.New("no scheduler configured")

// MonitorService is the command surface of the monitoring engine
type MonitorService struct {
	registry  *registry.Registry
	publisher *Publisher
	rounds    Rounds
	logger    *slog.Logger
}

// NewMonitorService creates a monitor service
func NewMonitorService(reg *registry.Registry, pub *Publisher, logger *slog.Logger) *MonitorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorService{
		registry:  reg,
		publisher: pub,
		logger:    logger.With("component", "monitor"),
	}
}

// SetRounds wires the scheduler used by TriggerRound and Stats
func (s *MonitorService) SetRounds(r Rounds) {
	s.rounds = r
}

// Publisher returns the snapshot publisher
func (s *MonitorService) Publisher() *Publisher {
	return s.publisher
}

// Seed adds the initial endpoint list and publishes one initial snapshot
func (s *MonitorService) Seed(addresses []string) []Result {
	results := make([]Result, 0, len(addresses))
	for _, addr := range addresses {
		res := Result{Op: OpAdd, Address: addr, Err: s.registry.Add(addr)}
		s.logResult(res)
		results = append(results, res)
	}
	s.publisher.Publish(domain.ReasonInitial)
	return results
}

// Add starts monitoring address
func (s *MonitorService) Add(address string) Result {
	res := Result{Op: OpAdd, Address: address}
	if addr, err := registry.Normalize(address); err == nil {
		res.Address = addr
	}

	res.Err = s.registry.Add(address)
	s.logResult(res)
	if res.OK() {
		s.publisher.Publish(domain.ReasonAdded)
	}
	return res
}

// Remove stops monitoring address
func (s *MonitorService) Remove(address string) Result {
	res := Result{Op: OpRemove, Address: address}
	if addr, err := registry.Normalize(address); err == nil {
		res.Address = addr
	}

	res.Err = s.registry.Remove(address)
	s.logResult(res)
	if res.OK() {
		s.publisher.Publish(domain.ReasonRemoved)
	}
	return res
}

// Nodes returns the monitored nodes in order
func (s *MonitorService) Nodes() []domain.Node {
	return s.registry.List()
}

// Snapshot returns the latest published snapshot, or publishes one if
// nothing has been published yet
func (s *MonitorService) Snapshot() domain.Snapshot {
	if snap, ok := s.publisher.Latest(); ok {
		return snap
	}
	return s.publisher.Publish(domain.ReasonInitial)
}

// Reload converges membership to addresses, keeping the status of
// endpoints present in both lists
func (s *MonitorService) Reload(addresses []string) (added, removed []string) {
	added, removed = s.registry.Reconcile(addresses)
	if len(added) == 0 && len(removed) == 0 {
		s.logger.Debug("reload: endpoints unchanged")
		return nil, nil
	}

	s.logger.Info("endpoints reloaded", "added", added, "removed", removed, "total", s.registry.Len())
	s.publisher.Publish(domain.ReasonReload)
	return added, removed
}

// TriggerRound runs one probing round now
func (s *MonitorService) TriggerRound(ctx context.Context) (scheduler.RoundResult, error) {
	if s.rounds == nil {
		return scheduler.RoundResult{}, ErrNoScheduler
	}
	return s.rounds.RunRound(ctx)
}

// Stats returns scheduler counters
func (s *MonitorService) Stats() (scheduler.Stats, error) {
	if s.rounds == nil {
		return scheduler.Stats{}, ErrNoScheduler
	}
	return s.rounds.Stats(), nil
}

// RoundCompleted is the scheduler callback; it publishes the round snapshot
func (s *MonitorService) RoundCompleted(res scheduler.RoundResult) {
	s.publisher.PublishRound(res.Round)
}

func (s *MonitorService) logResult(res Result) {
	switch {
	case res.Err == nil:
		s.logger.Info(string(res.Op), "address", res.Address, "total", s.registry.Len())
	case errors.Is(res.Err, registry.ErrDuplicateAddress):
		s.logger.Warn("duplicate address", "address", res.Address)
	case errors.Is(res.Err, registry.ErrNotFound):
		s.logger.Warn("address not found", "address", res.Address)
	default:
		s.logger.Warn(string(res.Op)+" failed", "address", res.Address, "error", res.Err)
	}
}
