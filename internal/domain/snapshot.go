package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotReason tells renderers why a snapshot was published
type SnapshotReason string

const (
	ReasonInitial SnapshotReason = "initial"
	ReasonAdded   SnapshotReason = "added"
	ReasonRemoved SnapshotReason = "removed"
	ReasonReload  SnapshotReason = "reload"
	ReasonRound   SnapshotReason = "round"
)

// Snapshot is the immutable rendering view of the star topology.
// Index 0 of Positions, Labels and Colors is the hub.
type Snapshot struct {
	Sequence  uint64         `json:"sequence" yaml:"sequence"`
	Round     uint64         `json:"round" yaml:"round"`
	Reason    SnapshotReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`

	Positions []Position `json:"positions" yaml:"positions"`
	Edges     []Edge     `json:"edges" yaml:"edges"`
	Labels    []string   `json:"labels" yaml:"labels"`
	Colors    []Status   `json:"colors" yaml:"colors"`
}

// NewSnapshot builds a snapshot from nodes in registry order.
// The nodes' positions and hub edges must already be computed.
func NewSnapshot(nodes []Node) Snapshot {
	n := len(nodes) + 1
	snap := Snapshot{
		CreatedAt: time.Now(),
		Positions: make([]Position, n),
		Edges:     make([]Edge, len(nodes)),
		Labels:    make([]string, n),
		Colors:    make([]Status, n),
	}

	snap.Positions[HubIndex] = HubPosition
	snap.Colors[HubIndex] = StatusUnknown

	for i, node := range nodes {
		idx := i + 1
		snap.Positions[idx] = node.Position
		snap.Edges[i] = NewHubEdge(idx)
		snap.Labels[idx] = node.Address
		snap.Colors[idx] = node.Status
	}

	return snap
}

// Len returns the number of nodes including the hub
func (s Snapshot) Len() int {
	return len(s.Positions)
}

// Spokes returns the number of non-hub nodes
func (s Snapshot) Spokes() int {
	if len(s.Positions) == 0 {
		return 0
	}
	return len(s.Positions) - 1
}

// ColorClasses returns the color class of every node, hub included
func (s Snapshot) ColorClasses() []ColorClass {
	classes := make([]ColorClass, len(s.Colors))
	for i, c := range s.Colors {
		classes[i] = c.Color()
	}
	return classes
}

// StatusOf returns the status of the node labelled address
func (s Snapshot) StatusOf(address string) (Status, bool) {
	for i := 1; i < len(s.Labels); i++ {
		if s.Labels[i] == address {
			return s.Colors[i], true
		}
	}
	return StatusUnknown, false
}

// Validate checks the star invariants
func (s Snapshot) Validate() error {
	n := len(s.Positions)
	if n == 0 {
		return fmt.Errorf("snapshot has no hub")
	}
	if len(s.Labels) != n || len(s.Colors) != n {
		return fmt.Errorf("snapshot length mismatch: positions=%d labels=%d colors=%d",
			n, len(s.Labels), len(s.Colors))
	}
	if len(s.Edges) != n-1 {
		return fmt.Errorf("snapshot has %d edges for %d spokes", len(s.Edges), n-1)
	}
	if s.Labels[HubIndex] != "" {
		return fmt.Errorf("hub label must be empty, got %q", s.Labels[HubIndex])
	}

	seen := make([]bool, n)
	for _, e := range s.Edges {
		if !e.IsHubEdge() {
			return fmt.Errorf("edge %s does not start at the hub", e)
		}
		if e.To < 1 || e.To >= n {
			return fmt.Errorf("edge %s out of range", e)
		}
		if seen[e.To] {
			return fmt.Errorf("node %d has more than one hub edge", e.To)
		}
		seen[e.To] = true
	}

	return nil
}

// MarshalJSON adds the color class of every node next to its status
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	return json.Marshal(struct {
		plain
		ColorClasses []ColorClass `json:"color_classes"`
	}{plain(s), s.ColorClasses()})
}
