// Package registry owns the set of monitored endpoints.
//
// The Registry is the single piece of mutable shared state in the monitor.
// Every mutation and every read goes through one RWMutex, and the layout of
// all nodes is recomputed whenever ordered membership changes.
package registry

import (
	"fmt"
	"sync"
	"time"

	"reachgraph/internal/domain"
	"reachgraph/internal/layout"
)

// Registry holds the ordered endpoint list and each endpoint's status
type Registry struct {
	mu        sync.RWMutex
	magnitude float64
	nodes     []domain.Node
	index     map[string]int
	ids       map[string]uint64
	nextID    uint64
}

// Target is an address pinned to the registration it was read from. A
// node removed and added again gets a new ID, so results gathered for the
// old registration are not written to the new one.
type Target struct {
	Address string
	ID      uint64
}

// RoundWrite reports the outcome of ApplyRound
type RoundWrite struct {
	Applied int
	Dropped []string
}

// New creates an empty registry laying nodes out on a ring of the given
// magnitude. A non-positive magnitude falls back to layout.DefaultMagnitude.
func New(magnitude float64) *Registry {
	if magnitude <= 0 {
		magnitude = layout.DefaultMagnitude
	}
	return &Registry{
		magnitude: magnitude,
		nodes:     make([]domain.Node, 0),
		index:     make(map[string]int),
		ids:       make(map[string]uint64),
	}
}

// Magnitude returns the ring radius
func (r *Registry) Magnitude() float64 {
	return r.magnitude
}

// Add appends an address with status Unknown
func (r *Registry) Add(address string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[addr]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, addr)
	}

	r.insert(addr)
	r.relayout()
	return nil
}

// Remove deletes an address and re-lays out the remaining nodes
func (r *Registry) Remove(address string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, exists := r.index[addr]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, addr)
	}

	r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
	delete(r.ids, addr)
	r.relayout()
	return nil
}

// List returns a copy of the nodes in insertion order
func (r *Registry) List() []domain.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]domain.Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// Addresses returns a point-in-time copy of the ordered address list
func (r *Registry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addrs := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		addrs[i] = n.Address
	}
	return addrs
}

// Targets returns a point-in-time copy of the ordered address list with
// the registration each address belongs to
func (r *Registry) Targets() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, len(r.nodes))
	for i, n := range r.nodes {
		targets[i] = Target{Address: n.Address, ID: r.ids[n.Address]}
	}
	return targets
}

// Len returns the number of monitored endpoints
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Contains reports whether address is monitored
func (r *Registry) Contains(address string) bool {
	addr, err := Normalize(address)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[addr]
	return ok
}

// UpdateStatus overwrites the status of address. It never recreates a node:
// an address removed since the round started yields ErrConcurrentRemoval.
func (r *Registry) UpdateStatus(address string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %d", int(status))
	}

	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.setStatus(Target{Address: addr}, status, time.Now()) {
		return fmt.Errorf("%w: %s", ErrConcurrentRemoval, addr)
	}
	return nil
}

// ApplyRound writes a whole round of results under a single lock so no
// reader observes a half-written round. Targets whose registration is gone
// are skipped and reported in Dropped.
func (r *Registry) ApplyRound(targets []Target, statuses []domain.Status, at time.Time) RoundWrite {
	var res RoundWrite
	if len(targets) != len(statuses) {
		return res
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range targets {
		if !statuses[i].Valid() || !r.setStatus(t, statuses[i], at) {
			res.Dropped = append(res.Dropped, t.Address)
			continue
		}
		res.Applied++
	}
	return res
}

// Snapshot builds a graph snapshot from a consistent view of the registry
func (r *Registry) Snapshot() domain.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.NewSnapshot(r.nodes)
}

// Reconcile converges membership to desired. Addresses missing from the
// registry are appended in desired order; addresses not in desired are
// removed. Surviving nodes keep their status.
func (r *Registry) Reconcile(desired []string) (added, removed []string) {
	want := make(map[string]struct{}, len(desired))
	ordered := make([]string, 0, len(desired))
	for _, d := range desired {
		addr, err := Normalize(d)
		if err != nil {
			continue
		}
		if _, dup := want[addr]; dup {
			continue
		}
		want[addr] = struct{}{}
		ordered = append(ordered, addr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.nodes[:0]
	for _, n := range r.nodes {
		if _, ok := want[n.Address]; ok {
			kept = append(kept, n)
			continue
		}
		delete(r.ids, n.Address)
		removed = append(removed, n.Address)
	}
	r.nodes = kept

	present := make(map[string]struct{}, len(r.nodes))
	for _, n := range r.nodes {
		present[n.Address] = struct{}{}
	}
	for _, addr := range ordered {
		if _, ok := present[addr]; ok {
			continue
		}
		r.insert(addr)
		added = append(added, addr)
	}

	if len(added) > 0 || len(removed) > 0 {
		r.relayout()
	}
	return added, removed
}

// insert must be called with the write lock held
func (r *Registry) insert(addr string) {
	r.nextID++
	r.ids[addr] = r.nextID
	r.nodes = append(r.nodes, domain.NewNode(addr))
}

// setStatus must be called with the write lock held. A zero target ID
// matches any registration of the address.
func (r *Registry) setStatus(t Target, status domain.Status, at time.Time) bool {
	i, ok := r.index[t.Address]
	if !ok {
		return false
	}
	if t.ID != 0 && r.ids[t.Address] != t.ID {
		return false
	}
	r.nodes[i].Status = status
	r.nodes[i].CheckedAt = at
	return true
}

// relayout must be called with the write lock held
func (r *Registry) relayout() {
	layout.Apply(r.nodes, r.magnitude)

	r.index = make(map[string]int, len(r.nodes))
	for i, n := range r.nodes {
		r.index[n.Address] = i
	}
}
