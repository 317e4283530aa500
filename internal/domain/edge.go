package domain

import "fmt"

// HubIndex is the snapshot index of the hub node
const HubIndex = 0

// Edge connects two nodes by their snapshot index
type Edge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

// NewHubEdge creates the edge joining the hub to the node at index
func NewHubEdge(index int) Edge {
	return Edge{From: HubIndex, To: index}
}

// IsHubEdge reports whether the edge starts at the hub
func (e Edge) IsHubEdge() bool {
	return e.From == HubIndex && e.To != HubIndex
}

// String renders the edge as "from-to"
func (e Edge) String() string {
	return fmt.Sprintf("%d-%d", e.From, e.To)
}
