// Package layout places endpoints on a ring around the hub.
//
// The layout depends only on the number of spokes and the ring magnitude,
// so it can be recomputed from scratch on every membership change.
package layout

import (
	"math"

	"reachgraph/internal/domain"
)

// DefaultMagnitude is the ring radius used when none is configured
const DefaultMagnitude = 5.0

// Angle returns the angle of spoke i out of n
func Angle(i, n int) float64 {
	if n <= 0 || i < 0 {
		return 0
	}
	return float64(i) * (2 * math.Pi / float64(n))
}

// Ring returns the positions of n spokes evenly spaced on a circle of
// radius magnitude around the hub. n <= 0 yields an empty slice.
func Ring(n int, magnitude float64) []domain.Position {
	if n <= 0 {
		return []domain.Position{}
	}

	positions := make([]domain.Position, n)
	for i := range positions {
		angle := Angle(i, n)
		positions[i] = domain.Position{
			X: math.Cos(angle) * magnitude,
			Y: math.Sin(angle) * magnitude,
		}
	}
	return positions
}

// Edges returns the star edges for n spokes: (0, i+1) for spoke i
func Edges(n int) []domain.Edge {
	if n <= 0 {
		return []domain.Edge{}
	}

	edges := make([]domain.Edge, n)
	for i := range edges {
		edges[i] = domain.NewHubEdge(i + 1)
	}
	return edges
}

// Apply recomputes position and hub edge of every node in place
func Apply(nodes []domain.Node, magnitude float64) {
	positions := Ring(len(nodes), magnitude)
	for i := range nodes {
		nodes[i].Position = positions[i]
		nodes[i].HubEdge = domain.NewHubEdge(i + 1)
	}
}
