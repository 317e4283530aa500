package domain

import "math"

// Position is a point in the layout plane
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// HubPosition is where the hub is always drawn
var HubPosition = Position{X: 0, Y: 0}

// NewPosition creates a new position
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Distance returns the Euclidean distance between two positions
func (p Position) Distance(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Angle returns the polar angle of the position around the origin in [0, 2π)
func (p Position) Angle() float64 {
	a := math.Atan2(p.Y, p.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
