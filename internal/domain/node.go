package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the liveness of an endpoint
type Status int

const (
	StatusUnknown      Status = iota // Registered but not yet probed
	StatusConnected                  // Last probe succeeded
	StatusDisconnected               // Last probe failed
)

// ColorClass is the render color of a status
type ColorClass string

const (
	ColorGreen  ColorClass = "green"
	ColorOrange ColorClass = "orange"
	ColorRed    ColorClass = "red"
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid reports whether s is one of the three defined statuses
func (s Status) Valid() bool {
	return s >= StatusUnknown && s <= StatusDisconnected
}

// Color returns the color class renderers use for the status
func (s Status) Color() ColorClass {
	switch s {
	case StatusConnected:
		return ColorGreen
	case StatusUnknown:
		return ColorOrange
	default:
		return ColorRed
	}
}

// ParseStatus parses a status name
func ParseStatus(name string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unknown", "":
		return StatusUnknown, nil
	case "connected":
		return StatusConnected, nil
	case "disconnected":
		return StatusDisconnected, nil
	}
	return StatusUnknown, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Node is a monitored endpoint and its derived layout
type Node struct {
	Address  string   `json:"address" yaml:"address"`
	Position Position `json:"position" yaml:"position"`
	HubEdge  Edge     `json:"hub_edge" yaml:"hub_edge"`
	Status   Status   `json:"status" yaml:"status"`

	// CheckedAt is when a round last wrote Status; zero while Unknown
	CheckedAt time.Time `json:"checked_at,omitempty" yaml:"checked_at,omitempty"`
}

// NewNode creates a node in the Unknown state
func NewNode(address string) Node {
	return Node{
		Address: address,
		Status:  StatusUnknown,
	}
}

// Index returns the node's snapshot index
func (n Node) Index() int {
	return n.HubEdge.To
}
