// Package domain defines the core types of the reachgraph liveness monitor.
//
// This package contains the value types shared by the registry, the
// scheduler and every renderer: endpoint nodes, their liveness status and
// the immutable graph snapshot handed to the rendering side.
//
// # Core Types
//
// Status is the closed three-valued liveness state of an endpoint
// (Unknown, Connected, Disconnected). Every status maps to a color class
// used by renderers.
//
// Node is one monitored endpoint together with its derived layout
// position and its edge to the hub.
//
// Snapshot is the rendering-ready view of the whole star topology. Index 0
// of every per-node slice is the hub, the local vantage point, which is
// never probed.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No I/O or external dependencies
// - Slices sized up front and filled by index
package domain
