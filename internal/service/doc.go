// Package service coordinates the monitoring engine for its callers.
//
// # Publisher
//
// Publisher turns registry state into immutable domain.Snapshot values and
// fans them out to subscribers (the SSE hub, the terminal UI). Delivery is
// non-blocking and latest-wins: every subscriber has a one-slot buffer and a
// stale snapshot still waiting in it is replaced by the newer one.
//
// # MonitorService
//
// MonitorService is the command surface used by the console, the HTTP API
// and config reload. Mutation failures come back as Result values, never as
// panics, and every successful mutation publishes a snapshot.
//
// Lock order: the publisher lock is taken before the registry lock.
package service
