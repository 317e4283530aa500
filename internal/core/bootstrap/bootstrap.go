package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"reachgraph/internal/probe"
)

// Result contains all bootstrap findings
type Result struct {
	Timestamp      time.Time      `json:"timestamp"`
	Duration       time.Duration  `json:"duration"`
	Evidence       *EvidenceSet   `json:"-"`
	Recommendation Recommendation `json:"recommendation"`
}

// MethodStatus tells whether one probe method works here
type MethodStatus struct {
	Method    string `json:"method"`
	Available bool   `json:"available"`
}

// Run gathers evidence about h and recommends a probe method
func Run(ctx context.Context, h Host, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "bootstrap")
	start := time.Now()

	evidence := NewEvidenceSet()

	perm := DetectPermissions(h)
	evidence.AddAll(perm)
	logPhaseStats(logger, "permissions", perm)

	caps := DetectCapabilities(ctx, h)
	evidence.AddAll(caps)
	logPhaseStats(logger, "capability", caps)

	network := DetectNetwork(h)
	evidence.AddAll(network)
	logPhaseStats(logger, "network", network)

	rec := Recommend(evidence)
	result := &Result{
		Timestamp:      time.Now(),
		Duration:       time.Since(start),
		Evidence:       evidence,
		Recommendation: rec,
	}

	logger.Debug("bootstrap complete",
		"duration", result.Duration,
		"evidence", evidence.Count(),
		"method", rec.Method,
		"confidence", rec.Confidence)
	for _, w := range rec.Warnings {
		logger.Warn(w)
	}

	return result
}

func logPhaseStats(logger *slog.Logger, phase string, evidence []Evidence) {
	logger.Debug("bootstrap phase", "phase", phase, "evidence", len(evidence))
}

// Methods reports the availability of every probe method
func (r *Result) Methods() []MethodStatus {
	names := probe.Methods()
	out := make([]MethodStatus, len(names))
	for i, m := range names {
		out[i] = MethodStatus{Method: m, Available: Available(r.Evidence, m)}
	}
	return out
}
