package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"reachgraph/internal/config"
	"reachgraph/internal/errors"
	"reachgraph/internal/probe"
	"reachgraph/internal/registry"
	"reachgraph/internal/scheduler"
	"reachgraph/internal/service"
)

// engine is the assembled monitoring pipeline
type engine struct {
	registry  *registry.Registry
	publisher *service.Publisher
	service   *service.MonitorService
	scheduler *scheduler.Scheduler
	prober    *probe.Prober
}

// newEngine wires registry, prober, scheduler and publisher from cfg
func newEngine(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	prim, err := probe.NewPrimitive(cfg.Monitor.Method, cfg.ProbeOptions())
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrProbe,
			"Unsupported probe method",
			"Use one of: "+strings.Join(probe.Methods(), ", "))
	}

	reg := registry.New(cfg.Layout.Magnitude)
	pub := service.NewPublisher(reg, logger)
	svc := service.NewMonitorService(reg, pub, logger)
	prober := probe.New(prim, cfg.ProbeConfig(), logger)
	sched := scheduler.New(reg, prober, cfg.SchedulerConfig(), logger)

	sched.OnRound(svc.RoundCompleted)
	svc.SetRounds(sched)

	return &engine{
		registry:  reg,
		publisher: pub,
		service:   svc,
		scheduler: sched,
		prober:    prober,
	}, nil
}

// seed registers endpoints and reports rejected ones to w
func (e *engine) seed(endpoints []string, w io.Writer) {
	for _, res := range e.service.Seed(endpoints) {
		if !res.OK() {
			fmt.Fprintf(w, "warning: %s\n", res)
		}
	}
}

// newLogger builds the process logger. quiet sends unconfigured output
// nowhere, for when the terminal belongs to the dashboard.
func newLogger(cfg *config.Config, stderr io.Writer, quiet bool) (*slog.Logger, io.Closer, error) {
	fallback := stderr
	if quiet {
		fallback = io.Discard
	}
	logger, closer, err := cfg.Logging.NewLogger(fallback)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to set up logging",
			"Check logging.level, logging.format and logging.path")
	}
	return logger, closer, nil
}
