// Package console interprets the interactive command line.
//
//	add <address>...         start monitoring
//	remove|rm <address>...   stop monitoring
//	list|ls                  show monitored nodes
//	probe                    run a probing round now
//	help                     show commands
//	quit|exit                leave the dashboard
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reachgraph/internal/domain"
	"reachgraph/internal/scheduler"
	"reachgraph/internal/service"
)

// ErrUsage marks a malformed command line
var ErrUsage = errors.New("usage")

// Monitor is the command surface the console drives
type Monitor interface {
	Add(address string) service.Result
	Remove(address string) service.Result
	Nodes() []domain.Node
	TriggerRound(ctx context.Context) (scheduler.RoundResult, error)
}

// Reply is the outcome of one command line
type Reply struct {
	Lines []string
	Err   error
	Quit  bool
}

// OK reports whether every part of the command succeeded
func (r Reply) OK() bool {
	return r.Err == nil
}

func (r Reply) String() string {
	return strings.Join(r.Lines, "\n")
}

// Console parses command lines and runs them against a Monitor
type Console struct {
	monitor Monitor
}

// New creates a console
func New(monitor Monitor) *Console {
	return &Console{monitor: monitor}
}

// Help lists the commands
func Help() []string {
	return []string{
		"add <address>...        start monitoring addresses",
		"remove <address>...     stop monitoring addresses (alias: rm)",
		"list                    show monitored nodes (alias: ls)",
		"probe                   run a probing round now",
		"help                    show this help",
		"quit                    leave (alias: exit)",
	}
}

// Execute runs one command line. Failures come back in the reply.
func (c *Console) Execute(ctx context.Context, line string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			reply = Reply{Lines: []string{fmt.Sprintf("internal error: %v", r)}, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "add":
		return c.mutate(args, "add", c.monitor.Add)
	case "remove", "rm":
		return c.mutate(args, "remove", c.monitor.Remove)
	case "list", "ls":
		return c.list()
	case "probe":
		return c.probe(ctx)
	case "help", "?":
		return Reply{Lines: Help()}
	case "quit", "exit", "q":
		return Reply{Quit: true}
	default:
		err := fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
		return Reply{Lines: []string{err.Error() + " (try: help)"}, Err: err}
	}
}

func (c *Console) mutate(args []string, name string, op func(string) service.Result) Reply {
	if len(args) == 0 {
		err := fmt.Errorf("%w: %s <address>...", ErrUsage, name)
		return Reply{Lines: []string{err.Error()}, Err: err}
	}

	var reply Reply
	var errs []error
	for _, addr := range args {
		res := op(addr)
		reply.Lines = append(reply.Lines, res.String())
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	reply.Err = errors.Join(errs...)
	return reply
}

func (c *Console) list() Reply {
	nodes := c.monitor.Nodes()
	if len(nodes) == 0 {
		return Reply{Lines: []string{"no endpoints"}}
	}

	lines := make([]string, len(nodes))
	for i, n := range nodes {
		lines[i] = fmt.Sprintf("%2d  %-24s %s", n.Index(), n.Address, n.Status)
	}
	return Reply{Lines: lines}
}

func (c *Console) probe(ctx context.Context) Reply {
	res, err := c.monitor.TriggerRound(ctx)
	if err != nil {
		return Reply{Lines: []string{fmt.Sprintf("probe: %v", err)}, Err: err}
	}
	return Reply{Lines: []string{fmt.Sprintf("round %d: %d probed, %d connected, %d disconnected",
		res.Round, res.Probed, res.Connected, res.Disconnected)}}
}
