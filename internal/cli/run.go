package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"reachgraph/internal/codec"
	"reachgraph/internal/config"
	"reachgraph/internal/console"
	"reachgraph/internal/errors"
	"reachgraph/internal/handler"
	"reachgraph/internal/hub"
	"reachgraph/internal/service"
	"reachgraph/internal/tui"
	"reachgraph/internal/ui"
	"reachgraph/internal/watcher"
)

// shutdownTimeout bounds the HTTP server drain on exit
const shutdownTimeout = 10 * time.Second

type runOptions struct {
	endpoints []string
	source    endpointSource
	noServer  bool
	noTUI     bool
}

// session holds what runMonitor needs beyond the config
type session struct {
	configPath string
	watch      bool
	tui        bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Monitor endpoints until interrupted",
		Long: `Probe every endpoint once per interval and show the star graph.

On a terminal this opens the dashboard, where commands can be typed at the
prompt (add, remove, list, probe, help, quit). Otherwise a status table is
printed after every round. The HTTP API and the SSE event stream are served
on --listen unless --no-server is given.

Every setting can also come from the environment, e.g. REACHGRAPH_INTERVAL,
REACHGRAPH_METHOD or REACHGRAPH_LISTEN.

Examples:
  reachgraph run
  reachgraph run -e 1.1.1.1 -e 9.9.9.9 --interval 5s
  reachgraph run --endpoints-file hosts.yaml
  reachgraph run --method tcp --no-tui --listen 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(global, cmd.Flags())
			if err != nil {
				return err
			}
			endpoints, replaced, err := opts.source.resolve(cfg, opts.endpoints, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg.Endpoints = endpoints
			if opts.noServer {
				cfg.Server.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runMonitor(ctx, cfg, session{
				configPath: path,
				watch:      cfg.Watch && path != "" && !replaced,
				tui:        !opts.noTUI && isTerminal(),
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
			})
		},
	}

	addMonitorFlags(cmd.Flags())
	cmd.Flags().StringArrayVarP(&opts.endpoints, "endpoint", "e", nil, "endpoint to monitor, repeatable (replaces the configured list)")
	opts.source.register(cmd)
	cmd.Flags().Float64(keyMagnitude, 0, "ring radius of the layout")
	cmd.Flags().String(keyListen, "", "HTTP listen address (default "+config.DefaultListen+")")
	cmd.Flags().BoolVar(&opts.noServer, "no-server", false, "do not serve the HTTP API")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "print a table per round instead of the dashboard")

	return cmd
}

// addMonitorFlags registers the probing overrides shared by run and probe
func addMonitorFlags(flags *pflag.FlagSet) {
	flags.String(keyInterval, "", "time between rounds, e.g. 2s (bare numbers are seconds)")
	flags.String(keyTimeout, "", "per-probe timeout, e.g. 1s")
	flags.StringP(keyMethod, "m", "", "probe method: icmp, nmap, stun, tcp")
	flags.Int(keyMaxConcurrent, 0, "probes in flight per round (0 = all at once)")
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// runMonitor runs the engine and its surfaces until ctx is done or the
// dashboard quits
func runMonitor(ctx context.Context, cfg *config.Config, s session) error {
	logger, closer, err := newLogger(cfg, s.stderr, s.tui)
	if err != nil {
		return err
	}
	defer closer.Close()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	eng.seed(cfg.Endpoints, s.stderr)

	var ln net.Listener
	if cfg.Server.Enabled {
		ln, err = net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrServer,
				"Cannot listen on "+cfg.Server.Listen,
				"Pick another address with --listen, or pass --no-server")
		}
	}

	logger.Info("monitor starting",
		"endpoints", eng.registry.Len(),
		"method", eng.prober.Method(),
		"interval", cfg.Monitor.Interval,
		"config", s.configPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Subscribe before the first round can publish
	feed, unsubscribe := eng.publisher.Subscribe()
	defer unsubscribe()
	if ln != nil {
		serve(gctx, g, ln, eng, logger)
	}

	g.Go(func() error {
		return eng.scheduler.Run(gctx)
	})

	if s.watch {
		g.Go(func() error {
			watchConfig(gctx, s.configPath, eng.service, logger)
			return nil
		})
	}

	if !s.tui {
		g.Go(func() error {
			return logRounds(gctx, feed, s.stdout)
		})
		return g.Wait()
	}

	model := tui.NewModel(gctx, console.New(eng.service), feed, eng.service.Snapshot())
	err = tui.Run(gctx, model)

	unsubscribe()
	cancel()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

// serve starts the SSE hub and the HTTP server on ln. Both stop when ctx
// is done.
func serve(ctx context.Context, g *errgroup.Group, ln net.Listener, eng *engine, logger *slog.Logger) {
	events, feed, unsubscribe := newEventHub(eng.publisher, logger)

	// No WriteTimeout: the event stream is long-lived
	server := &http.Server{
		Handler:           newHTTPHandler(eng.service, events, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		defer unsubscribe()
		events.Run(ctx, feed)
		return nil
	})

	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapWithCode(err, errors.ErrServer, "HTTP server failed", "")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
		logger.Info("server stopped")
		return nil
	})
}

// newEventHub creates the SSE hub and its publisher subscription. The hub
// is primed with the latest publication so clients connecting before the
// first round still receive the seeded snapshot.
func newEventHub(pub *service.Publisher, logger *slog.Logger) (*hub.Hub, <-chan service.Event, func()) {
	events := hub.New(logger)
	feed, unsubscribe := pub.Subscribe()
	if snap, ok := pub.Latest(); ok {
		events.Prime(service.Event{Type: service.EventSnapshot, Snapshot: snap})
	}
	return events, feed, unsubscribe
}

// newHTTPHandler routes the API and the event stream through the
// middleware chain
func newHTTPHandler(svc handler.Monitor, events http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	handler.NewMonitorHandler(svc, logger).Register(mux, events)

	return handler.Chain(mux,
		handler.Recover(logger),
		handler.CORS,
		handler.Logger(logger),
	)
}

// watchConfig reloads the endpoint list whenever the config file changes.
// Other settings need a restart.
func watchConfig(ctx context.Context, path string, svc *service.MonitorService, logger *slog.Logger) {
	w := watcher.New(path, func() {
		cfg, _, err := config.LoadFromPath(path)
		if err != nil {
			logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		svc.Reload(cfg.Endpoints)
	}, logger)

	if err := w.Watch(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		logger.Warn("config watch stopped", "path", path, "error", err)
	}
}

// logRounds prints a summary and a table for every publication on feed
// until ctx is done or feed is closed
func logRounds(ctx context.Context, feed <-chan service.Event, w io.Writer) error {
	table, err := codec.ForFormat("table")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s  %s\n", ev.Snapshot.CreatedAt.Format(time.TimeOnly), ui.Summary(ev.Snapshot))
			if err := table.Export(ev.Snapshot, w); err != nil {
				return errors.WrapWithCode(err, errors.ErrOutput, "Failed to write round table", "")
			}
			fmt.Fprintln(w)
		}
	}
}
