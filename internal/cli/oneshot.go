package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"reachgraph/internal/codec"
	"reachgraph/internal/errors"
)

type outputOptions struct {
	format string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "output", "o", "table", "output format: "+strings.Join(codec.Formats(), ", "))
}

func (o *outputOptions) exporter() (codec.Exporter, error) {
	exp, err := codec.ForFormat(o.format)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrOutput,
			"Unknown output format "+o.format,
			"Use one of: "+strings.Join(codec.Formats(), ", "))
	}
	return exp, nil
}

func newProbeCmd(global *globalOptions) *cobra.Command {
	out := &outputOptions{}
	src := &endpointSource{}

	cmd := &cobra.Command{
		Use:   "probe [address...]",
		Short: "Probe endpoints once and print the result",
		Long: `Run a single probing round and print the resulting snapshot.

Addresses given as arguments, or read with --endpoints-file, replace the
configured endpoint list.

Examples:
  reachgraph probe
  reachgraph probe 1.1.1.1 example.com -o json
  reachgraph probe --endpoints-file hosts.yaml
  reachgraph probe 10.0.0.1 --method tcp --timeout 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := out.exporter()
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(global, cmd.Flags())
			if err != nil {
				return err
			}
			endpoints, _, err := src.resolve(cfg, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			// Logs stay quiet unless --log-level asks for them
			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr(), !cmd.Flags().Changed(keyLogLevel))
			if err != nil {
				return err
			}
			defer closer.Close()

			eng, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			eng.seed(endpoints, cmd.ErrOrStderr())

			if _, err := eng.service.TriggerRound(cmd.Context()); err != nil {
				return errors.WrapWithCode(err, errors.ErrProbe, "Probing round failed", "")
			}

			if err := exp.Export(eng.service.Snapshot(), cmd.OutOrStdout()); err != nil {
				return errors.WrapWithCode(err, errors.ErrOutput, "Failed to write snapshot", "")
			}
			return nil
		},
	}

	addMonitorFlags(cmd.Flags())
	src.register(cmd)
	out.register(cmd)
	return cmd
}

func newLayoutCmd(global *globalOptions) *cobra.Command {
	out := &outputOptions{}
	src := &endpointSource{}

	cmd := &cobra.Command{
		Use:   "layout [address...]",
		Short: "Print the ring layout without probing",
		Long: `Place the endpoints on the ring and print the snapshot. Every endpoint
is reported as unknown since nothing is probed.

Examples:
  reachgraph layout a.example b.example c.example
  reachgraph layout --magnitude 10 -o yaml
  cat hosts.json | reachgraph layout --endpoints-file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := out.exporter()
			if err != nil {
				return err
			}
			cfg, _, err := loadConfig(global, cmd.Flags())
			if err != nil {
				return err
			}
			endpoints, _, err := src.resolve(cfg, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr(), !cmd.Flags().Changed(keyLogLevel))
			if err != nil {
				return err
			}
			defer closer.Close()

			eng, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}
			eng.seed(endpoints, cmd.ErrOrStderr())

			if err := exp.Export(eng.service.Snapshot(), cmd.OutOrStdout()); err != nil {
				return errors.WrapWithCode(err, errors.ErrOutput, "Failed to write snapshot", "")
			}
			return nil
		},
	}

	cmd.Flags().Float64(keyMagnitude, 0, "ring radius of the layout")
	src.register(cmd)
	out.register(cmd)
	return cmd
}
