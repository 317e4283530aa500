package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reachgraph/internal/config"
	"reachgraph/internal/core/bootstrap"
	"reachgraph/internal/errors"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(global))
	cmd.AddCommand(newConfigShowCmd(global))
	cmd.AddCommand(newConfigPathsCmd())
	return cmd
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var force, detect bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Long: `Write the default configuration to --config, or to
~/.config/reachgraph/config.yaml when no path is given.

With --detect the probe method is the one "reachgraph doctor" recommends
for this host.

Examples:
  reachgraph config init
  reachgraph config init --detect
  reachgraph config init --config ./reachgraph.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrConfig,
					"Config file already exists: "+path,
					"Pass --force to overwrite it")
			}

			cfg := config.DefaultConfig()
			if detect {
				logger := slog.New(slog.NewTextHandler(io.Discard, nil))
				res := bootstrap.Run(cmd.Context(), bootstrap.SystemHost(), logger)
				cfg.Monitor.Method = res.Recommendation.Method
				fmt.Fprintf(cmd.OutOrStdout(), "detected probe method: %s\n", cfg.Monitor.Method)
			}

			if err := cfg.Save(path); err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Failed to write "+path,
					"Check the directory is writable")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&detect, "detect", false, "pick the probe method that works on this host")
	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and REACHGRAPH_* environment
overrides have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(global, cmd.Flags())
			if err != nil {
				return err
			}

			data, err := cfg.Marshal()
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrOutput, "Failed to render config", "")
			}

			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, "# source: defaults (no config file found)")
			} else {
				fmt.Fprintf(out, "# source: %s\n", path)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List the config search path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			found := config.FindConfigPath()
			for _, p := range config.SearchPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if found != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nusing %s\n", found)
			}
		},
	}
}
