package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reachgraph/internal/errors"
)

// Global flags
type globalOptions struct {
	configPath string
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "reachgraph",
		Short: "Watch endpoint reachability on a star graph",
		Long: `reachgraph probes a list of endpoints on a fixed interval and shows
their liveness as a star graph: the local host in the center and one spoke
per endpoint, colored green (reachable), red (unreachable) or orange (not
yet probed).

Examples:
  reachgraph run
  reachgraph run --endpoint 1.1.1.1 --endpoint 9.9.9.9 --method tcp
  reachgraph probe 8.8.8.8 -o json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: search "+configSearchHint+")")
	// Read through viper, see applyOverrides
	rootCmd.PersistentFlags().String(keyLogLevel, "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String(keyLogFormat, "", "log format: text, json")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newLayoutCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newDoctorCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

const configSearchHint = "$REACHGRAPH_CONFIG, ./reachgraph.yaml, ~/.config/reachgraph/config.yaml"

// Execute runs the root command and exits with the error's status
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit status
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(stderr, render(err))
	}
	return errors.ExitCode(err)
}

// render formats an error for the terminal. Structured errors carry their
// own layout.
func render(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Error()
	}
	return fmt.Sprintf("✗ %v\n", err)
}
