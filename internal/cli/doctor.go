package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"reachgraph/internal/core/bootstrap"
	"reachgraph/internal/domain"
	"reachgraph/internal/errors"
	"reachgraph/internal/ui"
)

// DoctorOutput is the JSON output of the doctor command
type DoctorOutput struct {
	Configured     string                   `json:"configured"`
	Methods        []bootstrap.MethodStatus `json:"methods"`
	Recommendation bootstrap.Recommendation `json:"recommendation"`
	Evidence       []bootstrap.Evidence     `json:"evidence"`
}

func newDoctorCmd(global *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check which probe methods work on this host",
		Long: `Inspect this host for what each probe method needs: the ping binary,
raw socket permission, nmap and outbound TCP. Reports the configured method
and recommends one that works.

Exits non-zero when the configured method is unavailable.

Examples:
  reachgraph doctor
  reachgraph doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(global, cmd.Flags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			res := bootstrap.Run(cmd.Context(), bootstrap.SystemHost(), logger)

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeDoctorJSON(out, cfg.Monitor.Method, res); err != nil {
					return errors.WrapWithCode(err, errors.ErrOutput, "Failed to write report", "")
				}
			} else {
				writeDoctorText(out, cfg.Monitor.Method, res)
			}

			if !bootstrap.Available(res.Evidence, cfg.Monitor.Method) {
				return errors.New(errors.ErrProbe,
					fmt.Sprintf("Configured probe method %s is not available", cfg.Monitor.Method),
					fmt.Sprintf("Set monitor.method: %s, or pass --method %s", res.Recommendation.Method, res.Recommendation.Method))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	cmd.Flags().StringP(keyMethod, "m", "", "probe method to check instead of the configured one")
	return cmd
}

func writeDoctorJSON(w io.Writer, configured string, res *bootstrap.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(DoctorOutput{
		Configured:     configured,
		Methods:        res.Methods(),
		Recommendation: res.Recommendation,
		Evidence:       res.Evidence.All(),
	})
}

func writeDoctorText(w io.Writer, configured string, res *bootstrap.Result) {
	passStyle := ui.StatusStyle(domain.StatusConnected)
	failStyle := ui.StatusStyle(domain.StatusDisconnected)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	mark := func(ok bool) string {
		if ok {
			return passStyle.Render("✓")
		}
		return failStyle.Render("✗")
	}

	fmt.Fprintln(w, headerStyle.Render("reachgraph diagnostic report"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("CHECKS"))
	for _, e := range res.Evidence.All() {
		ok, isBool := e.Value.(bool)
		symbol := mutedStyle.Render("·")
		value := ""
		if isBool {
			symbol = mark(ok)
		} else {
			value = fmt.Sprintf(" = %v", e.Value)
		}
		fmt.Fprintf(w, "  %s %s%s %s\n", symbol, e.Property, value, mutedStyle.Render("("+e.Method+")"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("METHODS"))
	for _, m := range res.Methods() {
		note := ""
		if m.Method == configured {
			note = mutedStyle.Render(" (configured)")
		}
		fmt.Fprintf(w, "  %s %s%s\n", mark(m.Available), m.Method, note)
	}
	fmt.Fprintln(w)

	rec := res.Recommendation
	fmt.Fprintf(w, "Recommended method: %s (confidence %.0f%%)\n", rec.Method, rec.Confidence*100)
	for _, r := range rec.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	for _, warning := range rec.Warnings {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("!"), warning)
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("━", 40)))
}
