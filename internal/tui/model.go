// Package tui is the interactive terminal dashboard: the ring plot, the
// node table and a command prompt driving the console.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reachgraph/internal/console"
	"reachgraph/internal/domain"
	"reachgraph/internal/service"
	"reachgraph/internal/ui"
)

// Size limits for the plot area
const (
	minPlotWidth  = 20
	minPlotHeight = 7
	maxReplyLines = 6
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorAccent)
	replyStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	errStyle   = lipgloss.NewStyle().Foreground(ui.ColorDisconnected)
)

// snapshotMsg carries a publication from the engine
type snapshotMsg domain.Snapshot

// feedClosedMsg signals the publisher subscription ended
type feedClosedMsg struct{}

// replyMsg carries the outcome of a console command
type replyMsg console.Reply

// Model is the Bubble Tea model for the dashboard
type Model struct {
	ctx     context.Context
	console *console.Console
	feed    <-chan service.Event
	input   textinput.Model

	snap     domain.Snapshot
	reply    console.Reply
	busy     bool
	width    int
	height   int
	quitting bool
}

// NewModel creates the dashboard. feed is a publisher subscription and
// initial the snapshot to show before the first publication arrives.
func NewModel(ctx context.Context, c *console.Console, feed <-chan service.Event, initial domain.Snapshot) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "add <address> | remove <address> | probe | help"
	input.CharLimit = 256
	input.Focus()

	return Model{
		ctx:     ctx,
		console: c,
		feed:    feed,
		input:   input,
		snap:    initial,
		width:   80,
		height:  24,
	}
}

// Init starts listening for snapshots
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot())
}

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" || m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.execute(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = domain.Snapshot(msg)
		return m, m.waitForSnapshot()

	case feedClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case replyMsg:
		m.busy = false
		m.reply = console.Reply(msg)
		if m.reply.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	table := ui.NodeTable(m.snap)
	tableWidth := lipgloss.Width(table)

	plotWidth := max(minPlotWidth, m.width-tableWidth-4)
	plotHeight := max(minPlotHeight, m.height-maxReplyLines-5)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.Plot(m.snap, plotWidth, plotHeight),
		"  ",
		table,
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("reachgraph"))
	b.WriteString("  ")
	b.WriteString(ui.Summary(m.snap))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(ui.Legend())
	b.WriteString("\n")
	b.WriteString(m.renderReply())
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) renderReply() string {
	lines := m.reply.Lines
	if m.busy {
		lines = []string{"running..."}
	}
	if len(lines) > maxReplyLines {
		lines = append(lines[:maxReplyLines-1:maxReplyLines-1], "...")
	}

	style := replyStyle
	if m.reply.Err != nil && !m.busy {
		style = errStyle
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(style.Render(l))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) waitForSnapshot() tea.Cmd {
	feed := m.feed
	return func() tea.Msg {
		ev, ok := <-feed
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(ev.Snapshot)
	}
}

func (m Model) execute(line string) tea.Cmd {
	ctx, c := m.ctx, m.console
	return func() tea.Msg {
		return replyMsg(c.Execute(ctx, line))
	}
}

// Run shows the dashboard until the user quits or ctx is done
func Run(ctx context.Context, model Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
