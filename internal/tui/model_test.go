package tui

import (
	"context"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reachgraph/internal/console"
	"reachgraph/internal/domain"
	"reachgraph/internal/registry"
	"reachgraph/internal/scheduler"
	"reachgraph/internal/service"
	"reachgraph/internal/ui"
)

func TestMain(m *testing.M) {
	ui.DisableColor()
	os.Exit(m.Run())
}

type fakeMonitor struct {
	reg *registry.Registry
}

func (f *fakeMonitor) Add(address string) service.Result {
	return service.Result{Op: service.OpAdd, Address: address, Err: f.reg.Add(address)}
}

func (f *fakeMonitor) Remove(address string) service.Result {
	return service.Result{Op: service.OpRemove, Address: address, Err: f.reg.Remove(address)}
}

func (f *fakeMonitor) Nodes() []domain.Node {
	return f.reg.List()
}

func (f *fakeMonitor) TriggerRound(ctx context.Context) (scheduler.RoundResult, error) {
	return scheduler.RoundResult{}, nil
}

func newTestModel(t *testing.T, feed chan service.Event) (Model, *registry.Registry) {
	t.Helper()
	reg := registry.New(5)
	require.NoError(t, reg.Add("8.8.8.8"))
	c := console.New(&fakeMonitor{reg: reg})
	return NewModel(context.Background(), c, feed, reg.Snapshot()), reg
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t, make(chan service.Event))

	view := m.View()

	assert.Contains(t, view, "reachgraph")
	assert.Contains(t, view, "8.8.8.8")
	assert.Contains(t, view, ui.SymbolHub)
	assert.Contains(t, view, "> ")
}

func TestSnapshotMessage(t *testing.T) {
	feed := make(chan service.Event, 1)
	m, reg := newTestModel(t, feed)
	require.NoError(t, reg.Add("1.1.1.1"))
	feed <- service.Event{Type: service.EventSnapshot, Snapshot: reg.Snapshot()}

	msg := m.waitForSnapshot()()
	next, cmd := m.Update(msg)
	m = next.(Model)

	assert.NotNil(t, cmd, "model keeps listening after a snapshot")
	assert.Equal(t, 2, m.snap.Spokes())
	assert.Contains(t, m.View(), "1.1.1.1")
}

func TestFeedClosedQuits(t *testing.T) {
	feed := make(chan service.Event)
	m, _ := newTestModel(t, feed)
	close(feed)

	msg := m.waitForSnapshot()()
	assert.IsType(t, feedClosedMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
}

func TestEnterRunsCommand(t *testing.T) {
	m, reg := newTestModel(t, make(chan service.Event))

	m, cmd := typeLine(t, m, "add 1.1.1.1")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.False(t, m.busy)
	assert.True(t, m.reply.OK())
	assert.True(t, reg.Contains("1.1.1.1"))
	assert.Contains(t, m.View(), "added 1.1.1.1")
}

func TestFailedCommandShowsError(t *testing.T) {
	m, _ := newTestModel(t, make(chan service.Event))

	m, cmd := typeLine(t, m, "remove 9.9.9.9")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.False(t, m.reply.OK())
	assert.ErrorIs(t, m.reply.Err, registry.ErrNotFound)
}

func TestEmptyLineIgnored(t *testing.T) {
	m, _ := newTestModel(t, make(chan service.Event))

	m, cmd := typeLine(t, m, "   ")

	assert.Nil(t, cmd)
	assert.False(t, m.busy)
}

func TestQuitCommand(t *testing.T) {
	m, _ := newTestModel(t, make(chan service.Event))

	m, cmd := typeLine(t, m, "quit")
	require.NotNil(t, cmd)
	next, quit := m.Update(cmd())

	require.NotNil(t, quit)
	assert.True(t, next.(Model).quitting)
	assert.Empty(t, next.(Model).View())
}

func TestWindowSize(t *testing.T) {
	m, _ := newTestModel(t, make(chan service.Event))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
	assert.NotEmpty(t, m.View())
}
