package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reachgraph/internal/domain"
)

// Legend explains the status colors
func Legend() string {
	parts := []string{
		StatusStyle(domain.StatusConnected).Render(SymbolNode + " connected"),
		StatusStyle(domain.StatusUnknown).Render(SymbolNode + " unknown"),
		StatusStyle(domain.StatusDisconnected).Render(SymbolNode + " disconnected"),
	}
	return strings.Join(parts, "  ")
}

// NodeTable lists the spokes of the snapshot with their status
func NodeTable(snap domain.Snapshot) string {
	if snap.Spokes() == 0 {
		return mutedStyle.Render("no endpoints")
	}

	width := len("ADDRESS")
	for _, l := range snap.Labels[1:] {
		width = max(width, lipgloss.Width(l))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%3s  %-*s  %s", "#", width, "ADDRESS", "STATUS")))
	for i := 1; i < snap.Len(); i++ {
		st := snap.Colors[i]
		fmt.Fprintf(&b, "\n%3d  %-*s  %s", i, width, snap.Labels[i],
			StatusStyle(st).Render(SymbolNode+" "+st.String()))
	}
	return b.String()
}

// Summary is a one-line status count
func Summary(snap domain.Snapshot) string {
	var up, down, unknown int
	for _, st := range snap.Colors[min(1, len(snap.Colors)):] {
		switch st {
		case domain.StatusConnected:
			up++
		case domain.StatusDisconnected:
			down++
		default:
			unknown++
		}
	}
	return fmt.Sprintf("round %d  %s  %s  %s",
		snap.Round,
		StatusStyle(domain.StatusConnected).Render(fmt.Sprintf("%d up", up)),
		StatusStyle(domain.StatusDisconnected).Render(fmt.Sprintf("%d down", down)),
		StatusStyle(domain.StatusUnknown).Render(fmt.Sprintf("%d unknown", unknown)))
}
