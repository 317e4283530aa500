// Package ui renders snapshots for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"reachgraph/internal/domain"
)

// Status colors, ANSI codes so they follow the terminal theme
const (
	ColorConnected    lipgloss.Color = "2" // Green
	ColorUnknown      lipgloss.Color = "3" // Orange/yellow
	ColorDisconnected lipgloss.Color = "1" // Red
	ColorMuted        lipgloss.Color = "8" // Gray
	ColorAccent       lipgloss.Color = "6" // Cyan
)

// Symbols
const (
	SymbolHub   = "◉"
	SymbolNode  = "●"
	SymbolSpoke = "·"
)

var (
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// DisableColor strips colors from all rendering
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// StatusColor returns the terminal color for a status
func StatusColor(s domain.Status) lipgloss.Color {
	switch s.Color() {
	case domain.ColorGreen:
		return ColorConnected
	case domain.ColorOrange:
		return ColorUnknown
	default:
		return ColorDisconnected
	}
}

// StatusStyle returns the text style for a status
func StatusStyle(s domain.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(StatusColor(s))
}
