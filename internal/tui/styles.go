package tui

import (
	"github.com/charmbracelet/lipgloss"

	"chainmon/internal/node"
)

var (
	colorOnline  = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	colorSyncing = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
	colorOffline = lipgloss.AdaptiveColor{Light: "124", Dark: "196"}
	colorPending = lipgloss.AdaptiveColor{Light: "240", Dark: "246"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "25", Dark: "39"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "243", Dark: "241"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle()

	// flashStyle highlights the height for a short window after a new block.
	flashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorOnline)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

// statusStyle maps a node or service status to its display style.
func statusStyle(s node.Status) lipgloss.Style {
	switch s {
	case node.StatusOnline:
		return lipgloss.NewStyle().Foreground(colorOnline)
	case node.StatusSynchronizing:
		return lipgloss.NewStyle().Foreground(colorSyncing)
	case node.StatusConnecting:
		return lipgloss.NewStyle().Foreground(colorPending)
	default:
		return lipgloss.NewStyle().Foreground(colorOffline)
	}
}
