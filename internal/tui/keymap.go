package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the dashboard.
type KeyMap struct {
	NextNode    key.Binding
	PrevNode    key.Binding
	NextService key.Binding
	CopyHash    key.Binding
	ToggleLog   key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns a KeyMap with default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextNode: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "next node"),
		),
		PrevNode: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "previous node"),
		),
		NextService: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "next service"),
		),
		CopyHash: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy block hash"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle log overlay"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "quit"),
		),
	}
}

// FullHelp returns bindings for the help overlay, one inner slice per
// column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextNode, k.PrevNode, k.NextService},
		{k.CopyHash, k.ToggleLog, k.Help, k.Quit},
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}
