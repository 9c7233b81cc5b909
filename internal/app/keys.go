package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	VoteA       key.Binding
	VoteB       key.Binding
	VoteTie     key.Binding
	NewBattle   key.Binding
	Leaderboard key.Binding
	Escape      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		VoteA: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "vote left"),
		),
		VoteB: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "vote right"),
		),
		VoteTie: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "vote tie"),
		),
		NewBattle: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new battle"),
		),
		Leaderboard: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "leaderboard"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
