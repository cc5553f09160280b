package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Seek    key.Binding
	Toggle  key.Binding
	Back    key.Binding
	Forward key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Seek: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "jump to line"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "p"),
			key.WithHelp("space", "play/pause"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Seek, k.Toggle, k.Back, k.Forward, k.Quit}
}
