package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	New      key.Binding
	Delete   key.Binding
	Refresh  key.Binding
	Section  key.Binding
	Title    key.Binding
	Describe key.Binding
	Due      key.Binding
	Items    key.Binding
	Comment  key.Binding
	Upload   key.Binding
	Browse   key.Binding
	Copy     key.Binding
	Edit     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Save     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open board"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	New: key.NewBinding(
		key.WithKeys("a", "n"),
		key.WithHelp("a/n", "new"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "x"),
		key.WithHelp("d/x", "delete"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Section: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "comments/attachments"),
	),
	Title: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "edit title"),
	),
	Describe: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit description"),
	),
	Due: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "edit due date"),
	),
	Items: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "edit items"),
	),
	Comment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "add comment"),
	),
	Upload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "upload file"),
	),
	Browse: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open link"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy link"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e", "enter"),
		key.WithHelp("e/enter", "edit item"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "move item up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "move item down"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s", "s"),
		key.WithHelp("s/ctrl+s", "save"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
