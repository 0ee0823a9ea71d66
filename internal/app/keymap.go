package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding handled in handleKey.
type KeyMap struct {
	Quit        key.Binding
	Focus       key.Binding
	Up          key.Binding
	Down        key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	PlayPause   key.Binding
	Stop        key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	Taller      key.Binding
	Shorter     key.Binding
	Add         key.Binding
	Remove      key.Binding
	Export      key.Binding
	NextStory   key.Binding
	PrevStory   key.Binding
	Reload      key.Binding
	Help        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveUp:      key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown:    key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		PlayPause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		SeekBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-1s")),
		SeekForward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+1s")),
		ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Taller:      key.NewBinding(key.WithKeys("pgup", "}"), key.WithHelp("}", "taller editor")),
		Shorter:     key.NewBinding(key.WithKeys("pgdown", "{"), key.WithHelp("{", "shorter editor")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		NextStory:   key.NewBinding(key.WithKeys("]", "n"), key.WithHelp("]", "next story")),
		PrevStory:   key.NewBinding(key.WithKeys("[", "p"), key.WithHelp("[", "prev story")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Stop, k.Focus, k.MoveUp, k.MoveDown, k.Add, k.Remove, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown, k.Focus},
		{k.PlayPause, k.Stop, k.SeekBack, k.SeekForward},
		{k.ZoomIn, k.ZoomOut, k.Taller, k.Shorter},
		{k.Add, k.Remove, k.Export, k.Reload},
		{k.NextStory, k.PrevStory, k.Help, k.Quit},
	}
}
