package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down   key.Binding
	Open       key.Binding
	Close      key.Binding
	Search     key.Binding
	From, To   key.Binding
	Status     key.Binding
	Clear      key.Binding
	Theme      key.Binding
	Logout     key.Binding
	Help       key.Binding
	Quit       key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Submit     key.Binding
	ForceQuit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Search, k.Status, k.Logout, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Close},
		{k.Search, k.From, k.To, k.Status, k.Clear},
		{k.Theme, k.Logout, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "payment date")),
	Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	From:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "from date")),
	To:        key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "to date")),
	Status:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
	Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
	Theme:     key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
	Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	NextField: key.NewBinding(key.WithKeys("tab", "down")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up")),
	Submit:    key.NewBinding(key.WithKeys("enter")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}
