package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Enter     key.Binding
	Add       key.Binding
	Project   key.Binding
	Edit      key.Binding
	Notes     key.Binding
	Color     key.Binding
	Done      key.Binding
	Delete    key.Binding
	Bin       key.Binding
	Completed key.Binding
	Restore   key.Binding
	Purge     key.Binding
	Help      key.Binding
	Quit      key.Binding
	Escape    key.Binding
	Refresh   key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	MoveLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move to previous column")),
	MoveRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move to next column")),
	MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
	MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show notes")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Project:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
	Notes:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "edit notes")),
	Color:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "next project color")),
	Done:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "complete")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Bin:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "recycle bin")),
	Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
	Restore:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore / reopen")),
	Purge:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete forever")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back / dismiss")),
	Refresh:   key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "resync")),
}

// helpGroups lists the bindings shown on the help screen, by section
func helpGroups() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{keys.Up, keys.Down, keys.Left, keys.Right, keys.Enter}},
		{"Moving", []key.Binding{keys.MoveUp, keys.MoveDown, keys.MoveLeft, keys.MoveRight}},
		{"Editing", []key.Binding{keys.Add, keys.Project, keys.Edit, keys.Notes, keys.Color, keys.Done, keys.Delete}},
		{"Archives", []key.Binding{keys.Bin, keys.Completed, keys.Restore, keys.Purge}},
		{"General", []key.Binding{keys.Refresh, keys.Escape, keys.Help, keys.Quit}},
	}
}
