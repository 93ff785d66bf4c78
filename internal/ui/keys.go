package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	// Navigation
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Selection
	Select      key.Binding
	SelectAll   key.Binding
	ClearSelect key.Binding

	// Card actions
	MoveLeft  key.Binding
	MoveRight key.Binding
	Add       key.Binding
	Edit      key.Binding
	Open      key.Binding
	Priority  key.Binding
	Assign    key.Binding
	Delete    key.Binding
	BulkDel   key.Binding
	BulkMove  key.Binding

	// Filters
	Search         key.Binding
	FilterPriority key.Binding
	FilterAssignee key.Binding
	Overdue        key.Binding
	Sort           key.Binding
	SortDirection  key.Binding

	// Boards
	TaskBoard    key.Binding
	ProjectBoard key.Binding

	// General
	Sync       key.Binding
	Export     key.Binding
	ThemeCycle key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "column left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "column right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),

		// Selection
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "select all visible"),
		),
		ClearSelect: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear selection/filters"),
		),

		// Card actions
		MoveLeft: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "move left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "move right"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit title"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open project"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		Assign: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "assignee"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		BulkDel: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		BulkMove: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move selected"),
		),

		// Filters
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "priority filter"),
		),
		FilterAssignee: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "assignee filter"),
		),
		Overdue: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "overdue only"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort field"),
		),
		SortDirection: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort direction"),
		),

		// Boards
		TaskBoard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "tasks"),
		),
		ProjectBoard: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "projects"),
		),

		// General
		Sync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "resync"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export csv"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.MoveLeft, k.MoveRight, k.Select, k.Search, k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.Top, k.Bottom},
		{k.Select, k.SelectAll, k.ClearSelect, k.BulkMove, k.BulkDel},
		{k.MoveLeft, k.MoveRight, k.Add, k.Edit, k.Open, k.Priority, k.Assign, k.Delete},
		{k.Search, k.FilterPriority, k.FilterAssignee, k.Overdue, k.Sort, k.SortDirection},
		{k.TaskBoard, k.ProjectBoard, k.Sync, k.Export, k.ThemeCycle, k.Help, k.Quit},
	}
}
