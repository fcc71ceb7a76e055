package input

import "github.com/charmbracelet/bubbles/key"

// Map holds the bindings active while no text is being entered.
type Map struct {
	Quit       key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Prev       key.Binding
	Next       key.Binding
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	LogUp      key.Binding
	LogDown    key.Binding
	InfoUp     key.Binding
	InfoDown   key.Binding
	KernelNext key.Binding
	KernelPrev key.Binding
	Unload     key.Binding
	Blacklist  key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	Search     key.Binding
	Load       key.Binding
	UsedBy     key.Binding
}

// InputMap holds the bindings active while the search or load prompt has focus.
type InputMap struct {
	Quit     key.Binding
	PrevMode key.Binding
	NextMode key.Binding
	Submit   key.Binding
	Erase    key.Binding
}

var Default = Map{
	Quit: key.NewBinding(
		key.WithKeys("q", "Q", "ctrl+c", "ctrl+d", "esc"),
		key.WithHelp("q", "Quit")),
	Refresh: key.NewBinding(
		key.WithKeys("r", "R", "f5"),
		key.WithHelp("r", "Refresh")),
	Help: key.NewBinding(
		key.WithKeys("?", "f1"),
		key.WithHelp("?", "Help")),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "H", "ctrl+h"),
		key.WithHelp("←/h", "Previous block")),
	Next: key.NewBinding(
		key.WithKeys("right", "l", "L", "ctrl+l"),
		key.WithHelp("→/l", "Next block")),
	Up: key.NewBinding(
		key.WithKeys("up", "k", "K"),
		key.WithHelp("↑/k", "Scroll up")),
	Down: key.NewBinding(
		key.WithKeys("down", "j", "J"),
		key.WithHelp("↓/j", "Scroll down")),
	Top: key.NewBinding(
		key.WithKeys("home", "t", "T"),
		key.WithHelp("t", "Top of list")),
	Bottom: key.NewBinding(
		key.WithKeys("end", "b", "B"),
		key.WithHelp("b", "Bottom of list")),
	LogUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "Scroll activities up")),
	LogDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "Scroll activities down")),
	InfoUp: key.NewBinding(
		key.WithKeys("<", "alt+ "),
		key.WithHelp("<", "Scroll module info up")),
	InfoDown: key.NewBinding(
		key.WithKeys(">", " "),
		key.WithHelp(">", "Scroll module info down")),
	KernelNext: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "Next kernel info")),
	KernelPrev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "Previous kernel info")),
	Unload: key.NewBinding(
		key.WithKeys("u", "U", "-", "backspace"),
		key.WithHelp("u", "Unload module")),
	Blacklist: key.NewBinding(
		key.WithKeys("x", "X", "ctrl+b", "delete"),
		key.WithHelp("x", "Blacklist module")),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "Execute command")),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "Cancel command")),
	Search: key.NewBinding(
		key.WithKeys("enter", "s", "S", "/", "insert"),
		key.WithHelp("/", "Search")),
	Load: key.NewBinding(
		key.WithKeys("m", "M", "i", "I", "+"),
		key.WithHelp("m", "Load module")),
	UsedBy: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "Show used module")),
}

var Input = InputMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "ctrl+d", "esc"),
		key.WithHelp("esc", "Quit")),
	PrevMode: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "Previous mode")),
	NextMode: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "Next mode")),
	Submit: key.NewBinding(
		key.WithKeys("enter", "tab", "right", "ctrl+l", "left", "ctrl+h"),
		key.WithHelp("enter", "Submit")),
	Erase: key.NewBinding(
		key.WithKeys("backspace", "delete"),
		key.WithHelp("⌫", "Delete character")),
}

// ShortHelp is the footer help shown in normal mode.
func (m Map) ShortHelp() []key.Binding {
	return []key.Binding{m.Quit, m.Help, m.Refresh, m.Search, m.Load, m.Unload, m.Blacklist}
}

// FullHelp groups every binding for the help page.
func (m Map) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.Quit, m.Refresh, m.Help, m.Prev, m.Next, m.Up, m.Down, m.Top, m.Bottom},
		{m.LogUp, m.LogDown, m.InfoUp, m.InfoDown, m.KernelNext, m.KernelPrev},
		{m.Search, m.Load, m.Unload, m.Blacklist, m.Confirm, m.Cancel, m.UsedBy},
	}
}

// ShortHelp is the footer help shown while the prompt is active.
func (m InputMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Submit, m.PrevMode, m.NextMode, m.Erase, m.Quit}
}

func (m InputMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
