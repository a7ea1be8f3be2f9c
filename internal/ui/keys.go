package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	New         key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Duplicate   key.Binding
	SelectAll   key.Binding
	Deselect    key.Binding
	Undo        key.Binding
	Redo        key.Binding
	ZoomIn      key.Binding
	ZoomOut     key.Binding
	ZoomPercent key.Binding
	PanLeft     key.Binding
	PanRight    key.Binding
	PageLeft    key.Binding
	PageRight   key.Binding
	Now         key.Binding
	Start       key.Binding
	NextTrack   key.Binding
	PrevTrack   key.Binding
	TrackUp     key.Binding
	TrackDown   key.Binding
	AddTrack    key.Binding
	HideTrack   key.Binding
	RenameTrack key.Binding
	DeleteTrack key.Binding
	Find        key.Binding
	Import      key.Binding
	Export      key.Binding
	Copy        key.Binding
	Paste       key.Binding
	Clear       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Edit, k.Delete, k.Undo, k.Find, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Edit, k.Delete, k.Duplicate, k.SelectAll, k.Deselect, k.Undo, k.Redo},
		{k.ZoomIn, k.ZoomOut, k.ZoomPercent, k.PanLeft, k.PanRight, k.PageLeft, k.PageRight, k.Now, k.Start},
		{k.NextTrack, k.PrevTrack, k.TrackUp, k.TrackDown, k.AddTrack, k.HideTrack, k.RenameTrack, k.DeleteTrack},
		{k.Find, k.Import, k.Export, k.Copy, k.Paste, k.Clear, k.Help, k.Quit},
	}
}

// boardEdits change the board and are ignored while a drag is running.
func (k keyMap) boardEdits() []key.Binding {
	return []key.Binding{
		k.New, k.Edit, k.Delete, k.Duplicate, k.Undo, k.Redo, k.TrackUp, k.TrackDown,
		k.AddTrack, k.HideTrack, k.RenameTrack, k.DeleteTrack, k.Import, k.Paste, k.Clear,
	}
}

var keys = keyMap{
	New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Delete:      key.NewBinding(key.WithKeys("d", "delete", "backspace"), key.WithHelp("d", "delete")),
	Duplicate:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "duplicate")),
	SelectAll:   key.NewBinding(key.WithKeys("a", "ctrl+a"), key.WithHelp("a", "select all")),
	Deselect:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
	Undo:        key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
	Redo:        key.NewBinding(key.WithKeys("U", "ctrl+y", "ctrl+r"), key.WithHelp("U", "redo")),
	ZoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	ZoomPercent: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zoom %")),
	PanLeft:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan")),
	PanRight:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan")),
	PageLeft:    key.NewBinding(key.WithKeys("H", "pgup"), key.WithHelp("H", "page left")),
	PageRight:   key.NewBinding(key.WithKeys("L", "pgdown"), key.WithHelp("L", "page right")),
	Now:         key.NewBinding(key.WithKeys("."), key.WithHelp(".", "now")),
	Start:       key.NewBinding(key.WithKeys("0", "home"), key.WithHelp("0", "start")),
	NextTrack:   key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓/j", "next track")),
	PrevTrack:   key.NewBinding(key.WithKeys("up", "k", "shift+tab"), key.WithHelp("↑/k", "prev track")),
	TrackUp:     key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move track up")),
	TrackDown:   key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move track down")),
	AddTrack:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "add track")),
	HideTrack:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "hide/show track")),
	RenameTrack: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename track")),
	DeleteTrack: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "delete track")),
	Find:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
	Import:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
	Export:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "export")),
	Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy export")),
	Paste:       key.NewBinding(key.WithKeys("p", "ctrl+v"), key.WithHelp("p", "paste import")),
	Clear:       key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear board")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
