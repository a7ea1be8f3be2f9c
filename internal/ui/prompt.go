package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type promptKind int

const (
	promptFind promptKind = iota
	promptImport
	promptExport
	promptZoom
	promptRename
	promptAddTrack
)

func (k promptKind) prompt() string {
	switch k {
	case promptImport:
		return "import: "
	case promptExport:
		return "export: "
	case promptZoom:
		return "zoom %: "
	case promptRename:
		return "rename: "
	case promptAddTrack:
		return "add track: "
	default:
		return "/ "
	}
}

func (k promptKind) placeholder() string {
	switch k {
	case promptImport, promptExport:
		return "path/to/board.json (.yaml .csv)"
	case promptZoom:
		return "0.1 - 1000"
	case promptRename, promptAddTrack:
		return "new track name"
	default:
		return "words, track:NAME id:TEXT phase:current dur:>2h starts:<1w"
	}
}

// PromptLine is the one-line input under the lanes used for find, file
// paths, zoom percent and track renames.
type PromptLine struct {
	input  textinput.Model
	kind   promptKind
	active bool
	width  int
	info   string
}

func NewPromptLine() PromptLine {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.PromptStyle = lipgloss.NewStyle().Foreground(ColorCyan)
	ti.TextStyle = lipgloss.NewStyle().Foreground(ColorWhite)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(ColorDim)
	return PromptLine{input: ti}
}

func (p *PromptLine) SetWidth(w int) {
	p.width = w
	p.input.Width = max(w-30, 10)
}

func (p *PromptLine) Open(kind promptKind, value string) {
	p.kind = kind
	p.active = true
	p.info = ""
	p.input.Prompt = kind.prompt()
	p.input.Placeholder = kind.placeholder()
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
}

func (p *PromptLine) Close() {
	p.active = false
	p.info = ""
	p.input.Blur()
	p.input.SetValue("")
}

func (p *PromptLine) IsActive() bool   { return p.active }
func (p *PromptLine) Kind() promptKind { return p.kind }
func (p *PromptLine) Value() string    { return p.input.Value() }

// SetInfo shows a short note after the input, like a match count.
func (p *PromptLine) SetInfo(s string) {
	p.info = s
}

func (p *PromptLine) UpdateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *PromptLine) View() string {
	if !p.active {
		return ""
	}
	line := p.input.View()
	if p.info != "" {
		line += DimStyle.Render("  " + p.info)
	}
	return line
}
