package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thinkwright/seasonline/internal/timeline"
)

type formField int

const (
	fieldID formField = iota
	fieldTrack
	fieldStart
	fieldEnd
	fieldCount
)

var fieldLabels = [fieldCount]string{"id", "track", "start", "end"}

// EntryForm is the create/edit modal for one entry.
type EntryForm struct {
	inputs  [fieldCount]textinput.Model
	focus   formField
	active  bool
	editing bool
	prevID  string
	meta    map[string]any
	err     string
	width   int
}

func NewEntryForm() EntryForm {
	var f EntryForm
	placeholders := [fieldCount]string{"entry id", "track name", "2006-01-02 15:04", "2006-01-02 15:04"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		ti.Prompt = fmt.Sprintf("%-6s ", fieldLabels[i]+":")
		ti.PromptStyle = lipgloss.NewStyle().Foreground(ColorCyan)
		ti.TextStyle = lipgloss.NewStyle().Foreground(ColorWhite)
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(ColorDim)
		f.inputs[i] = ti
	}
	return f
}

func (f *EntryForm) SetWidth(w int) {
	f.width = w
	for i := range f.inputs {
		f.inputs[i].Width = max(w-14, 10)
	}
}

// OpenNew shows the form prefilled with a suggested entry.
func (f *EntryForm) OpenNew(ent timeline.Entry, loc *time.Location) {
	f.open(ent, loc)
	f.editing = false
	f.prevID = ""
}

// OpenEdit shows the form for an existing entry.
func (f *EntryForm) OpenEdit(ent timeline.Entry, loc *time.Location) {
	f.open(ent, loc)
	f.editing = true
	f.prevID = ent.ID
}

func (f *EntryForm) open(ent timeline.Entry, loc *time.Location) {
	f.active = true
	f.err = ""
	f.meta = ent.Clone().Meta
	f.inputs[fieldID].SetValue(ent.ID)
	f.inputs[fieldTrack].SetValue(ent.TrackID)
	f.inputs[fieldStart].SetValue(timeline.FormatInput(ent.StartMs, loc))
	f.inputs[fieldEnd].SetValue(timeline.FormatInput(ent.EndMs, loc))
	f.setFocus(fieldTrack)
}

func (f *EntryForm) Close() {
	f.active = false
	f.err = ""
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *EntryForm) IsActive() bool  { return f.active }
func (f *EntryForm) IsEditing() bool { return f.editing }
func (f *EntryForm) PrevID() string  { return f.prevID }

func (f *EntryForm) SetError(msg string) {
	f.err = msg
}

func (f *EntryForm) setFocus(field formField) {
	f.inputs[f.focus].Blur()
	f.focus = field
	f.inputs[f.focus].Focus()
}

func (f *EntryForm) Next() {
	f.setFocus((f.focus + 1) % fieldCount)
}

func (f *EntryForm) Prev() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

// OnLastField reports whether enter should submit rather than advance.
func (f *EntryForm) OnLastField() bool {
	return f.focus == fieldCount-1
}

func (f *EntryForm) UpdateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// Entry parses the fields. Timestamps without a zone are read in loc.
func (f *EntryForm) Entry(loc *time.Location) (timeline.Entry, error) {
	ent := timeline.Entry{
		ID:      strings.TrimSpace(f.inputs[fieldID].Value()),
		TrackID: strings.TrimSpace(f.inputs[fieldTrack].Value()),
		Meta:    f.meta,
	}
	start, err := timeline.ParseTimestamp(f.inputs[fieldStart].Value(), loc)
	if err != nil {
		return timeline.Entry{}, &timeline.MalformedTimestampError{ID: ent.ID, Field: "start", Value: f.inputs[fieldStart].Value()}
	}
	end, err := timeline.ParseTimestamp(f.inputs[fieldEnd].Value(), loc)
	if err != nil {
		return timeline.Entry{}, &timeline.MalformedTimestampError{ID: ent.ID, Field: "end", Value: f.inputs[fieldEnd].Value()}
	}
	ent.StartMs, ent.EndMs = start, end
	return ent, nil
}

func (f *EntryForm) View() string {
	title := "NEW ENTRY"
	if f.editing {
		title = "EDIT " + f.prevID
	}
	var lines []string
	lines = append(lines, "")
	for i := range f.inputs {
		lines = append(lines, " "+f.inputs[i].View())
	}
	lines = append(lines, "")
	if f.err != "" {
		lines = append(lines, " "+ErrorStyle.Render(f.err))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, DimStyle.Render(" Tab: next  Enter: save  Esc: cancel"))
	return RenderPanel(title, strings.Join(lines, "\n"), f.width, ColorCyan)
}
