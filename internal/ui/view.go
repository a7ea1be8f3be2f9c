package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/seasonline/internal/timeline"
)

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading board..."
	}

	rows := []string{m.renderHeader(), m.renderRuler()}
	rows = append(rows, m.renderLanes()...)
	rows = append(rows, m.renderDetail())
	rows = append(rows, m.prompt.View())
	for len(rows) < m.height-1 {
		rows = append(rows, "")
	}
	rows = append(rows, m.renderStatusBar())
	view := strings.Join(rows, "\n")

	switch {
	case m.form.IsActive():
		view = overlayCenter(view, m.form.View(), m.width, m.height)
	case m.confirm != confirmNone:
		view = overlayCenter(view, m.renderConfirm(), m.width, m.height)
	case m.showHelp:
		view = overlayCenter(view, m.renderHelp(), m.width, m.height)
	}
	return view
}

func (m Model) renderHeader() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)
	now := m.editor.Clock.Now().In(m.editor.Location)

	left := bg.Foreground(ColorCyan).Bold(true).Render(" SEASONLINE ") +
		bg.Foreground(ColorBarText).Render(strings.ToUpper(string(m.editor.Params.Variant))+"  ") +
		bg.Foreground(ColorWhite).Render(now.Format("Mon Jan 02 15:04"))
	leftLen := visibleLen(left)

	var right []string
	if m.cfg.WatchFile != "" {
		right = append(right, "watching "+filepath.Base(m.cfg.WatchFile))
	}
	undo, redo := m.editor.History.Depth()
	right = append(right, fmt.Sprintf("undo %d  redo %d", max(undo-1, 0), redo))
	rightText := strings.Join(right, "  │  ") + " "

	spacer := max(m.width-leftLen-runewidth.StringWidth(rightText), 1)
	return left + bg.Render(strings.Repeat(" ", spacer)) + bg.Foreground(ColorDim).Render(rightText)
}

// relative describes an entry's position in time against now.
func relative(e timeline.Entry, now time.Time) string {
	start, end := time.UnixMilli(e.StartMs), time.UnixMilli(e.EndMs)
	switch timeline.PhaseOf(e, now.UnixMilli()) {
	case timeline.PhasePast:
		return "ended " + humanize.RelTime(end, now, "ago", "from now")
	case timeline.PhaseCurrent:
		return "ends " + humanize.RelTime(end, now, "ago", "from now")
	default:
		return "starts " + humanize.RelTime(start, now, "ago", "from now")
	}
}

// renderGesture describes the running drag: its anchor, how many entries
// follow it and the applied shift.
func (m Model) renderGesture() string {
	d := m.editor.Drag
	label := d.Mode().String() + " " + d.AnchorID()
	if n := len(d.TargetIDs()) - 1; n > 0 {
		label += fmt.Sprintf(" +%d", n)
	}
	delta := d.LastDelta()
	sign := "+"
	if delta < 0 {
		sign, delta = "-", -delta
	}
	return " " + SelectedStyle.Render(label) + DimStyle.Render(" · ") + NormalStyle.Render(sign+timeline.FormatDuration(delta))
}

func (m Model) renderDetail() string {
	if m.editor.Drag.Active() {
		return m.renderGesture()
	}
	sel := m.editor.Selection
	id, ok := sel.Primary()
	if !ok {
		if n := sel.Len(); n > 0 {
			return " " + SelectedStyle.Render(fmt.Sprintf("%d selected", n))
		}
		return DimStyle.Render(" drag to move · drag edges to resize · right-drag to select · ctrl+click to toggle")
	}
	ent, found := m.editor.Store.Get(id)
	if !found {
		return ""
	}
	loc := m.editor.Location
	now := m.editor.Clock.Now()
	parts := []string{
		SelectedStyle.Render(ent.ID),
		HeaderStyle.Render(ent.TrackID),
		NormalStyle.Render(timeline.FormatWithOffset(ent.StartMs, loc) + " → " + timeline.FormatWithOffset(ent.EndMs, loc)),
		NormalStyle.Render(timeline.FormatDuration(ent.Duration())),
		DimStyle.Render(relative(ent, now)),
	}
	line := " " + strings.Join(parts, DimStyle.Render(" · "))
	if visibleLen(line) > m.width {
		line = runewidth.Truncate(stripAnsi(line), m.width, "…")
	}
	return line
}

func (m Model) renderStatusBar() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)

	left := " " + m.help.ShortHelpView(keys.ShortHelp())

	var rightParts []string
	if m.toast != "" {
		color := ColorGreen
		if m.toastErr {
			color = ColorRed
		}
		rightParts = append(rightParts, bg.Foreground(color).Bold(true).Render(m.toast))
	}
	if n := m.editor.Selection.Len(); n > 0 {
		rightParts = append(rightParts, bg.Foreground(ColorSelect).Render(fmt.Sprintf("sel %d", n)))
	}
	rightParts = append(rightParts, bg.Foreground(ColorBarText).Render(fmt.Sprintf("zoom %s%%", formatPercent(m.editor.Viewport.ZoomPercent()))))
	if off := m.editor.Clock.Offset(); off != 0 {
		rightParts = append(rightParts, bg.Foreground(ColorDim).Render("clock "+formatOffset(off)))
	}

	sep := bg.Foreground(ColorDim).Render(" │ ")
	right := strings.Join(rightParts, sep) + bg.Render(" ")

	spacer := max(m.width-visibleLen(left)-visibleLen(right), 1)
	return left + bg.Render(strings.Repeat(" ", spacer)) + right
}

func formatPercent(p float64) string {
	if p < 10 {
		return fmt.Sprintf("%.1f", p)
	}
	return fmt.Sprintf("%.0f", p)
}

func formatOffset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	return sign + d.Round(100*time.Millisecond).String()
}

func (m Model) renderConfirm() string {
	var title, question string
	switch m.confirm {
	case confirmQuit:
		title, question = "QUIT", "Exit seasonline?"
	case confirmClear:
		title, question = "CLEAR", fmt.Sprintf("Remove all %d entries?", m.editor.Store.Len())
	case confirmDeleteTrack:
		name, _ := m.currentTrack()
		n := len(m.editor.Store.QueryTrack(name, nil))
		title, question = "DELETE TRACK", fmt.Sprintf("Delete %q and its %s?", name, plural(n, "entry", "entries"))
	}
	opts := fmt.Sprintf("  %s yes  %s no", SelectedStyle.Render("[y]"), DimStyle.Render("[n]"))
	content := strings.Join([]string{
		"",
		"  " + lipgloss.NewStyle().Foreground(ColorWhite).Bold(true).Render(question),
		"",
		opts,
		"",
	}, "\n")
	w := max(runewidth.StringWidth(question)+6, 32)
	return RenderPanel(title, content, w, ColorYellow)
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	content := "\n" + h.FullHelpView(keys.FullHelp()) + "\n"
	w := 0
	for _, line := range strings.Split(content, "\n") {
		w = max(w, visibleLen(line))
	}
	return RenderPanel("KEYS", content, min(w+2, max(m.width-2, 20)), ColorCyan)
}
