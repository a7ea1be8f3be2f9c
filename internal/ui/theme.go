package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/seasonline/internal/timeline"
)

var (
	ColorCyan     = lipgloss.Color("#5a9ab5")
	ColorCyanDim  = lipgloss.Color("#3a6678")
	ColorAccent   = lipgloss.Color("#7fcfdf")
	ColorGreen    = lipgloss.Color("#5aaa7a")
	ColorRed      = lipgloss.Color("#d05a5a")
	ColorYellow   = lipgloss.Color("#b5a05a")
	ColorDim      = lipgloss.Color("#3a5565")
	ColorMuted    = lipgloss.Color("#1a2a35")
	ColorBg       = lipgloss.Color("#000000")
	ColorBarBg    = lipgloss.Color("#0f1e28")
	ColorBarText  = lipgloss.Color("#d0dde5")
	ColorLaneAlt  = lipgloss.Color("#0a1418")
	ColorWhite    = lipgloss.Color("#8899a5")
	ColorSelect   = lipgloss.Color("#c8d84a")
	ColorSelectFg = lipgloss.Color("#101808")

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorSelect).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	RulerStyle = lipgloss.NewStyle().
			Foreground(ColorCyanDim)

	NowStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	MarqueeStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Background(ColorBarBg).
			Padding(0, 1)
)

// trackColors cycle by track position.
var trackColors = []lipgloss.Color{
	"#3f7f9f",
	"#5a9a5a",
	"#9a7a3f",
	"#8a5a9a",
	"#3f8f8a",
	"#9a5a5a",
	"#6a7aaa",
	"#8a8a4a",
}

func trackColor(i int) lipgloss.Color {
	if i < 0 {
		i = 0
	}
	return trackColors[i%len(trackColors)]
}

// blockStyle styles an entry block by track color, phase and selection.
func blockStyle(trackIdx int, phase timeline.Phase, selected, primary bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(ColorBarText).Background(trackColor(trackIdx))
	switch phase {
	case timeline.PhasePast:
		st = st.Faint(true)
	case timeline.PhaseCurrent:
		st = st.Bold(true)
	}
	if selected {
		st = st.Foreground(ColorSelectFg).Background(ColorSelect).Faint(false)
	}
	if primary {
		st = st.Underline(true)
	}
	return st
}

// RenderPanel draws a modal box with its title inline in the top border:
//
//	┏━╸ NEW ENTRY ╺━━━━━┓
//	┃                   ┃
//	┗━━━━━━━━━━━━━━━━━━━┛
func RenderPanel(title, content string, w int, color lipgloss.Color) string {
	bc := lipgloss.NewStyle().Foreground(color)
	tc := lipgloss.NewStyle().Foreground(color).Bold(true)
	innerW := w - 2

	titleText := " " + title + " "
	fillLen := max(w-5-runewidth.StringWidth(titleText), 0)

	rows := []string{bc.Render("┏━╸") + tc.Render(titleText) + bc.Render("╺"+strings.Repeat("━", fillLen)+"┓")}
	side := bc.Render("┃")
	for _, line := range strings.Split(content, "\n") {
		visible := visibleLen(line)
		if visible > innerW {
			line = runewidth.Truncate(stripAnsi(line), innerW, "…")
			visible = runewidth.StringWidth(line)
		}
		rows = append(rows, side+line+strings.Repeat(" ", max(innerW-visible, 0))+side)
	}
	rows = append(rows, bc.Render("┗"+strings.Repeat("━", innerW)+"┛"))
	return strings.Join(rows, "\n")
}
