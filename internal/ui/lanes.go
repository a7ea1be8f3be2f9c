package ui

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/seasonline/internal/store"
	"github.com/thinkwright/seasonline/internal/timeline"
)

const (
	gutterWidth = 16
	laneHeight  = 2
	// header, ruler, detail, prompt, status
	chromeRows = 5
	lanesTop   = 2
)

// tickSteps are the ruler spacings, finest first.
var tickSteps = []time.Duration{
	time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	time.Hour,
	3 * time.Hour,
	6 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	2 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	28 * 24 * time.Hour,
}

const minTickGap = 12

func (m Model) timelineWidth() int {
	return max(m.width-gutterWidth, 1)
}

func (m Model) laneRows() int {
	return max((m.height-chromeRows)/laneHeight, 1)
}

// span returns the first and last screen column an entry covers, relative to
// the timeline area. Every entry covers at least one column.
func span(v *timeline.Viewport, e timeline.Entry) (c0, c1 int) {
	c0 = int(math.Floor(v.TimeToScreen(e.StartMs)))
	c1 = int(math.Ceil(v.TimeToScreen(e.EndMs))) - 1
	if c1 < c0 {
		c1 = c0
	}
	return c0, c1
}

// laneAt maps a screen row to a track.
func (m Model) laneAt(y int) (string, bool) {
	if y < lanesTop {
		return "", false
	}
	lane := (y-lanesTop)/laneHeight + m.laneScroll
	if lane-m.laneScroll >= m.laneRows() {
		return "", false
	}
	tracks := m.editor.Store.TrackOrder()
	if lane < 0 || lane >= len(tracks) {
		return "", false
	}
	return tracks[lane], true
}

// entryAt finds the entry under a screen cell and the gesture its position
// implies: the outer columns of a wide block resize, the rest moves.
func (m Model) entryAt(x, y int) (string, timeline.GestureMode, bool) {
	track, ok := m.laneAt(y)
	if !ok || m.editor.Store.IsHidden(track) {
		return "", timeline.GestureMove, false
	}
	col := x - gutterWidth
	if col < 0 {
		return "", timeline.GestureMove, false
	}
	entries := m.editor.Store.QueryTrack(track, nil)
	for i := len(entries) - 1; i >= 0; i-- {
		c0, c1 := span(m.editor.Viewport, entries[i])
		if col < c0 || col > c1 {
			continue
		}
		mode := timeline.GestureMove
		if c1-c0 >= 2 {
			switch col {
			case c0:
				mode = timeline.GestureResizeStart
			case c1:
				mode = timeline.GestureResizeEnd
			}
		}
		return entries[i].ID, mode, true
	}
	return "", timeline.GestureMove, false
}

// boxes returns the on-screen cell rectangles of entries in visible lanes.
func (m Model) boxes() []timeline.Box {
	var out []timeline.Box
	v := m.editor.Viewport
	tracks := m.editor.Store.TrackOrder()
	for row := 0; row < m.laneRows(); row++ {
		i := row + m.laneScroll
		if i >= len(tracks) {
			break
		}
		if m.editor.Store.IsHidden(tracks[i]) {
			continue
		}
		top := float64(lanesTop + row*laneHeight)
		for _, e := range m.editor.Store.QueryTrack(tracks[i], nil) {
			// Cells are points under the inclusive hit test: the box spans the
			// rendered columns c0..c1 and both lane rows.
			c0, c1 := span(v, e)
			out = append(out, timeline.Box{
				ID:   e.ID,
				Rect: timeline.Rect{X: float64(gutterWidth + c0), Y: top, W: float64(c1 - c0), H: laneHeight - 1},
			})
		}
	}
	return out
}

// scrollToTrack keeps the track cursor inside the visible lanes.
func (m *Model) scrollToTrack() {
	rows := m.laneRows()
	if m.trackCursor < m.laneScroll {
		m.laneScroll = m.trackCursor
	}
	if m.trackCursor >= m.laneScroll+rows {
		m.laneScroll = m.trackCursor - rows + 1
	}
	m.laneScroll = max(m.laneScroll, 0)
}

func (m Model) currentTrack() (string, bool) {
	tracks := m.editor.Store.TrackOrder()
	if m.trackCursor < 0 || m.trackCursor >= len(tracks) {
		return "", false
	}
	return tracks[m.trackCursor], true
}

func tickStep(zoom, msPerUnit float64) time.Duration {
	perMs := zoom / msPerUnit
	for _, step := range tickSteps {
		if float64(step.Milliseconds())*perMs >= minTickGap {
			return step
		}
	}
	return tickSteps[len(tickSteps)-1]
}

// ticks lists tick times in [fromMs, toMs) aligned to local midnight.
func ticks(fromMs, toMs int64, step time.Duration, loc *time.Location) []time.Time {
	t := time.UnixMilli(fromMs).In(loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	var out []time.Time
	if step >= 24*time.Hour {
		days := int(step / (24 * time.Hour))
		for d := midnight; d.UnixMilli() < toMs; d = d.AddDate(0, 0, days) {
			if d.UnixMilli() >= fromMs {
				out = append(out, d)
			}
		}
		return out
	}
	n := (t.Sub(midnight) + step - 1) / step
	for d := midnight.Add(n * step); d.UnixMilli() < toMs; d = d.Add(step) {
		out = append(out, d)
	}
	return out
}

func tickLabel(t time.Time, step time.Duration) string {
	if step >= 24*time.Hour || (t.Hour() == 0 && t.Minute() == 0) {
		return t.Format("Jan 02")
	}
	return t.Format("15:04")
}

func (m Model) renderRuler() string {
	v := m.editor.Viewport
	tw := m.timelineWidth()
	buf := []rune(strings.Repeat(" ", tw))

	step := tickStep(v.Zoom(), m.editor.Params.MsPerUnit)
	from, to := v.ScreenToTime(0), v.ScreenToTime(float64(tw))
	next := 0
	for _, t := range ticks(from, to, step, m.editor.Location) {
		col := int(math.Round(v.TimeToScreen(t.UnixMilli())))
		label := []rune("╷" + tickLabel(t, step))
		if col < next || col+len(label) > tw {
			continue
		}
		copy(buf[col:], label)
		next = col + len(label) + 1
	}

	zone := runewidth.FillRight(" "+timeline.ZoneLabel(m.zoneOffsetMinutes()), gutterWidth)
	line := RulerStyle.Render(string(buf))
	if col := m.nowColumn(); col >= 0 && col < tw {
		line = RulerStyle.Render(string(buf[:col])) + NowStyle.Render("▼") + RulerStyle.Render(string(buf[col+1:]))
	}
	return DimStyle.Render(zone) + line
}

func (m Model) zoneOffsetMinutes() int {
	_, offset := m.editor.Clock.Now().In(m.editor.Location).Zone()
	return offset / 60
}

func (m Model) nowColumn() int {
	return int(math.Floor(m.editor.Viewport.TimeToScreen(m.editor.Clock.NowMs())))
}

type cellMark int

const (
	markNone cellMark = iota
	markNow
	markMarquee
)

type cell struct {
	owner int
	mark  cellMark
}

// renderLanes draws laneRows lanes starting at the scroll position.
func (m Model) renderLanes() []string {
	tracks := m.editor.Store.TrackOrder()
	var lines []string
	for row := 0; row < m.laneRows(); row++ {
		i := row + m.laneScroll
		if i >= len(tracks) {
			for r := 0; r < laneHeight; r++ {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, m.renderLane(i, tracks[i], lanesTop+row*laneHeight)...)
	}
	return lines
}

func (m Model) renderLane(idx int, track string, top int) []string {
	tw := m.timelineWidth()
	hidden := m.editor.Store.IsHidden(track)
	entries := m.editor.Store.QueryTrack(track, nil)

	marker := "  "
	if idx == m.trackCursor {
		marker = SelectedStyle.Render("▸ ")
	}
	nameStyle := NormalStyle
	if hidden {
		nameStyle = DimStyle
	}
	name := nameStyle.Render(runewidth.FillRight(runewidth.Truncate(track, gutterWidth-3, "…"), gutterWidth-2))
	sub := "hidden"
	if !hidden {
		sub = plural(len(entries), "entry", "entries")
	}
	gutter := [laneHeight]string{
		marker + name,
		DimStyle.Render(runewidth.FillRight("  "+sub, gutterWidth)),
	}

	bg := lipgloss.NewStyle()
	if idx%2 == 1 {
		bg = bg.Background(ColorLaneAlt)
	}

	if hidden {
		return []string{
			gutter[0] + DimStyle.Inherit(bg).Render(strings.Repeat("·", tw)),
			gutter[1] + bg.Render(strings.Repeat(" ", tw)),
		}
	}

	cells := make([]cell, tw)
	for c := range cells {
		cells[c].owner = -1
	}
	for i, e := range entries {
		c0, c1 := span(m.editor.Viewport, e)
		for c := max(c0, 0); c <= min(c1, tw-1); c++ {
			cells[c].owner = i
		}
	}
	if col := m.nowColumn(); col >= 0 && col < tw && cells[col].owner < 0 {
		cells[col].mark = markNow
	}

	nowMs := m.editor.Clock.NowMs()
	lines := make([]string, laneHeight)
	for r := 0; r < laneHeight; r++ {
		rowCells := append([]cell(nil), cells...)
		if m.marquee.active {
			rect := m.marqueeRect()
			for c := range rowCells {
				p := timeline.Point{X: float64(gutterWidth + c), Y: float64(top + r)}
				if rowCells[c].owner < 0 && rect.Contains(p) {
					rowCells[c].mark = markMarquee
				}
			}
		}

		var b strings.Builder
		b.WriteString(gutter[r])
		for c := 0; c < tw; {
			end := c
			for end < tw && rowCells[end] == rowCells[c] {
				end++
			}
			w := end - c
			switch cl := rowCells[c]; {
			case cl.owner >= 0:
				e := entries[cl.owner]
				text := " " + e.ID
				if label := store.Label(e); label != "" {
					text += " " + label
				}
				if r == 1 {
					text = " " + timeline.FormatDuration(e.Duration())
				}
				text = runewidth.FillRight(runewidth.Truncate(text, w, ""), w)
				primary, _ := m.editor.Selection.Primary()
				st := blockStyle(idx, timeline.PhaseOf(e, nowMs), m.editor.Selection.Has(e.ID), primary == e.ID)
				b.WriteString(st.Render(text))
			case cl.mark == markNow:
				b.WriteString(NowStyle.Inherit(bg).Render(strings.Repeat("│", w)))
			case cl.mark == markMarquee:
				b.WriteString(MarqueeStyle.Inherit(bg).Render(strings.Repeat("░", w)))
			default:
				b.WriteString(bg.Render(strings.Repeat(" ", w)))
			}
			c = end
		}
		lines[r] = b.String()
	}
	return lines
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
