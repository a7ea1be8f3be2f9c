package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkwright/seasonline/internal/timeline"
)

type pointerKind int

const (
	pointerIdle pointerKind = iota
	pointerGesture
	pointerPan
)

// pointerState tracks a left-button press until its release.
type pointerState struct {
	kind        pointerKind
	startX      int
	startOffset float64
	moved       bool
}

// marqueeState is a right-button rubber band between two screen cells.
type marqueeState struct {
	active   bool
	a, b     timeline.Point
	additive bool
}

const (
	wheelDelta = 100
	wheelPan   = 4
)

func (m Model) marqueeRect() timeline.Rect {
	return timeline.RectFromPoints(m.marquee.a, m.marquee.b)
}

// contentCoord converts a screen column to a content coordinate, which stays
// valid while the view pans during a gesture.
func (m Model) contentCoord(x int) float64 {
	return m.editor.Viewport.Offset() + float64(x-gutterWidth)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.form.IsActive() || m.confirm != confirmNone || m.showHelp {
		return m, nil
	}
	v := m.editor.Viewport

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		dir := 1.0
		if msg.Button == tea.MouseButtonWheelUp {
			dir = -1
		}
		if msg.Shift {
			v.PanBy(dir * wheelPan)
			return m, nil
		}
		v.Wheel(dir*wheelDelta, float64(max(msg.X-gutterWidth, 0)))
		return m, nil
	case tea.MouseButtonWheelLeft:
		v.PanBy(-wheelPan)
		return m, nil
	case tea.MouseButtonWheelRight:
		v.PanBy(wheelPan)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			return m.pressLeft(msg)
		case tea.MouseButtonRight:
			p := timeline.Point{X: float64(msg.X), Y: float64(msg.Y)}
			m.marquee = marqueeState{active: true, a: p, b: p, additive: msg.Ctrl || msg.Shift}
		}
		return m, nil

	case tea.MouseActionMotion:
		if m.marquee.active {
			m.marquee.b = timeline.Point{X: float64(msg.X), Y: float64(msg.Y)}
		}
		switch m.pointer.kind {
		case pointerGesture:
			if m.editor.QueueGesture(m.contentCoord(msg.X)) {
				return m, frameCmd()
			}
		case pointerPan:
			if msg.X != m.pointer.startX {
				m.pointer.moved = true
			}
			v.SetOffset(m.pointer.startOffset - float64(msg.X-m.pointer.startX))
		}
		return m, nil

	case tea.MouseActionRelease:
		return m.release(msg)
	}
	return m, nil
}

func (m Model) pressLeft(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if track, ok := m.laneAt(msg.Y); ok && msg.X < gutterWidth {
		m.focusTrack(track)
		return m, nil
	}

	id, mode, ok := m.entryAt(msg.X, msg.Y)
	if !ok {
		m.pointer = pointerState{kind: pointerPan, startX: msg.X, startOffset: m.editor.Viewport.Offset()}
		return m, nil
	}
	if ent, found := m.editor.Store.Get(id); found {
		m.focusTrack(ent.TrackID)
	}
	if msg.Ctrl || msg.Shift {
		m.editor.Toggle(id)
		return m, nil
	}
	if m.editor.BeginGesture(mode, id, m.contentCoord(msg.X)) {
		m.pointer = pointerState{kind: pointerGesture, startX: msg.X}
	}
	return m, nil
}

func (m Model) release(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.marquee.active {
		m.marquee.b = timeline.Point{X: float64(msg.X), Y: float64(msg.Y)}
		m.editor.Marquee(m.marquee.a, m.marquee.b, m.boxes(), m.marquee.additive)
		m.marquee = marqueeState{}
	}

	p := m.pointer
	m.pointer = pointerState{}
	switch p.kind {
	case pointerGesture:
		var cmds []tea.Cmd
		if err := m.editor.EndGesture(); err != nil {
			cmds = append(cmds, m.notifyErr(err))
		}
		if r := m.pendingReload; r != nil {
			m.pendingReload = nil
			cmds = append(cmds, func() tea.Msg { return *r })
		}
		return m, tea.Batch(cmds...)
	case pointerPan:
		if !p.moved {
			m.editor.Click("")
		}
	}
	return m, nil
}
