package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkwright/seasonline/internal/config"
	"github.com/thinkwright/seasonline/internal/timeline"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func at(h float64) int64 {
	return base.Add(time.Duration(h * float64(time.Hour))).UnixMilli()
}

type fakeFinder struct {
	ids   []string
	err   error
	query string
}

func (f *fakeFinder) Search(board, query string, now time.Time) ([]string, error) {
	f.query = query
	return f.ids, f.err
}

// newTestModel builds a 116x30 model over the base board with now fixed at
// base. The timeline area is 100 columns wide, two columns per hour, and the
// origin sits at base-8h, so hour h is drawn at column 2*(h+8).
func newTestModel(t *testing.T, finder Finder) Model {
	t.Helper()
	clock := timeline.NewClockFunc(func() time.Time { return base })
	st := timeline.State{Entries: []timeline.Entry{
		{ID: "A", TrackID: "LE1", StartMs: at(10), EndMs: at(14)},
		{ID: "B", TrackID: "LE1", StartMs: at(20), EndMs: at(22)},
		{ID: "C", TrackID: "LE2", StartMs: at(2), EndMs: at(4)},
	}}
	ed := timeline.NewEditor(timeline.BaseParams(), st, nil, clock)
	ed.Location = time.UTC

	m := NewModel(ed, finder, "base", config.DefaultConfig())
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 116, Height: 30})
	if got := ed.Viewport.Offset(); got != 0 {
		t.Fatalf("offset = %v, want 0", got)
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(x, y int, action tea.MouseAction, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func entry(t *testing.T, m Model, id string) timeline.Entry {
	t.Helper()
	e, ok := m.editor.Store.Get(id)
	if !ok {
		t.Fatalf("entry %q missing", id)
	}
	return e
}

func TestDragMovesEntryOnFrame(t *testing.T) {
	m := newTestModel(t, nil)

	// A covers columns 36..43, screen x 52..59; x=55 is inside, away from the edges.
	m, _ = send(t, m, mouse(55, 2, tea.MouseActionPress, tea.MouseButtonLeft))
	if !m.editor.Drag.Active() || m.editor.Drag.Mode() != timeline.GestureMove {
		t.Fatalf("drag active=%v mode=%v, want move", m.editor.Drag.Active(), m.editor.Drag.Mode())
	}

	m, cmd := send(t, m, mouse(59, 2, tea.MouseActionMotion, tea.MouseButtonLeft))
	if cmd == nil {
		t.Fatal("motion during a gesture should schedule a frame")
	}
	if got := entry(t, m, "A").StartMs; got != at(10) {
		t.Fatalf("entry moved before the frame: start = %d", got)
	}

	m, _ = send(t, m, frameMsg{})
	m, _ = send(t, m, mouse(59, 2, tea.MouseActionRelease, tea.MouseButtonNone))

	a := entry(t, m, "A")
	if a.StartMs != at(12) || a.EndMs != at(16) {
		t.Errorf("A = [%d, %d), want [%d, %d)", a.StartMs, a.EndMs, at(12), at(16))
	}
	if m.editor.Drag.Active() {
		t.Error("drag still active after release")
	}
	if !m.editor.History.CanUndo() {
		t.Error("gesture was not committed to history")
	}

	m, _ = send(t, m, keyPress("u"))
	if got := entry(t, m, "A").StartMs; got != at(10) {
		t.Errorf("after undo start = %d, want %d", got, at(10))
	}
}

func TestDragCoalescesMotionIntoOneFrame(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, mouse(55, 2, tea.MouseActionPress, tea.MouseButtonLeft))
	m, first := send(t, m, mouse(56, 2, tea.MouseActionMotion, tea.MouseButtonLeft))
	m, second := send(t, m, mouse(57, 2, tea.MouseActionMotion, tea.MouseButtonLeft))
	if first == nil || second != nil {
		t.Fatalf("frames scheduled: first=%v second=%v, want only the first", first != nil, second != nil)
	}

	m, _ = send(t, m, frameMsg{})
	// The latest position (two columns, one hour) wins.
	if got := entry(t, m, "A").StartMs; got != at(11) {
		t.Errorf("start = %d, want %d", got, at(11))
	}
	send(t, m, mouse(57, 2, tea.MouseActionRelease, tea.MouseButtonNone))
}

func TestReleaseDiscardsUnflushedMotion(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, mouse(55, 2, tea.MouseActionPress, tea.MouseButtonLeft))
	m, _ = send(t, m, mouse(59, 2, tea.MouseActionMotion, tea.MouseButtonLeft))
	m, _ = send(t, m, mouse(59, 2, tea.MouseActionRelease, tea.MouseButtonNone))
	m, _ = send(t, m, frameMsg{})

	if got := entry(t, m, "A").StartMs; got != at(10) {
		t.Errorf("start = %d, want unchanged %d", got, at(10))
	}
	if m.editor.History.CanUndo() {
		t.Error("no-op gesture should not add history")
	}
}

func TestResizeEndStopsAtNeighbor(t *testing.T) {
	m := newTestModel(t, nil)

	// x=59 is A's last column.
	m, _ = send(t, m, mouse(59, 3, tea.MouseActionPress, tea.MouseButtonLeft))
	if m.editor.Drag.Mode() != timeline.GestureResizeEnd {
		t.Fatalf("mode = %v, want resize-end", m.editor.Drag.Mode())
	}
	m, _ = send(t, m, mouse(79, 3, tea.MouseActionMotion, tea.MouseButtonLeft))
	m, _ = send(t, m, frameMsg{})
	m, _ = send(t, m, mouse(79, 3, tea.MouseActionRelease, tea.MouseButtonNone))

	a := entry(t, m, "A")
	if a.StartMs != at(10) || a.EndMs != at(20) {
		t.Errorf("A = [%d, %d), want end clamped to B's start %d", a.StartMs, a.EndMs, at(20))
	}
}

func TestRightDragMarqueeSelects(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, mouse(30, 2, tea.MouseActionPress, tea.MouseButtonRight))
	m, _ = send(t, m, mouse(60, 3, tea.MouseActionMotion, tea.MouseButtonRight))
	if !m.marquee.active {
		t.Fatal("marquee should be active while dragging")
	}
	m, _ = send(t, m, mouse(70, 3, tea.MouseActionRelease, tea.MouseButtonNone))

	ids := m.editor.Selection.IDs()
	if len(ids) != 1 || ids[0] != "A" {
		t.Errorf("selection = %v, want [A]", ids)
	}
	if m.marquee.active {
		t.Error("marquee still active after release")
	}
}

func TestClickEmptySpaceClearsSelection(t *testing.T) {
	m := newTestModel(t, nil)
	m.editor.Selection.Select("A")

	m, _ = send(t, m, mouse(20, 2, tea.MouseActionPress, tea.MouseButtonLeft))
	m, _ = send(t, m, mouse(20, 2, tea.MouseActionRelease, tea.MouseButtonNone))

	if n := m.editor.Selection.Len(); n != 0 {
		t.Errorf("selection len = %d, want 0", n)
	}
}

func TestCtrlClickTogglesSelection(t *testing.T) {
	m := newTestModel(t, nil)
	m.editor.Selection.Select("B")

	msg := mouse(55, 2, tea.MouseActionPress, tea.MouseButtonLeft)
	msg.Ctrl = true
	m, _ = send(t, m, msg)

	if m.editor.Drag.Active() {
		t.Error("ctrl-click should not start a gesture")
	}
	if !m.editor.Selection.Has("A") || !m.editor.Selection.Has("B") {
		t.Errorf("selection = %v, want A and B", m.editor.Selection.IDs())
	}
}

func TestCreateEntryFromForm(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("n"))
	if !m.form.IsActive() {
		t.Fatal("n should open the entry form")
	}
	// Focus starts on the track field; enter walks to the end field and submits.
	for i := 0; i < 3; i++ {
		m, _ = send(t, m, keyPress("enter"))
	}
	if m.form.IsActive() {
		t.Fatalf("form still open: %q", m.form.err)
	}

	// The suggestion is one hour at the middle of the window: column 50, base+17h.
	got := entry(t, m, "1")
	if got.TrackID != "LE1" || got.StartMs != at(17) || got.EndMs != at(18) {
		t.Errorf("created %+v, want LE1 [%d, %d)", got, at(17), at(18))
	}
	if p, _ := m.editor.Selection.Primary(); p != "1" {
		t.Errorf("primary = %q, want the new entry", p)
	}
	if m.toast != "Saved 1" {
		t.Errorf("toast = %q", m.toast)
	}
}

func TestFormKeepsOpenOnOverlap(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("n"))
	m.form.inputs[fieldStart].SetValue("2026-03-01 11:00")
	m.form.inputs[fieldEnd].SetValue("2026-03-01 12:00")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if !m.form.IsActive() {
		t.Fatal("form closed on a rejected entry")
	}
	if m.form.err != "Entry overlaps another on the same track" {
		t.Errorf("form error = %q", m.form.err)
	}
	if m.editor.Store.Has("1") {
		t.Error("rejected entry was stored")
	}

	m.form.inputs[fieldStart].SetValue("yesterday")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.form.err != "Invalid date format" {
		t.Errorf("form error = %q", m.form.err)
	}

	m, _ = send(t, m, keyPress("esc"))
	if m.form.IsActive() {
		t.Error("esc should close the form")
	}
}

func TestEditRenamesEntry(t *testing.T) {
	m := newTestModel(t, nil)
	m.editor.Selection.Select("A")

	m, _ = send(t, m, keyPress("e"))
	if !m.form.IsEditing() {
		t.Fatal("e should open the form in edit mode")
	}
	m.form.inputs[fieldID].SetValue("A2")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if m.editor.Store.Has("A") || !m.editor.Store.Has("A2") {
		t.Error("entry was not renamed")
	}
	if p, _ := m.editor.Selection.Primary(); p != "A2" {
		t.Errorf("primary = %q, want A2", p)
	}
}

func TestFindSelectsMatches(t *testing.T) {
	finder := &fakeFinder{ids: []string{"A", "B"}}
	m := newTestModel(t, finder)

	m, _ = send(t, m, keyPress("/"))
	if !m.prompt.IsActive() || m.prompt.Kind() != promptFind {
		t.Fatal("/ should open the find prompt")
	}
	m.prompt.input.SetValue("track:LE1")
	m, _ = send(t, m, keyPress("enter"))

	if finder.query != "track:LE1" {
		t.Errorf("query = %q", finder.query)
	}
	if got := m.editor.Selection.IDs(); len(got) != 2 {
		t.Errorf("selection = %v, want [A B]", got)
	}
	if m.toast != "2 matches" {
		t.Errorf("toast = %q", m.toast)
	}
}

func TestFindErrorShowsToast(t *testing.T) {
	m := newTestModel(t, &fakeFinder{err: errors.New("boom")})

	m, _ = send(t, m, keyPress("/"))
	m.prompt.input.SetValue("x")
	m, _ = send(t, m, keyPress("enter"))

	if !m.toastErr || m.toast != "boom" {
		t.Errorf("toast = %q err=%v", m.toast, m.toastErr)
	}
}

func TestTrackKeys(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("t"))
	if !m.editor.Store.IsHidden("LE1") {
		t.Error("t should hide the current track")
	}
	m, _ = send(t, m, keyPress("J"))
	if order := m.editor.Store.TrackOrder(); order[0] != "LE2" || order[1] != "LE1" {
		t.Errorf("order = %v, want [LE2 LE1]", order)
	}
	if m.trackCursor != 1 {
		t.Errorf("cursor = %d, want to follow the moved track", m.trackCursor)
	}

	m, _ = send(t, m, keyPress("R"))
	m.prompt.input.SetValue("Raids")
	m, _ = send(t, m, keyPress("enter"))
	if got := entry(t, m, "A").TrackID; got != "Raids" {
		t.Errorf("A track = %q, want Raids", got)
	}

	m, _ = send(t, m, keyPress("T"))
	if m.confirm != confirmDeleteTrack {
		t.Fatal("T should ask before deleting a track")
	}
	m, _ = send(t, m, keyPress("y"))
	if m.editor.Store.Has("A") || m.editor.Store.Has("B") {
		t.Error("track entries survived delete")
	}
}

func TestZoomPrompt(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("z"))
	m.prompt.input.SetValue("25")
	m, _ = send(t, m, keyPress("enter"))

	if got := m.editor.Viewport.ZoomPercent(); got != 25 {
		t.Errorf("zoom percent = %v, want 25", got)
	}
}

func TestQuitAsksFirst(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("q"))
	if m.confirm != confirmQuit {
		t.Fatal("q should ask before quitting")
	}
	m, cmd := send(t, m, keyPress("n"))
	if cmd != nil || m.confirm != confirmNone {
		t.Fatal("n should cancel")
	}

	m, _ = send(t, m, keyPress("q"))
	_, cmd = send(t, m, keyPress("y"))
	if cmd == nil {
		t.Fatal("y should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("y did not return tea.Quit")
	}
}

func TestViewRendersBoard(t *testing.T) {
	m := newTestModel(t, nil)
	m.editor.Selection.Select("A")

	out := stripAnsi(m.View())
	for _, want := range []string{"SEASONLINE", "LE1", "LE2", "4h", "UTC+0"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Split(out, "\n"); len(lines) != 30 {
		t.Errorf("view has %d lines, want 30", len(lines))
	}
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestBoardEditsWaitForRelease(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, mouse(55, 2, tea.MouseActionPress, tea.MouseButtonLeft))
	m, _ = send(t, m, mouse(59, 2, tea.MouseActionMotion, tea.MouseButtonLeft))
	m, _ = send(t, m, frameMsg{})

	for _, k := range []string{"u", "d", "X", "D"} {
		m, _ = send(t, m, keyPress(k))
	}
	if m.confirm != confirmNone {
		t.Error("clear should not prompt during a drag")
	}
	reload := reloadedMsg{path: "/tmp/board.json", entries: []timeline.Entry{
		{ID: "Z", TrackID: "LE1", StartMs: at(0), EndMs: at(1)},
	}}
	m, _ = send(t, m, reload)
	if m.editor.Store.Has("Z") || m.editor.Store.Len() != 3 {
		t.Fatalf("board changed under the drag: %v", m.editor.Store.Entries())
	}
	if line := stripAnsi(m.renderDetail()); !strings.Contains(line, "move A") || !strings.Contains(line, "+2h") {
		t.Errorf("detail during drag = %q", line)
	}

	m, cmd := send(t, m, mouse(59, 2, tea.MouseActionRelease, tea.MouseButtonNone))
	if a := entry(t, m, "A"); a.StartMs != at(12) {
		t.Errorf("A start = %d, want %d", a.StartMs, at(12))
	}
	var replayed bool
	for _, msg := range runCmd(cmd) {
		if r, ok := msg.(reloadedMsg); ok {
			replayed = true
			m, _ = send(t, m, r)
		}
	}
	if !replayed {
		t.Fatal("deferred reload was not replayed on release")
	}
	if !m.editor.Store.Has("Z") || m.editor.Store.Has("A") {
		t.Errorf("reload not applied after release: %v", m.editor.Store.Entries())
	}
}

func TestMarqueeFromColumnAfterBlockMissesIt(t *testing.T) {
	m := newTestModel(t, nil)
	m.editor.Selection.Select("A")

	// A's last rendered column is x=59.
	m, _ = send(t, m, mouse(60, 2, tea.MouseActionPress, tea.MouseButtonRight))
	m, _ = send(t, m, mouse(70, 3, tea.MouseActionRelease, tea.MouseButtonNone))
	if ids := m.editor.Selection.IDs(); len(ids) != 0 {
		t.Errorf("selection = %v, want empty", ids)
	}

	m, _ = send(t, m, mouse(59, 3, tea.MouseActionPress, tea.MouseButtonRight))
	m, _ = send(t, m, mouse(70, 3, tea.MouseActionRelease, tea.MouseButtonNone))
	if ids := m.editor.Selection.IDs(); len(ids) != 1 || ids[0] != "A" {
		t.Errorf("selection = %v, want [A] from its second row", ids)
	}
}

func TestAddTrackPrompt(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = send(t, m, keyPress("N"))
	m.prompt.input.SetValue("Bench")
	m, _ = send(t, m, keyPress("enter"))
	order := m.editor.Store.TrackOrder()
	if len(order) != 3 || order[2] != "Bench" {
		t.Fatalf("order = %v, want Bench appended", order)
	}
	if m.trackCursor != 2 || m.toast != "Added track Bench" {
		t.Errorf("cursor = %d toast = %q", m.trackCursor, m.toast)
	}

	m, _ = send(t, m, keyPress("N"))
	m.prompt.input.SetValue("LE1")
	m, _ = send(t, m, keyPress("enter"))
	if !m.toastErr || m.toast != "Track name already exists" {
		t.Errorf("toast = %q err = %v", m.toast, m.toastErr)
	}
}

func TestUndoWithEmptyHistory(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = send(t, m, keyPress("u"))
	if m.toast != "Nothing to undo" {
		t.Errorf("toast = %q", m.toast)
	}
	m, _ = send(t, m, keyPress("U"))
	if m.toast != "Nothing to redo" {
		t.Errorf("toast = %q", m.toast)
	}
}

func TestExportSavesOnlyRecentFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := config.Save(config.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	m := newTestModel(t, nil)
	m.cfg.Variant = "milestone"
	m.cfg.WatchFile = "/tmp/elsewhere.json"

	path := filepath.Join(t.TempDir(), "board.json")
	next, _ := m.exportFile(path)
	if got := next.(Model).toast; got != "Exported 3 entries to board.json" {
		t.Errorf("toast = %q", got)
	}

	saved := config.Load()
	if saved.Variant != "base" || saved.WatchFile != "" {
		t.Errorf("run overrides persisted: variant=%q watch=%q", saved.Variant, saved.WatchFile)
	}
	if len(saved.RecentFiles) != 1 || saved.RecentFiles[0] != path {
		t.Errorf("recent = %v, want [%s]", saved.RecentFiles, path)
	}
}
