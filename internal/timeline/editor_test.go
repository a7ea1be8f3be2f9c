package timeline

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
)

type recordingSaver struct {
	states []State
	err    error
}

func (r *recordingSaver) Save(st State) error {
	r.states = append(r.states, st)
	return r.err
}

func fixedClock(ms int64) *Clock {
	return NewClockFunc(func() time.Time { return time.UnixMilli(ms) })
}

func newTestEditor(t *testing.T, p Params, entries ...Entry) (*Editor, *recordingSaver) {
	t.Helper()
	saver := &recordingSaver{}
	e := NewEditor(p, State{Entries: entries}, saver, fixedClock(0))
	e.Location = time.UTC
	return e, saver
}

func TestEditor_CreateValidates(t *testing.T) {
	e, saver := newTestEditor(t, BaseParams(), entry("1", "T", 0, msPerHour))

	var overlap *OverlapError
	if err := e.Create(entry("2", "T", 30*msPerMinute, 2*msPerHour)); !errors.As(err, &overlap) {
		t.Errorf("overlap: err = %v", err)
	}
	var rng *InvalidTimeRangeError
	if err := e.Create(entry("2", "T", msPerHour, msPerHour)); !errors.As(err, &rng) {
		t.Errorf("range: err = %v", err)
	}
	var dup *DuplicateIDError
	if err := e.Create(entry("1", "U", 0, msPerHour)); !errors.As(err, &dup) {
		t.Errorf("duplicate: err = %v", err)
	}
	if err := e.Create(entry("2", "", 0, msPerHour)); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing track: err = %v", err)
	}
	if len(saver.states) != 0 {
		t.Errorf("rejected creates saved %d times", len(saver.states))
	}
	if e.History.CanUndo() {
		t.Error("rejected creates should not touch history")
	}

	if err := e.Create(entry("2", "T", msPerHour, 2*msPerHour)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(saver.states) != 1 || len(saver.states[0].Entries) != 2 {
		t.Errorf("saved states = %+v", saver.states)
	}
	if !e.History.CanUndo() {
		t.Error("create should be undoable")
	}
}

func TestEditor_CreateMilestoneDefaultsTrack(t *testing.T) {
	e, _ := newTestEditor(t, MilestoneParams())
	id := e.NewID()
	if !strings.HasPrefix(id, "ev-") {
		t.Errorf("id = %q, want ev- prefix", id)
	}
	if err := e.Create(Entry{ID: id, StartMs: 0, EndMs: msPerDay}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := e.Store.Get(id)
	if got.TrackID != "milestones" {
		t.Errorf("track = %q, want milestones", got.TrackID)
	}
}

func TestEditor_SaveErrorIsWrapped(t *testing.T) {
	e, saver := newTestEditor(t, BaseParams())
	saver.err = errors.New("disk full")
	err := e.Create(entry("1", "T", 0, msPerHour))
	if err == nil || !strings.Contains(err.Error(), "save board") {
		t.Errorf("err = %v, want wrapped save error", err)
	}
	if !e.Store.Has("1") {
		t.Error("entry should stay in memory when saving fails")
	}
}

func TestEditor_UpdateRenamesSelection(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(), entry("1", "T", 0, msPerHour), entry("2", "T", msPerHour, 2*msPerHour))
	e.Selection.Select("1")

	var dup *DuplicateIDError
	if err := e.Update("1", entry("2", "T", 0, msPerHour)); !errors.As(err, &dup) {
		t.Errorf("rename onto existing id: err = %v", err)
	}
	if err := e.Update("1", entry("9", "T", 0, 30*msPerMinute)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if p, _ := e.Selection.Primary(); p != "9" {
		t.Errorf("primary = %q, want 9", p)
	}
	if err := e.Update("gone", entry("gone", "T", 5*msPerHour, 6*msPerHour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v", err)
	}
}

func TestEditor_DeleteSelectedPrunes(t *testing.T) {
	e, saver := newTestEditor(t, BaseParams(),
		entry("1", "T", 0, msPerHour),
		entry("2", "U", 0, msPerHour),
		entry("3", "U", msPerHour, 2*msPerHour),
	)
	e.Selection.Set([]string{"1", "2"})

	n, err := e.DeleteSelected()
	if err != nil || n != 2 {
		t.Fatalf("delete = %d, %v", n, err)
	}
	if e.Selection.Len() != 0 {
		t.Errorf("selection = %v", e.Selection.IDs())
	}
	if got := e.Store.TrackOrder(); !reflect.DeepEqual(got, []string{"U"}) {
		t.Errorf("tracks = %v, want [U]", got)
	}
	if len(saver.states) != 1 {
		t.Errorf("saves = %d, want 1", len(saver.states))
	}

	if n, _ := e.DeleteSelected(); n != 0 {
		t.Errorf("empty delete removed %d", n)
	}
}

func TestEditor_Duplicate(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(), entry("1", "T", 0, msPerHour))
	if _, err := e.Duplicate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("no primary: err = %v", err)
	}

	e.Selection.Select("1")
	clone, err := e.Duplicate()
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if clone.ID != "2" || clone.StartMs != msPerHour || clone.EndMs != 2*msPerHour {
		t.Errorf("clone = %+v", clone)
	}
	if p, _ := e.Selection.Primary(); p != "2" {
		t.Errorf("primary = %q, want 2", p)
	}

	e.Selection.Select("1")
	var overlap *OverlapError
	if _, err := e.Duplicate(); !errors.As(err, &overlap) {
		t.Errorf("blocked duplicate: err = %v", err)
	}
}

func TestEditor_GestureCommitsOnEnd(t *testing.T) {
	e, saver := newTestEditor(t, BaseParams(),
		entry("a", "T", 0, msPerHour),
		entry("b", "T", 2*msPerHour, 3*msPerHour),
	)
	// Default base zoom is two coordinates per hour.
	if !e.BeginGesture(GestureMove, "a", 10) {
		t.Fatal("begin failed")
	}
	if !e.QueueGesture(12) {
		t.Error("first queue should ask for a frame")
	}
	if e.QueueGesture(14) {
		t.Error("second queue in one frame should coalesce")
	}
	if !e.FlushGesture() {
		t.Fatal("flush applied nothing")
	}
	got, _ := e.Store.Get("a")
	if got.StartMs != msPerHour || got.EndMs != 2*msPerHour {
		t.Errorf("a = [%d,%d), want clamped against b", got.StartMs, got.EndMs)
	}
	if len(saver.states) != 0 {
		t.Error("provisional positions must not be saved")
	}

	e.QueueGesture(10)
	if err := e.EndGesture(); err != nil {
		t.Fatalf("end: %v", err)
	}
	got, _ = e.Store.Get("a")
	if got.StartMs != msPerHour {
		t.Errorf("unflushed position leaked into the commit: start = %d", got.StartMs)
	}
	if len(saver.states) != 1 {
		t.Errorf("saves = %d, want 1", len(saver.states))
	}

	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("undo = %v, %v", ok, err)
	}
	got, _ = e.Store.Get("a")
	if got.StartMs != 0 {
		t.Errorf("after undo start = %d, want 0", got.StartMs)
	}
}

func TestEditor_GestureWithoutMovementAddsNoHistory(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(), entry("a", "T", 0, msPerHour))
	e.BeginGesture(GestureMove, "a", 10)
	e.EndGesture()
	if e.History.CanUndo() {
		t.Error("a click should not create an undo step")
	}
}

func TestEditor_GestureDragsWholeSelection(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(),
		entry("a", "T", 0, msPerHour),
		entry("b", "U", 0, msPerHour),
	)
	e.Selection.Set([]string{"a", "b"})
	e.BeginGesture(GestureMove, "b", 0)
	e.QueueGesture(2)
	e.FlushGesture()
	e.EndGesture()
	for _, id := range []string{"a", "b"} {
		if got, _ := e.Store.Get(id); got.StartMs != msPerHour {
			t.Errorf("%s start = %d, want %d", id, got.StartMs, msPerHour)
		}
	}
}

func TestEditor_UndoClearsSelection(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(), entry("a", "T", 0, msPerHour))
	e.Create(entry("b", "T", msPerHour, 2*msPerHour))
	e.Selection.Select("b")

	e.Undo()
	if e.Selection.Len() != 0 {
		t.Errorf("selection = %v", e.Selection.IDs())
	}
	if e.Store.Has("b") {
		t.Error("undo did not remove b")
	}
	if ok, _ := e.Undo(); ok {
		t.Error("undo past the loaded state should fail")
	}
	if ok, _ := e.Redo(); !ok || !e.Store.Has("b") {
		t.Error("redo did not restore b")
	}
}

func TestEditor_ImportAsymmetry(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(), entry("old", "T", 0, msPerHour))

	err := e.Import([]Entry{entry("1", "T", 0, 10), entry("1", "U", 0, 10)})
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Errorf("duplicate import: err = %v", err)
	}
	if !e.Store.Has("old") {
		t.Error("a rejected import must leave the board untouched")
	}

	// Inverted and overlapping ranges are accepted on import.
	err = e.Import([]Entry{
		entry("1", "T", 100, 50),
		entry("2", "T", 0, 200),
		{TrackID: "T", StartMs: 300, EndMs: 400},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if e.Store.Len() != 3 || e.Store.Has("old") {
		t.Errorf("entries = %+v", e.Store.Entries())
	}
	if !e.Store.Has("3") {
		t.Error("entry without id should get the next numeric id")
	}
}

func TestEditor_HiddenTracks(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(),
		entry("a", "T", 0, msPerHour),
		entry("b", "U", 0, msPerHour),
	)
	e.Selection.Select("a")
	if err := e.ToggleTrackHidden("T"); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Selection.Primary(); ok {
		t.Error("hiding the primary's track should drop the primary")
	}
	if e.BeginGesture(GestureMove, "a", 0) {
		t.Error("entries on hidden tracks cannot be dragged")
	}

	e.SelectAll()
	if got := e.Selection.IDs(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("select all = %v, want [b]", got)
	}
	if got := e.VisibleTracks(); !reflect.DeepEqual(got, []string{"U"}) {
		t.Errorf("visible = %v", got)
	}
	if got := e.Export(); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("export = %+v", got)
	}
}

func TestEditor_MilestoneExportSorted(t *testing.T) {
	e, _ := newTestEditor(t, MilestoneParams(),
		entry("late", "milestones", 5*msPerDay, 6*msPerDay),
		entry("early", "milestones", 0, msPerDay),
	)
	got := e.Export()
	if got[0].ID != "early" || got[1].ID != "late" {
		t.Errorf("export order = %s, %s", got[0].ID, got[1].ID)
	}
}

func TestEditor_TrackEdits(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(),
		entry("a", "T", 0, msPerHour),
		entry("b", "U", 0, msPerHour),
	)
	if err := e.RenameTrack("T", "U"); !errors.Is(err, ErrTrackExists) {
		t.Errorf("rename onto existing: err = %v", err)
	}
	if err := e.RenameTrack("T", "V"); err != nil {
		t.Fatal(err)
	}
	if got, _ := e.Store.Get("a"); got.TrackID != "V" {
		t.Errorf("a track = %q", got.TrackID)
	}
	if err := e.MoveTrack("U", 0); err != nil {
		t.Fatal(err)
	}
	if got := e.Store.TrackOrder(); !reflect.DeepEqual(got, []string{"U", "V"}) {
		t.Errorf("order = %v", got)
	}
	if err := e.DeleteTrack("U"); err != nil {
		t.Fatal(err)
	}
	if e.Store.Has("b") {
		t.Error("deleting a track should delete its entries")
	}
	if err := e.DeleteTrack("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing track: err = %v", err)
	}
}

func TestEditor_RandomEditsKeepTracksDisjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e, _ := newTestEditor(t, BaseParams())
	tracks := []string{"T", "U", "V"}

	for step := 0; step < 500; step++ {
		ids := e.Store.Entries()
		switch rng.Intn(6) {
		case 0, 1:
			start := int64(rng.Intn(48)) * msPerHour
			e.Create(Entry{
				ID:      e.NewID(),
				TrackID: tracks[rng.Intn(len(tracks))],
				StartMs: start,
				EndMs:   start + int64(1+rng.Intn(5))*msPerHour,
			})
		case 2:
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))].ID
			mode := GestureMode(rng.Intn(3))
			e.BeginGesture(mode, id, 50)
			for i := 0; i < 3; i++ {
				e.QueueGesture(50 + float64(rng.Intn(200)-100))
				e.FlushGesture()
			}
			e.EndGesture()
		case 3:
			if len(ids) == 0 {
				continue
			}
			e.Selection.Select(ids[rng.Intn(len(ids))].ID)
			if rng.Intn(2) == 0 {
				e.Duplicate()
			} else {
				e.DeleteSelected()
			}
		case 4:
			e.Undo()
		case 5:
			e.Redo()
		}
		assertDisjoint(t, e.Store)
	}
}

func TestEditor_StoreEditsWaitForGesture(t *testing.T) {
	e, _ := newTestEditor(t, BaseParams(),
		entry("a", "T", 10*msPerHour, 12*msPerHour),
		entry("c", "T", 3*msPerHour, 4*msPerHour+12*msPerMinute),
		entry("d", "T", 5*msPerHour, 5*msPerHour+12*msPerMinute),
	)
	e.Selection.Set([]string{"c", "d"})
	if _, err := e.DeleteSelected(); err != nil {
		t.Fatal(err)
	}
	if err := e.Update("a", entry("a", "T", 4*msPerHour, 6*msPerHour)); err != nil {
		t.Fatal(err)
	}
	undo, redo := e.History.Depth()

	if !e.BeginGesture(GestureMove, "a", 20) {
		t.Fatal("begin failed")
	}
	_, undoErr := e.Undo()
	_, redoErr := e.Redo()
	_, deleteErr := e.DeleteSelected()
	for _, op := range []struct {
		name string
		err  error
	}{
		{"undo", undoErr},
		{"redo", redoErr},
		{"clear", e.Clear()},
		{"import", e.Import([]Entry{entry("z", "T", 0, msPerHour)})},
		{"delete", deleteErr},
		{"create", e.Create(entry("n", "U", 0, msPerHour))},
		{"delete track", e.DeleteTrack("T")},
	} {
		if !errors.Is(op.err, ErrGestureActive) {
			t.Errorf("%s during drag: err = %v, want ErrGestureActive", op.name, op.err)
		}
	}
	if e.Store.Has("c") || e.Store.Has("z") || !e.Store.Has("a") {
		t.Fatalf("store changed under the drag: %v", e.Store.Entries())
	}

	e.QueueGesture(22)
	e.FlushGesture()
	if err := e.EndGesture(); err != nil {
		t.Fatal(err)
	}
	assertDisjoint(t, e.Store)
	if got, _ := e.Store.Get("a"); got.StartMs != 5*msPerHour {
		t.Errorf("a start = %d, want %d", got.StartMs, 5*msPerHour)
	}
	if u, r := e.History.Depth(); u != undo+1 || r != redo {
		t.Errorf("history = %d/%d, want %d/%d", u, r, undo+1, redo)
	}
	if ok, err := e.Undo(); !ok || err != nil {
		t.Errorf("undo after release = %v, %v", ok, err)
	}
}

func TestEditor_RelayoutWaitsForGesture(t *testing.T) {
	now := int64(0)
	e := NewEditor(BaseParams(), State{Entries: []Entry{entry("a", "T", 0, msPerHour)}}, nil,
		NewClockFunc(func() time.Time { return time.UnixMilli(now) }))
	origin := e.Viewport.OriginMs()

	e.BeginGesture(GestureMove, "a", 20)
	now = -48 * msPerHour
	e.Relayout()
	if got := e.Viewport.OriginMs(); got != origin {
		t.Errorf("origin moved during drag: %d -> %d", origin, got)
	}
	e.EndGesture()
	e.Relayout()
	if got := e.Viewport.OriginMs(); got >= origin {
		t.Errorf("origin = %d after release, want before %d", got, origin)
	}
}
