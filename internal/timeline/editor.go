package timeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Saver persists a board after every committed mutation.
type Saver interface {
	Save(State) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(State) error

func (f SaverFunc) Save(st State) error { return f(st) }

// Editor is the application context: it owns the store, selection, history,
// viewport and drag engine of one board and applies operator intents to them.
type Editor struct {
	Params    Params
	Store     *Store
	Selection *Selection
	History   *History
	Viewport  *Viewport
	Drag      *Drag
	Clock     *Clock
	Location  *time.Location

	frames FrameCoalescer
	saver  Saver
}

// NewEditor loads st and records it as the floor of the undo history.
func NewEditor(p Params, st State, saver Saver, clock *Clock) *Editor {
	if clock == nil {
		clock = NewClock()
	}
	e := &Editor{
		Params:    p,
		Store:     NewStore(),
		Selection: NewSelection(),
		History:   NewHistory(),
		Viewport:  NewViewport(p),
		Drag:      NewDrag(p),
		Clock:     clock,
		Location:  time.Local,
		saver:     saver,
	}
	e.Store.OnRemove(e.Selection.Prune)
	e.Store.Load(st)
	e.Relayout()
	e.History.Push(e.Store)
	return e
}

// Relayout recomputes the content surface from the entries and now. It waits
// while a drag is running, since moving the origin would shift the content
// coordinates under the pointer.
func (e *Editor) Relayout() {
	if e.Drag.Active() {
		return
	}
	start, end := ContentBounds(e.Store, e.Clock.NowMs(), e.Params)
	e.Viewport.SetBounds(start, end)
}

func (e *Editor) commit() error {
	e.Relayout()
	err := e.save()
	e.History.Push(e.Store)
	return err
}

func (e *Editor) save() error {
	if e.saver == nil {
		return nil
	}
	if err := e.saver.Save(e.Store.State()); err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// NewID suggests an id for a new entry: the next numeric id on the base
// board, a generated one on the milestone board.
func (e *Editor) NewID() string {
	if e.Params.Variant == VariantMilestone {
		return "ev-" + uuid.NewString()
	}
	return e.Store.NextNumericID()
}

// idle rejects store edits while a gesture holds base times for its targets.
func (e *Editor) idle() error {
	if e.Drag.Active() {
		return ErrGestureActive
	}
	return nil
}

func (e *Editor) validate(ent Entry) error {
	if ent.ID == "" || ent.TrackID == "" {
		return ErrMissingField
	}
	if ent.EndMs <= ent.StartMs {
		return &InvalidTimeRangeError{ID: ent.ID, StartMs: ent.StartMs, EndMs: ent.EndMs}
	}
	return nil
}

// Create adds a new entry.
func (e *Editor) Create(ent Entry) error {
	if err := e.idle(); err != nil {
		return err
	}
	if ent.TrackID == "" {
		ent.TrackID = e.Params.DefaultTrack
	}
	if err := e.validate(ent); err != nil {
		return err
	}
	if e.Store.Has(ent.ID) {
		return &DuplicateIDError{ID: ent.ID}
	}
	if err := e.Store.Upsert(ent); err != nil {
		return err
	}
	return e.commit()
}

// Update replaces the entry stored as prevID, possibly renaming it.
func (e *Editor) Update(prevID string, ent Entry) error {
	if err := e.idle(); err != nil {
		return err
	}
	if err := e.validate(ent); err != nil {
		return err
	}
	if err := e.Store.Replace(prevID, ent); err != nil {
		return err
	}
	if prevID != ent.ID {
		e.Selection.Rename(prevID, ent.ID)
	}
	return e.commit()
}

// DeleteSelected removes every selected entry and returns how many went.
func (e *Editor) DeleteSelected() (int, error) {
	if err := e.idle(); err != nil {
		return 0, err
	}
	ids := e.Selection.IDs()
	if len(ids) == 0 {
		if p, ok := e.Selection.Primary(); ok {
			ids = []string{p}
		}
	}
	n := 0
	for _, id := range ids {
		if e.Store.Remove(id) {
			n++
		}
	}
	e.Selection.Clear()
	if n == 0 {
		return 0, nil
	}
	return n, e.commit()
}

// Duplicate clones the primary selection into the slot right after it.
func (e *Editor) Duplicate() (Entry, error) {
	if err := e.idle(); err != nil {
		return Entry{}, err
	}
	id, ok := e.Selection.Primary()
	if !ok {
		return Entry{}, ErrNotFound
	}
	src, ok := e.Store.Get(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	clone := src.Clone()
	clone.ID = e.NewID()
	clone.StartMs = src.EndMs
	clone.EndMs = src.EndMs + src.Duration()
	if err := e.Store.Upsert(clone); err != nil {
		return Entry{}, err
	}
	e.Selection.Select(clone.ID)
	return clone, e.commit()
}

// SelectAll selects every entry on a visible track.
func (e *Editor) SelectAll() {
	var ids []string
	for _, ent := range e.Store.Entries() {
		if !e.Store.IsHidden(ent.TrackID) {
			ids = append(ids, ent.ID)
		}
	}
	e.Selection.Set(ids)
}

// Click selects id alone, or clears the selection when id is empty or gone.
func (e *Editor) Click(id string) {
	if !e.Store.Has(id) {
		e.Selection.Clear()
		return
	}
	e.Selection.Select(id)
}

// Toggle flips one id in the selection without starting a gesture.
func (e *Editor) Toggle(id string) {
	if e.Store.Has(id) {
		e.Selection.Toggle(id)
	}
}

// Marquee applies a rubber-band selection over the rendered boxes.
func (e *Editor) Marquee(a, b Point, boxes []Box, additive bool) []string {
	return e.Selection.Marquee(a, b, boxes, e.Params.MarqueeThreshold, additive)
}

// BeginGesture starts a move or resize on id at pointer coordinate coord. A
// pointer-down on an unselected entry replaces the selection with it; a
// selected entry drags the whole selection.
func (e *Editor) BeginGesture(mode GestureMode, id string, coord float64) bool {
	if !e.Store.Has(id) || e.Store.IsHidden(mustTrack(e.Store, id)) {
		return false
	}
	if !e.Selection.Has(id) {
		e.Selection.Select(id)
	}
	e.frames.Cancel()
	return e.Drag.Begin(e.Store, mode, id, e.Selection.IDs(), coord)
}

// QueueGesture records the latest pointer coordinate. It returns true when the
// caller must schedule a frame to flush it.
func (e *Editor) QueueGesture(coord float64) bool {
	if !e.Drag.Active() {
		return false
	}
	return e.frames.Queue(coord)
}

// FlushGesture applies the most recent queued coordinate, once per frame.
func (e *Editor) FlushGesture() bool {
	coord, ok := e.frames.Flush()
	if !ok || !e.Drag.Active() {
		return false
	}
	e.Drag.Update(e.Store, e.Viewport.Mapper(), coord)
	return true
}

// EndGesture commits the last applied provisional state. Queued positions
// that never reached a frame are discarded.
func (e *Editor) EndGesture() error {
	e.frames.Cancel()
	if !e.Drag.End() {
		return nil
	}
	return e.commit()
}

// Undo restores the previous snapshot.
func (e *Editor) Undo() (bool, error) {
	if err := e.idle(); err != nil {
		return false, err
	}
	if !e.History.Undo(e.Store) {
		return false, nil
	}
	return true, e.afterRestore()
}

// Redo reapplies the last undone snapshot.
func (e *Editor) Redo() (bool, error) {
	if err := e.idle(); err != nil {
		return false, err
	}
	if !e.History.Redo(e.Store) {
		return false, nil
	}
	return true, e.afterRestore()
}

func (e *Editor) afterRestore() error {
	e.Selection.Clear()
	e.Relayout()
	return e.save()
}

// Import replaces the board with entries. Time ranges and overlaps are not
// checked here; only interactive edits enforce them.
func (e *Editor) Import(entries []Entry) error {
	if err := e.idle(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		if entries[i].TrackID == "" {
			entries[i].TrackID = e.Params.DefaultTrack
		}
		if entries[i].TrackID == "" {
			return ErrMissingField
		}
		if id := entries[i].ID; id != "" {
			if seen[id] {
				return &DuplicateIDError{ID: id}
			}
			seen[id] = true
		}
	}
	// Ids are assigned against the incoming batch, not the board it replaces.
	for i := range entries {
		if entries[i].ID != "" {
			continue
		}
		if e.Params.Variant == VariantMilestone {
			entries[i].ID = "ev-" + uuid.NewString()
		} else {
			entries[i].ID = NextNumericID(entries)
		}
	}
	e.Store.Load(State{Entries: entries})
	e.Selection.Clear()
	return e.commit()
}

// Clear empties the board.
func (e *Editor) Clear() error {
	if err := e.idle(); err != nil {
		return err
	}
	e.Store.Load(State{})
	e.Selection.Clear()
	return e.commit()
}

// RenameTrack renames a track and every entry on it.
func (e *Editor) RenameTrack(from, to string) error {
	if err := e.idle(); err != nil {
		return err
	}
	if err := e.Store.RenameTrack(from, to); err != nil {
		return err
	}
	return e.commit()
}

// AddTrack declares an empty track at the end of the order. Like ordering, it
// is persisted but not part of history.
func (e *Editor) AddTrack(name string) error {
	if err := e.idle(); err != nil {
		return err
	}
	if name == "" {
		return ErrMissingField
	}
	if e.Store.HasTrack(name) {
		return ErrTrackExists
	}
	e.Store.AddTrack(name)
	return e.save()
}

// DeleteTrack removes a track with all its entries.
func (e *Editor) DeleteTrack(name string) error {
	if err := e.idle(); err != nil {
		return err
	}
	if !e.Store.HasTrack(name) {
		return ErrNotFound
	}
	e.Store.RemoveTrack(name)
	return e.commit()
}

// MoveTrack reorders a track. Ordering is persisted but not part of history.
func (e *Editor) MoveTrack(name string, to int) error {
	if err := e.idle(); err != nil {
		return err
	}
	if !e.Store.MoveTrack(name, to) {
		return nil
	}
	return e.save()
}

// ToggleTrackHidden flips a track's visibility. Hiding the track that holds
// the primary selection drops the primary.
func (e *Editor) ToggleTrackHidden(name string) error {
	if err := e.idle(); err != nil {
		return err
	}
	hide := !e.Store.IsHidden(name)
	if !e.Store.SetHidden(name, hide) {
		return nil
	}
	if p, ok := e.Selection.Primary(); hide && ok {
		if ent, found := e.Store.Get(p); found && ent.TrackID == name {
			e.Selection.DropPrimary()
		}
	}
	return e.save()
}

// VisibleTracks returns the track order minus hidden tracks.
func (e *Editor) VisibleTracks() []string {
	var out []string
	for _, t := range e.Store.TrackOrder() {
		if !e.Store.IsHidden(t) {
			out = append(out, t)
		}
	}
	return out
}

// Export returns the entries that leave the board: visible tracks only on the
// base board, everything sorted by time on the milestone board.
func (e *Editor) Export() []Entry {
	entries := e.Store.Entries()
	if e.Params.Variant == VariantMilestone {
		SortByTime(entries)
		return entries
	}
	out := entries[:0]
	for _, ent := range entries {
		if !e.Store.IsHidden(ent.TrackID) {
			out = append(out, ent)
		}
	}
	return out
}

// FocusNow centres the viewport on the current time.
func (e *Editor) FocusNow() {
	e.Viewport.CenterOn(e.Clock.NowMs())
}

// FocusStart scrolls to the start of the content: the earliest entry or now,
// whichever comes first.
func (e *Editor) FocusStart() {
	start, _ := ContentBounds(e.Store, e.Clock.NowMs(), e.Params)
	e.Viewport.RevealStart(start)
}

func mustTrack(s *Store, id string) string {
	ent, _ := s.Get(id)
	return ent.TrackID
}
