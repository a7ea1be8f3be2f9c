package timeline

import (
	"sort"
	"strconv"
)

// Store is the authoritative in-memory entry collection plus track ordering
// and visibility. Committed writes keep intervals on a track disjoint.
type Store struct {
	entries  []Entry
	index    map[string]int
	order    []string
	hidden   []string
	retained map[string]bool
	onRemove []func(id string)
}

// Neighbors is the clamp envelope around a reference start time.
type Neighbors struct {
	PrevEndMs   int64
	NextStartMs int64
	HasPrev     bool
	HasNext     bool
}

func NewStore() *Store {
	return &Store{index: make(map[string]int), retained: make(map[string]bool)}
}

// OnRemove registers fn to be called with the id of every removed entry.
func (s *Store) OnRemove(fn func(id string)) {
	s.onRemove = append(s.onRemove, fn)
}

// Load replaces the whole store without overlap checks. Tracks named in
// st.TrackOrder that carry no entries are kept as retained tracks.
func (s *Store) Load(st State) {
	s.entries = make([]Entry, 0, len(st.Entries))
	for _, e := range st.Entries {
		s.entries = append(s.entries, e.Clone())
	}
	s.reindex()
	s.retained = make(map[string]bool)
	s.order = nil
	used := make(map[string]bool)
	for _, t := range st.TrackOrder {
		if t == "" || used[t] {
			continue
		}
		used[t] = true
		s.order = append(s.order, t)
		if !s.trackInUse(t) {
			s.retained[t] = true
		}
	}
	for _, t := range UniqueTracks(s.entries) {
		if !used[t] {
			used[t] = true
			s.order = append(s.order, t)
		}
	}
	s.hidden = nil
	for _, t := range st.HiddenTracks {
		if used[t] && !s.IsHidden(t) {
			s.hidden = append(s.hidden, t)
		}
	}
}

// Restore resets the entries to a snapshot. Track order is recomputed from the
// entries and every track becomes visible.
func (s *Store) Restore(snap Snapshot) {
	s.Load(State{Entries: snap})
}

// State returns a deep copy suitable for persistence.
func (s *Store) State() State {
	return State{
		Entries:      s.Entries(),
		TrackOrder:   append([]string(nil), s.order...),
		HiddenTracks: append([]string(nil), s.hidden...),
	}
}

// Snapshot returns an immutable copy of the entries.
func (s *Store) Snapshot() Snapshot {
	return Snapshot(s.Entries())
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of every entry in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) Get(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i].Clone(), true
}

func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Upsert inserts or replaces an entry, rejecting overlaps on its track.
func (s *Store) Upsert(e Entry) error {
	if e.ID == "" || e.TrackID == "" {
		return ErrMissingField
	}
	if other, ok := s.Overlapping(e.TrackID, e.StartMs, e.EndMs, map[string]bool{e.ID: true}); ok {
		return &OverlapError{TrackID: e.TrackID, ID: e.ID, ConflictID: other.ID}
	}
	if i, ok := s.index[e.ID]; ok {
		prevTrack := s.entries[i].TrackID
		s.entries[i] = e.Clone()
		s.ensureTrack(e.TrackID)
		s.dropTrackIfEmpty(prevTrack)
		return nil
	}
	s.entries = append(s.entries, e.Clone())
	s.index[e.ID] = len(s.entries) - 1
	s.ensureTrack(e.TrackID)
	return nil
}

// Replace swaps the entry stored under prevID for e, which may carry a new id.
// The replacement keeps the original position.
func (s *Store) Replace(prevID string, e Entry) error {
	i, ok := s.index[prevID]
	if !ok {
		return ErrNotFound
	}
	if e.ID == "" || e.TrackID == "" {
		return ErrMissingField
	}
	if e.ID != prevID && s.Has(e.ID) {
		return &DuplicateIDError{ID: e.ID}
	}
	if other, ok := s.Overlapping(e.TrackID, e.StartMs, e.EndMs, map[string]bool{prevID: true}); ok {
		return &OverlapError{TrackID: e.TrackID, ID: e.ID, ConflictID: other.ID}
	}
	prevTrack := s.entries[i].TrackID
	s.entries[i] = e.Clone()
	if e.ID != prevID {
		delete(s.index, prevID)
		s.index[e.ID] = i
	}
	s.ensureTrack(e.TrackID)
	s.dropTrackIfEmpty(prevTrack)
	return nil
}

// SetTimes writes provisional times without overlap checks. Gestures rely on
// the clamp envelope for legality.
func (s *Store) SetTimes(id string, startMs, endMs int64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.entries[i].StartMs = startMs
	s.entries[i].EndMs = endMs
	return true
}

// Remove deletes an entry and drops its track once no entry references it.
func (s *Store) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	track := s.entries[i].TrackID
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.reindex()
	s.dropTrackIfEmpty(track)
	for _, fn := range s.onRemove {
		fn(id)
	}
	return true
}

// QueryTrack returns the track's entries sorted by start, minus exclude.
func (s *Store) QueryTrack(trackID string, exclude map[string]bool) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.TrackID != trackID || exclude[e.ID] {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out
}

// Neighbors returns the greatest end among entries starting at or before
// refStartMs and the smallest start among entries starting after it.
func (s *Store) Neighbors(trackID string, refStartMs int64, exclude map[string]bool) Neighbors {
	var n Neighbors
	for _, e := range s.entries {
		if e.TrackID != trackID || exclude[e.ID] {
			continue
		}
		if e.StartMs <= refStartMs {
			if !n.HasPrev || e.EndMs > n.PrevEndMs {
				n.PrevEndMs = e.EndMs
				n.HasPrev = true
			}
			continue
		}
		if !n.HasNext || e.StartMs < n.NextStartMs {
			n.NextStartMs = e.StartMs
			n.HasNext = true
		}
	}
	return n
}

// Overlapping returns the first entry on trackID that intersects [start, end).
func (s *Store) Overlapping(trackID string, startMs, endMs int64, exclude map[string]bool) (Entry, bool) {
	for _, e := range s.entries {
		if e.TrackID != trackID || exclude[e.ID] {
			continue
		}
		if e.Overlaps(startMs, endMs) {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// Bounds returns the earliest start and latest end across all entries.
func (s *Store) Bounds() (startMs, endMs int64, ok bool) {
	for i, e := range s.entries {
		if i == 0 || e.StartMs < startMs {
			startMs = e.StartMs
		}
		if i == 0 || e.EndMs > endMs {
			endMs = e.EndMs
		}
	}
	return startMs, endMs, len(s.entries) > 0
}

// NextNumericID returns one past the largest numeric id in use.
func (s *Store) NextNumericID() string {
	return NextNumericID(s.entries)
}

// NextNumericID returns one past the largest numeric id among entries.
func NextNumericID(entries []Entry) string {
	var max int64
	for _, e := range entries {
		if n, err := strconv.ParseInt(e.ID, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// Tracks

// TrackOrder returns the track ids in display order.
func (s *Store) TrackOrder() []string {
	return append([]string(nil), s.order...)
}

// HiddenTracks returns the hidden track ids.
func (s *Store) HiddenTracks() []string {
	return append([]string(nil), s.hidden...)
}

func (s *Store) HasTrack(name string) bool {
	return indexOf(s.order, name) >= 0
}

func (s *Store) IsHidden(name string) bool {
	return indexOf(s.hidden, name) >= 0
}

// AddTrack declares a track that survives without entries.
func (s *Store) AddTrack(name string) bool {
	if name == "" {
		return false
	}
	s.retained[name] = true
	return s.ensureTrack(name)
}

// MoveTrack moves a track to position to within the order.
func (s *Store) MoveTrack(name string, to int) bool {
	from := indexOf(s.order, name)
	if from < 0 {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to >= len(s.order) {
		to = len(s.order) - 1
	}
	if from == to {
		return false
	}
	s.order = append(s.order[:from], s.order[from+1:]...)
	s.order = append(s.order[:to], append([]string{name}, s.order[to:]...)...)
	return true
}

// SetHidden shows or hides a known track.
func (s *Store) SetHidden(name string, hidden bool) bool {
	if !s.HasTrack(name) || s.IsHidden(name) == hidden {
		return false
	}
	if hidden {
		s.hidden = append(s.hidden, name)
	} else {
		s.hidden = removeString(s.hidden, name)
	}
	return true
}

// RenameTrack moves every entry on from onto to, keeping order and visibility.
func (s *Store) RenameTrack(from, to string) error {
	if !s.HasTrack(from) {
		return ErrNotFound
	}
	if to == "" {
		return ErrMissingField
	}
	if s.HasTrack(to) {
		return ErrTrackExists
	}
	for i := range s.entries {
		if s.entries[i].TrackID == from {
			s.entries[i].TrackID = to
		}
	}
	s.order[indexOf(s.order, from)] = to
	if i := indexOf(s.hidden, from); i >= 0 {
		s.hidden[i] = to
	}
	if s.retained[from] {
		delete(s.retained, from)
		s.retained[to] = true
	}
	return nil
}

// RemoveTrack deletes a track and all of its entries, returning their ids.
func (s *Store) RemoveTrack(name string) []string {
	var ids []string
	for _, e := range s.entries {
		if e.TrackID == name {
			ids = append(ids, e.ID)
		}
	}
	delete(s.retained, name)
	for _, id := range ids {
		s.Remove(id)
	}
	s.order = removeString(s.order, name)
	s.hidden = removeString(s.hidden, name)
	return ids
}

func (s *Store) ensureTrack(name string) bool {
	if s.HasTrack(name) {
		return false
	}
	s.order = append(s.order, name)
	return true
}

func (s *Store) dropTrackIfEmpty(name string) {
	if s.retained[name] || s.trackInUse(name) {
		return
	}
	s.order = removeString(s.order, name)
	s.hidden = removeString(s.hidden, name)
}

func (s *Store) trackInUse(name string) bool {
	for _, e := range s.entries {
		if e.TrackID == name {
			return true
		}
	}
	return false
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.ID] = i
	}
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
