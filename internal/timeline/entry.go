// Package timeline is the interactive editing engine behind the season board:
// time/coordinate mapping, the entry store, drag constraints, selection,
// undo history and the viewport.
package timeline

import (
	"reflect"
	"sort"
)

// Entry is one time-bounded item on a track. Meta carries the opaque payload
// (titles, URLs, colors) that the engine stores but never interprets.
type Entry struct {
	ID      string
	TrackID string
	StartMs int64
	EndMs   int64
	Meta    map[string]any
}

// Overlaps reports whether the entry intersects the half-open range [start, end).
func (e Entry) Overlaps(start, end int64) bool {
	return start < e.EndMs && e.StartMs < end
}

// Duration is the entry length in milliseconds.
func (e Entry) Duration() int64 {
	return e.EndMs - e.StartMs
}

// Clone returns a copy that shares no mutable state with e.
func (e Entry) Clone() Entry {
	c := e
	if e.Meta != nil {
		c.Meta = cloneMeta(e.Meta)
	}
	return c
}

// Equal compares two entries field by field, including the payload.
func (e Entry) Equal(o Entry) bool {
	if e.ID != o.ID || e.TrackID != o.TrackID || e.StartMs != o.StartMs || e.EndMs != o.EndMs {
		return false
	}
	if len(e.Meta) == 0 && len(o.Meta) == 0 {
		return true
	}
	return reflect.DeepEqual(e.Meta, o.Meta)
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMeta(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// State is the persisted shape of a board.
type State struct {
	Entries      []Entry
	TrackOrder   []string
	HiddenTracks []string
}

// Snapshot is an immutable copy of the entry collection.
type Snapshot []Entry

// Equal is a structural comparison, insensitive to payload key order.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Phase classifies an entry relative to the current time.
type Phase int

const (
	PhasePast Phase = iota
	PhaseCurrent
	PhaseFuture
)

func (p Phase) String() string {
	switch p {
	case PhasePast:
		return "past"
	case PhaseCurrent:
		return "current"
	default:
		return "future"
	}
}

// PhaseOf places e before, around or after nowMs.
func PhaseOf(e Entry, nowMs int64) Phase {
	switch {
	case e.EndMs <= nowMs:
		return PhasePast
	case e.StartMs <= nowMs:
		return PhaseCurrent
	default:
		return PhaseFuture
	}
}

// SortByTime orders entries by start, then end, then id.
func SortByTime(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.StartMs != b.StartMs {
			return a.StartMs < b.StartMs
		}
		if a.EndMs != b.EndMs {
			return a.EndMs < b.EndMs
		}
		return a.ID < b.ID
	})
}

// UniqueTracks returns track ids in first-seen order.
func UniqueTracks(entries []Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.TrackID] {
			seen[e.TrackID] = true
			out = append(out, e.TrackID)
		}
	}
	return out
}
