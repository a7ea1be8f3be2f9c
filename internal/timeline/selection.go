package timeline

import "math"

// Point is a screen-space position.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned screen-space rectangle.
type Rect struct {
	X, Y, W, H float64
}

// RectFromPoints spans the rectangle between two corners in any order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

// Intersects reports whether r and o share any point. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W &&
		r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Box is the rendered bounding box of one entry.
type Box struct {
	ID   string
	Rect Rect
}

// Selection is the set of selected entry ids plus the primary id used by
// single-target actions like duplicate and edit.
type Selection struct {
	ids     []string
	primary string
}

func NewSelection() *Selection {
	return &Selection{}
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) Has(id string) bool {
	return indexOf(s.ids, id) >= 0
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Primary returns the primary id, if any.
func (s *Selection) Primary() (string, bool) {
	return s.primary, s.primary != ""
}

// Select replaces the selection with one id.
func (s *Selection) Select(id string) {
	if id == "" {
		s.Clear()
		return
	}
	s.ids = []string{id}
	s.primary = id
}

// Set replaces the selection with ids.
func (s *Selection) Set(ids []string) {
	s.ids = nil
	s.add(ids)
	s.refreshPrimary()
}

// Add extends the selection.
func (s *Selection) Add(ids ...string) {
	s.add(ids)
	s.refreshPrimary()
}

// Toggle adds or removes one id.
func (s *Selection) Toggle(id string) {
	if id == "" {
		return
	}
	if s.Has(id) {
		s.ids = removeString(s.ids, id)
	} else {
		s.ids = append(s.ids, id)
	}
	s.refreshPrimary()
}

func (s *Selection) Clear() {
	s.ids = nil
	s.primary = ""
}

// DropPrimary forgets the primary id but keeps the set.
func (s *Selection) DropPrimary() {
	s.primary = ""
}

// Prune removes an id that no longer exists in the store.
func (s *Selection) Prune(id string) {
	if !s.Has(id) && s.primary != id {
		return
	}
	s.ids = removeString(s.ids, id)
	if s.primary == id {
		s.primary = ""
	}
	if len(s.ids) == 0 {
		s.primary = ""
	}
}

// Rename follows an id change.
func (s *Selection) Rename(from, to string) {
	if i := indexOf(s.ids, from); i >= 0 {
		s.ids[i] = to
	}
	if s.primary == from {
		s.primary = to
	}
}

// Marquee applies a rubber-band selection from a to b. Boxes intersecting the
// rectangle are selected; additive keeps the existing set. A marquee smaller
// than threshold in both directions is a click: it clears the selection unless
// additive. It returns the hit ids.
func (s *Selection) Marquee(a, b Point, boxes []Box, threshold float64, additive bool) []string {
	r := RectFromPoints(a, b)
	if r.W < threshold && r.H < threshold {
		if !additive {
			s.Clear()
		}
		return nil
	}
	hits := HitTest(r, boxes)
	if additive {
		s.Add(hits...)
	} else {
		s.Set(hits)
	}
	return hits
}

// HitTest returns the ids of boxes intersecting r.
func HitTest(r Rect, boxes []Box) []string {
	var hits []string
	for _, b := range boxes {
		if r.Intersects(b.Rect) {
			hits = append(hits, b.ID)
		}
	}
	return hits
}

func (s *Selection) add(ids []string) {
	for _, id := range ids {
		if id != "" && !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
}

func (s *Selection) refreshPrimary() {
	if len(s.ids) == 1 {
		s.primary = s.ids[0]
		return
	}
	s.primary = ""
}
