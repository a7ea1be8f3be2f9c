package timeline

import "math"

// GestureMode is the kind of pointer gesture in progress.
type GestureMode int

const (
	GestureMove GestureMode = iota
	GestureResizeStart
	GestureResizeEnd
)

func (m GestureMode) String() string {
	switch m {
	case GestureResizeStart:
		return "resize-start"
	case GestureResizeEnd:
		return "resize-end"
	default:
		return "move"
	}
}

type baseTimes struct {
	startMs int64
	endMs   int64
}

// Drag is the gesture state machine: Idle until Begin, Dragging until End.
// While dragging, Apply shifts every target by one shared delta clamped so no
// target crosses a non-target neighbor or shrinks below MinDurationMs.
type Drag struct {
	GridMs        int64
	MinDurationMs int64

	active      bool
	mode        GestureMode
	anchorID    string
	anchorCoord float64
	ids         []string
	exclude     map[string]bool
	base        map[string]baseTimes
	lastDelta   int64
}

// NewDrag returns an idle engine configured from p.
func NewDrag(p Params) *Drag {
	return &Drag{GridMs: p.GridMs, MinDurationMs: p.MinDurationMs}
}

func (d *Drag) Active() bool        { return d.active }
func (d *Drag) Mode() GestureMode   { return d.mode }
func (d *Drag) AnchorID() string    { return d.anchorID }
func (d *Drag) LastDelta() int64    { return d.lastDelta }
func (d *Drag) TargetIDs() []string { return append([]string(nil), d.ids...) }

// Begin captures base times for ids and enters the dragging state. Ids that
// are missing from the store or hold a non-positive interval are frozen for
// the gesture. Begin fails if the anchor itself cannot be captured.
func (d *Drag) Begin(s *Store, mode GestureMode, anchorID string, ids []string, coord float64) bool {
	if len(ids) == 0 {
		ids = []string{anchorID}
	}
	base := make(map[string]baseTimes, len(ids))
	exclude := make(map[string]bool, len(ids))
	var captured []string
	for _, id := range ids {
		exclude[id] = true
		e, ok := s.Get(id)
		if !ok || e.EndMs <= e.StartMs {
			continue
		}
		base[id] = baseTimes{startMs: e.StartMs, endMs: e.EndMs}
		captured = append(captured, id)
	}
	if _, ok := base[anchorID]; !ok {
		return false
	}
	d.active = true
	d.mode = mode
	d.anchorID = anchorID
	d.anchorCoord = coord
	d.ids = captured
	d.exclude = exclude
	d.base = base
	d.lastDelta = 0
	return true
}

// Update converts the pointer position into a time delta through m and applies it.
func (d *Drag) Update(s *Store, m Mapper, coord float64) int64 {
	if !d.active {
		return 0
	}
	return d.Apply(s, m.DeltaMs(coord-d.anchorCoord))
}

// Apply snaps deltaMs to the grid, clamps it to the intersection of every
// target's envelope and writes the provisional times into s. An empty
// intersection stalls the gesture at a zero delta.
func (d *Drag) Apply(s *Store, deltaMs float64) int64 {
	if !d.active {
		return 0
	}
	delta := snap(deltaMs, d.GridMs)
	lo, hi, ok := d.Envelope(s)
	switch {
	case !ok:
		delta = 0
	case delta < lo:
		delta = lo
	case delta > hi:
		delta = hi
	}
	for _, id := range d.ids {
		b := d.base[id]
		start, end := b.startMs, b.endMs
		switch d.mode {
		case GestureMove:
			start += delta
			end += delta
		case GestureResizeStart:
			start += delta
		case GestureResizeEnd:
			end += delta
		}
		s.SetTimes(id, start, end)
	}
	d.lastDelta = delta
	return delta
}

// Envelope intersects the allowed [lo, hi] delta range of every target. ok is
// false when the intersection is empty.
func (d *Drag) Envelope(s *Store) (lo, hi int64, ok bool) {
	lo, hi = math.MinInt64, math.MaxInt64
	for _, id := range d.ids {
		e, found := s.Get(id)
		if !found {
			continue
		}
		b := d.base[id]
		n := s.Neighbors(e.TrackID, b.startMs, d.exclude)
		switch d.mode {
		case GestureMove:
			if n.HasPrev {
				lo = max(lo, n.PrevEndMs-b.startMs)
			}
			if n.HasNext {
				hi = min(hi, n.NextStartMs-b.endMs)
			}
		case GestureResizeStart:
			if n.HasPrev {
				lo = max(lo, n.PrevEndMs-b.startMs)
			}
			hi = min(hi, b.endMs-d.MinDurationMs-b.startMs)
		case GestureResizeEnd:
			lo = max(lo, b.startMs+d.MinDurationMs-b.endMs)
			if n.HasNext {
				hi = min(hi, n.NextStartMs-b.endMs)
			}
		}
	}
	return lo, hi, lo <= hi
}

// End leaves the dragging state. It reports whether a gesture was active.
func (d *Drag) End() bool {
	was := d.active
	d.active = false
	d.ids = nil
	d.exclude = nil
	d.base = nil
	d.anchorID = ""
	return was
}

// snap rounds half up, so -0.5 grid steps snap to zero.
func snap(deltaMs float64, gridMs int64) int64 {
	if gridMs <= 0 {
		return int64(math.Floor(deltaMs + 0.5))
	}
	g := float64(gridMs)
	return int64(math.Floor(deltaMs/g+0.5)) * gridMs
}

// FrameCoalescer keeps only the latest pointer position between frames so at
// most one recompute runs per frame.
type FrameCoalescer struct {
	pending bool
	latest  float64
}

// Queue records coord. It returns true when a frame must be scheduled.
func (c *FrameCoalescer) Queue(coord float64) bool {
	c.latest = coord
	if c.pending {
		return false
	}
	c.pending = true
	return true
}

// Flush returns the most recent queued coordinate, if any.
func (c *FrameCoalescer) Flush() (float64, bool) {
	if !c.pending {
		return 0, false
	}
	c.pending = false
	return c.latest, true
}

// Cancel drops any queued position.
func (c *FrameCoalescer) Cancel() {
	c.pending = false
}
