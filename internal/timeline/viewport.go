package timeline

import "math"

// Viewport holds zoom and horizontal pan over the content surface and owns
// the Mapper the rest of the engine converts through.
type Viewport struct {
	p       Params
	mapper  Mapper
	offset  float64
	visible float64
	content float64

	boundsStart int64
	boundsEnd   int64
}

func NewViewport(p Params) *Viewport {
	zoom := p.Zoom
	if zoom <= 0 {
		zoom = p.BaseZoom
	}
	v := &Viewport{p: p}
	v.mapper = Mapper{Zoom: clampZoom(zoom, p), MsPerUnit: p.MsPerUnit}
	return v
}

func (v *Viewport) Mapper() Mapper        { return v.mapper }
func (v *Viewport) Zoom() float64         { return v.mapper.Zoom }
func (v *Viewport) Offset() float64       { return v.offset }
func (v *Viewport) VisibleWidth() float64 { return v.visible }
func (v *Viewport) ContentWidth() float64 { return v.content }
func (v *Viewport) OriginMs() int64       { return v.mapper.OriginMs }

// SetVisibleWidth updates the width of the visible window.
func (v *Viewport) SetVisibleWidth(w float64) {
	v.visible = math.Max(0, w)
	v.relayout()
	v.offset = v.clampOffset(v.offset)
}

// SetBounds sets the time range the content must cover. The origin becomes
// the padded start.
func (v *Viewport) SetBounds(startMs, endMs int64) {
	v.boundsStart, v.boundsEnd = startMs, endMs
	prev := v.mapper
	v.mapper.OriginMs = startMs - v.p.PaddingMs
	// Keep the same time at the left edge while the origin moves.
	if prev.OriginMs != v.mapper.OriginMs && v.content > 0 {
		v.offset = v.mapper.ToCoord(prev.ToTime(v.offset))
	}
	v.relayout()
	v.offset = v.clampOffset(v.offset)
}

// ContentBounds computes the bounds a store's entries and now span. Empty
// stores cover EmptySpanMs from now.
func ContentBounds(s *Store, nowMs int64, p Params) (startMs, endMs int64) {
	start, end, ok := s.Bounds()
	if !ok {
		return nowMs, nowMs + p.EmptySpanMs
	}
	return min(start, nowMs), max(end, nowMs)
}

func (v *Viewport) relayout() {
	paddedEnd := v.boundsEnd + v.p.PaddingMs
	units := float64(paddedEnd-v.mapper.OriginMs) / v.p.MsPerUnit
	units = math.Max(v.p.MinUnits, units)
	minWidth := math.Max(v.p.FloorWidth, v.visible)
	width := math.Max(minWidth, units*v.mapper.Zoom)
	if v.p.MaxWidth > 0 {
		width = math.Min(v.p.MaxWidth, width)
	}
	v.content = width
}

func (v *Viewport) clampOffset(x float64) float64 {
	maxOffset := math.Max(0, v.content-v.visible)
	return math.Min(math.Max(0, x), maxOffset)
}

// Wheel applies scroll-to-zoom around anchor, a coordinate relative to the
// visible window's left edge. It reports whether the zoom changed.
func (v *Viewport) Wheel(delta, anchor float64) bool {
	var next float64
	switch v.p.ZoomMode {
	case ZoomAdditive:
		step := v.p.ZoomStep
		if step == 0 {
			step = 1
		}
		next = v.mapper.Zoom - math.Copysign(step, delta)
		if delta == 0 {
			next = v.mapper.Zoom
		}
	default:
		next = v.mapper.Zoom * math.Exp(-delta*v.p.WheelK)
	}
	return v.SetZoom(next, anchor)
}

// SetZoom changes zoom while keeping the time under anchor fixed, subject to
// offset clamping at the content edges.
func (v *Viewport) SetZoom(zoom, anchor float64) bool {
	zoom = clampZoom(zoom, v.p)
	if zoom == v.mapper.Zoom {
		return false
	}
	// The origin stays at the padded start, so the shift ZoomAround would
	// apply to it becomes a change of offset instead.
	pinned := v.mapper.ZoomAround(zoom, v.offset+anchor)
	v.mapper.Zoom = zoom
	v.relayout()
	v.offset = v.clampOffset(v.offset + v.mapper.ToCoord(pinned.OriginMs))
	return true
}

// ZoomPercent expresses zoom relative to BaseZoom.
func (v *Viewport) ZoomPercent() float64 {
	return v.mapper.Zoom / v.p.BaseZoom * 100
}

// SetZoomPercent sets zoom from a percentage in [0.1, 1000], anchored at the
// window centre.
func (v *Viewport) SetZoomPercent(pct float64) bool {
	pct = math.Min(1000, math.Max(0.1, pct))
	return v.SetZoom(v.p.BaseZoom*pct/100, v.visible/2)
}

// PanBy scrolls horizontally by dx coordinates.
func (v *Viewport) PanBy(dx float64) {
	v.offset = v.clampOffset(v.offset + dx)
}

func (v *Viewport) SetOffset(x float64) {
	v.offset = v.clampOffset(x)
}

// CenterOn scrolls so ms sits in the middle of the window.
func (v *Viewport) CenterOn(ms int64) {
	v.offset = v.clampOffset(v.mapper.ToCoord(ms) - v.visible/2)
}

// RevealStart scrolls so ms sits one time unit right of the left edge.
func (v *Viewport) RevealStart(ms int64) {
	v.offset = v.clampOffset(v.mapper.ToCoord(ms) - v.mapper.Zoom)
}

// ScreenToTime maps a window-relative coordinate to a time.
func (v *Viewport) ScreenToTime(x float64) int64 {
	return v.mapper.ToTime(v.offset + x)
}

// TimeToScreen maps a time to a window-relative coordinate.
func (v *Viewport) TimeToScreen(ms int64) float64 {
	return v.mapper.ToCoord(ms) - v.offset
}

func clampZoom(z float64, p Params) float64 {
	return math.Min(p.MaxZoom, math.Max(p.MinZoom, z))
}
