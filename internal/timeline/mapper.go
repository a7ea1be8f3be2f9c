package timeline

import "math"

// Mapper converts between wall-clock milliseconds and a one-dimensional view
// coordinate. Zoom is coordinates per MsPerUnit.
type Mapper struct {
	OriginMs  int64
	Zoom      float64
	MsPerUnit float64
}

// ToCoord maps a time to a coordinate.
func (m Mapper) ToCoord(ms int64) float64 {
	return float64(ms-m.OriginMs) / m.MsPerUnit * m.Zoom
}

// ToTime maps a coordinate back to a time, rounded to the millisecond.
func (m Mapper) ToTime(coord float64) int64 {
	return m.OriginMs + int64(math.Round(m.offsetAt(coord)))
}

// DeltaMs converts a coordinate distance into a time distance.
func (m Mapper) DeltaMs(deltaCoord float64) float64 {
	return deltaCoord / m.Zoom * m.MsPerUnit
}

func (m Mapper) offsetAt(coord float64) float64 {
	return coord / m.Zoom * m.MsPerUnit
}

// ZoomAround returns a mapper at the new zoom whose origin is shifted so the
// time under refCoord is unchanged.
func (m Mapper) ZoomAround(zoom, refCoord float64) Mapper {
	pinned := float64(m.OriginMs) + m.offsetAt(refCoord)
	next := m
	next.Zoom = zoom
	next.OriginMs = int64(math.Round(pinned - next.offsetAt(refCoord)))
	return next
}
