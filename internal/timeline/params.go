package timeline

import "time"

// Variant selects one of the two board flavours.
type Variant string

const (
	VariantBase      Variant = "base"
	VariantMilestone Variant = "milestone"
)

// ParseVariant maps a config or flag value to a Variant, defaulting to base.
func ParseVariant(s string) Variant {
	if Variant(s) == VariantMilestone {
		return VariantMilestone
	}
	return VariantBase
}

// ZoomMode selects how wheel input changes the zoom.
type ZoomMode int

const (
	ZoomExponential ZoomMode = iota
	ZoomAdditive
)

// Params configures one engine instance. The base and milestone boards differ
// only in these values.
type Params struct {
	Variant Variant

	// MsPerUnit is the time unit zoom is expressed against (coords per unit).
	MsPerUnit float64
	// GridMs is the snapping granularity for gesture deltas.
	GridMs int64
	// MinDurationMs is the floor an interval can be resized down to.
	MinDurationMs int64

	Zoom     float64
	BaseZoom float64
	MinZoom  float64
	MaxZoom  float64
	ZoomMode ZoomMode
	WheelK   float64
	ZoomStep float64

	// PaddingMs is added on both sides of the content bounds.
	PaddingMs int64
	// EmptySpanMs is the span shown when there are no entries.
	EmptySpanMs int64
	MinUnits    float64
	FloorWidth  float64
	MaxWidth    float64

	// MarqueeThreshold is the size below which a marquee counts as a click.
	MarqueeThreshold float64

	// DefaultTrack is assigned to entries that arrive without one.
	DefaultTrack string
}

const (
	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerHour   = int64(time.Hour / time.Millisecond)
	msPerDay    = 24 * msPerHour
)

// BaseParams is the hour-scaled live-ops board: one-minute snapping and a
// five-minute floor.
func BaseParams() Params {
	return Params{
		Variant:          VariantBase,
		MsPerUnit:        float64(msPerHour),
		GridMs:           msPerMinute,
		MinDurationMs:    5 * msPerMinute,
		Zoom:             2,
		BaseZoom:         16,
		MinZoom:          0.016,
		MaxZoom:          160,
		ZoomMode:         ZoomExponential,
		WheelK:           0.0025,
		PaddingMs:        8 * msPerHour,
		EmptySpanMs:      6 * msPerHour,
		MinUnits:         8,
		MaxWidth:         2000000,
		MarqueeThreshold: 3,
	}
}

// MilestoneParams is the day-scaled milestone board: day snapping, a one-day
// floor and additive zoom steps.
func MilestoneParams() Params {
	return Params{
		Variant:          VariantMilestone,
		MsPerUnit:        float64(msPerDay),
		GridMs:           msPerDay,
		MinDurationMs:    msPerDay,
		Zoom:             4,
		BaseZoom:         4,
		MinZoom:          1,
		MaxZoom:          40,
		ZoomMode:         ZoomAdditive,
		ZoomStep:         1,
		PaddingMs:        30 * msPerDay,
		EmptySpanMs:      7 * msPerDay,
		MinUnits:         8,
		MaxWidth:         2000000,
		MarqueeThreshold: 3,
		DefaultTrack:     "milestones",
	}
}

// ParamsFor returns the defaults of a variant.
func ParamsFor(v Variant) Params {
	if v == VariantMilestone {
		return MilestoneParams()
	}
	return BaseParams()
}
