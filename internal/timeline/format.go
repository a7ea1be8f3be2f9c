package timeline

import (
	"fmt"
	"strings"
	"time"
)

// OffsetLayout is the export timestamp form: local time with a numeric offset.
const OffsetLayout = "2006-01-02T15:04:05-07:00"

var inputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) and a
// few zone-less forms, which are read in loc.
func ParseTimestamp(value string, loc *time.Location) (int64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, &MalformedTimestampError{Field: "timestamp", Value: value}
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UnixMilli(), nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, &MalformedTimestampError{Field: "timestamp", Value: value}
}

// FormatWithOffset renders ms as local time in loc with its numeric offset.
func FormatWithOffset(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(OffsetLayout)
}

// FormatInput renders ms in the zone-less form the entry form accepts.
func FormatInput(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format("2006-01-02 15:04")
}

// ZoneFor returns a fixed zone for an offset in minutes, or time.Local for nil.
func ZoneFor(offsetMinutes *int) *time.Location {
	if offsetMinutes == nil {
		return time.Local
	}
	return time.FixedZone(ZoneLabel(*offsetMinutes), *offsetMinutes*60)
}

// ZoneLabel renders an offset as UTC+7, UTC-3 or UTC+5:30.
func ZoneLabel(offsetMinutes int) string {
	sign := "+"
	if offsetMinutes < 0 {
		sign = "-"
		offsetMinutes = -offsetMinutes
	}
	h, m := offsetMinutes/60, offsetMinutes%60
	if m != 0 {
		return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
	}
	return fmt.Sprintf("UTC%s%d", sign, h)
}

// FormatDuration renders a span compactly: 45m, 3h 20m, 2d 4h, 1mo 3d.
func FormatDuration(ms int64) string {
	minutes := max(0, (ms+30000)/60000)
	mins := minutes % 60
	hoursTotal := minutes / 60
	daysTotal := hoursTotal / 24
	months := daysTotal / 30
	days := daysTotal % 30
	hours := hoursTotal % 24

	switch {
	case months > 0:
		if days > 0 {
			return fmt.Sprintf("%dmo %dd", months, days)
		}
		return fmt.Sprintf("%dmo", months)
	case daysTotal > 0:
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", daysTotal, hours)
		}
		return fmt.Sprintf("%dd", daysTotal)
	case hoursTotal > 0:
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hoursTotal, mins)
		}
		return fmt.Sprintf("%dh", hoursTotal)
	}
	return fmt.Sprintf("%dm", minutes)
}
