package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for ids that are not in the store.
	ErrNotFound = errors.New("entry not found")
	// ErrTrackExists is returned when renaming onto an existing track.
	ErrTrackExists = errors.New("track name already exists")
	// ErrMissingField is returned when an entry lacks a track or id.
	ErrMissingField = errors.New("missing required field")
	// ErrGestureActive is returned for edits attempted while a drag is running.
	ErrGestureActive = errors.New("drag in progress")
)

// OverlapError reports an interval collision within one track.
type OverlapError struct {
	TrackID    string
	ID         string
	ConflictID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("entry %q overlaps %q on track %q", e.ID, e.ConflictID, e.TrackID)
}

// InvalidTimeRangeError reports an entry whose end is not after its start.
type InvalidTimeRangeError struct {
	ID      string
	StartMs int64
	EndMs   int64
}

func (e *InvalidTimeRangeError) Error() string {
	return fmt.Sprintf("entry %q: end must be after start", e.ID)
}

// DuplicateIDError reports an id collision on create, rename or import.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("id %q already exists", e.ID)
}

// MalformedTimestampError reports a timestamp that could not be parsed.
type MalformedTimestampError struct {
	ID    string
	Field string
	Value string
}

func (e *MalformedTimestampError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("entry %q: invalid %s %q", e.ID, e.Field, e.Value)
}

// UserMessage turns an editing error into the short text shown to the operator.
func UserMessage(err error) string {
	var (
		overlap   *OverlapError
		rng       *InvalidTimeRangeError
		dup       *DuplicateIDError
		malformed *MalformedTimestampError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &overlap):
		return "Entry overlaps another on the same track"
	case errors.As(err, &rng):
		return "End must be after start"
	case errors.As(err, &dup):
		return "ID already exists"
	case errors.As(err, &malformed):
		return "Invalid date format"
	case errors.Is(err, ErrTrackExists):
		return "Track name already exists"
	case errors.Is(err, ErrNotFound):
		return "Entry no longer exists"
	case errors.Is(err, ErrMissingField):
		return "Please enter track and ID"
	case errors.Is(err, ErrGestureActive):
		return "Finish the drag first"
	default:
		return err.Error()
	}
}
