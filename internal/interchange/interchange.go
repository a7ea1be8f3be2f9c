// Package interchange reads and writes board documents: {"entries": [...]}
// for the base board and {"events": [...]} for the milestone board, as JSON,
// YAML or CSV.
package interchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/thinkwright/seasonline/internal/timeline"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatCSV:
		return "csv"
	default:
		return "json"
	}
}

const (
	startKey = "startDateTime"
	endKey   = "endDateTime"
)

// FormatFor picks a format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv":
		return FormatCSV
	default:
		return FormatJSON
	}
}

// Detect guesses the format of pasted text.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	if bytes.Contains(first, []byte(",")) && !bytes.Contains(first, []byte(":")) {
		return FormatCSV
	}
	return FormatYAML
}

// FormatError reports a document without the expected top-level list.
type FormatError struct {
	ListKey string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format, expected {%q: [...]}: %v", e.ListKey, e.Err)
	}
	return fmt.Sprintf("invalid format, expected {%q: [...]}", e.ListKey)
}

func (e *FormatError) Unwrap() error { return e.Err }

// layout names the document keys of one variant.
type layout struct {
	listKey    string
	itemName   string
	idKey      string
	trackKey   string
	fixedTrack string
	exportID   bool
}

func layoutFor(v timeline.Variant) layout {
	if v == timeline.VariantMilestone {
		return layout{
			listKey:    "events",
			itemName:   "event",
			idKey:      "__id",
			fixedTrack: timeline.MilestoneParams().DefaultTrack,
		}
	}
	return layout{
		listKey:  "entries",
		itemName: "entry",
		idKey:    "calendarId",
		trackKey: "eventName",
		exportID: true,
	}
}

func (l layout) reserved(key string) bool {
	return key == l.idKey || key == startKey || key == endKey || (l.trackKey != "" && key == l.trackKey)
}

// Decode parses a whole document. Any missing field or unreadable timestamp
// rejects the document. Zone-less timestamps are read in loc. Entries may come
// back without ids; time ranges and overlaps are not checked.
func Decode(data []byte, f Format, v timeline.Variant, loc *time.Location) ([]timeline.Entry, error) {
	l := layoutFor(v)

	var (
		records []map[string]any
		err     error
	)
	if f == FormatCSV {
		records, err = readCSV(data, l)
	} else {
		records, err = readDocument(data, f, l.listKey)
	}
	if err != nil {
		return nil, err
	}

	entries := make([]timeline.Entry, 0, len(records))
	for i, rec := range records {
		e, err := l.entry(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", l.itemName, i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readDocument(data []byte, f Format, listKey string) ([]map[string]any, error) {
	var doc map[string]any
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &FormatError{ListKey: listKey, Err: err}
	}

	list, ok := doc[listKey].([]any)
	if !ok {
		return nil, &FormatError{ListKey: listKey}
	}
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		rec, ok := normalize(item).(map[string]any)
		if !ok {
			return nil, &FormatError{ListKey: listKey, Err: errors.New("list items must be objects")}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l layout) entry(rec map[string]any, loc *time.Location) (timeline.Entry, error) {
	e := timeline.Entry{
		ID:      scalar(rec[l.idKey]),
		TrackID: l.fixedTrack,
	}
	if l.trackKey != "" {
		e.TrackID = scalar(rec[l.trackKey])
		if e.TrackID == "" {
			return e, fmt.Errorf("missing %s: %w", l.trackKey, timeline.ErrMissingField)
		}
	}

	var err error
	if e.StartMs, err = timestamp(e.ID, startKey, rec[startKey], loc); err != nil {
		return e, err
	}
	if e.EndMs, err = timestamp(e.ID, endKey, rec[endKey], loc); err != nil {
		return e, err
	}

	for k, v := range rec {
		if l.reserved(k) {
			continue
		}
		if e.Meta == nil {
			e.Meta = make(map[string]any)
		}
		e.Meta[k] = v
	}
	return e, nil
}

func timestamp(id, key string, v any, loc *time.Location) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing %s: %w", key, timeline.ErrMissingField)
	case time.Time:
		return t.UnixMilli(), nil
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, fmt.Errorf("missing %s: %w", key, timeline.ErrMissingField)
		}
		ms, err := timeline.ParseTimestamp(t, loc)
		if err != nil {
			return 0, &timeline.MalformedTimestampError{ID: id, Field: key, Value: t}
		}
		return ms, nil
	default:
		return 0, &timeline.MalformedTimestampError{ID: id, Field: key, Value: fmt.Sprint(v)}
	}
}

// scalar renders an id or track value, which documents may write as numbers.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// normalize turns YAML-decoded values into the shapes JSON decoding produces,
// so payloads persist the same whichever format they came from.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Encode writes entries as a document. Timestamps carry loc's offset. The
// milestone layout leaves ids out.
func Encode(entries []timeline.Entry, f Format, v timeline.Variant, loc *time.Location) ([]byte, error) {
	l := layoutFor(v)
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = l.record(e, loc)
	}

	switch f {
	case FormatCSV:
		return writeCSV(records, l)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]record{l.listKey: records}); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(map[string][]record{l.listKey: records}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

func (l layout) record(e timeline.Entry, loc *time.Location) record {
	var r record
	if l.exportID {
		r = append(r, field{l.idKey, e.ID})
	}
	if l.trackKey != "" {
		r = append(r, field{l.trackKey, e.TrackID})
	}
	r = append(r,
		field{startKey, timeline.FormatWithOffset(e.StartMs, loc)},
		field{endKey, timeline.FormatWithOffset(e.EndMs, loc)},
	)
	keys := make([]string, 0, len(e.Meta))
	for k := range e.Meta {
		if !l.reserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		r = append(r, field{k, e.Meta[k]})
	}
	return r
}

// ReadFile decodes the document at path, picking the format from its extension.
func ReadFile(path string, v timeline.Variant, loc *time.Location) ([]timeline.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, FormatFor(path), v, loc)
}

// WriteFile encodes entries to path, picking the format from its extension.
func WriteFile(path string, entries []timeline.Entry, v timeline.Variant, loc *time.Location) error {
	data, err := Encode(entries, FormatFor(path), v, loc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
