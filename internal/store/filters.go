package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type FilterField int

const (
	FilterTrack FilterField = iota
	FilterID
	FilterPhase
	FilterDuration
	FilterStarts
)

type FilterOp int

const (
	OpEquals FilterOp = iota
	OpGreaterThan
	OpLessThan
)

type Filter struct {
	Field FilterField
	Op    FilterOp
	Value string
}

type FilterSet struct {
	FreeText string
	Filters  []Filter
}

// Parse splits a find query into free text and structured filters.
//
//	"raid boss"               → FreeText: "raid boss"
//	"track:LE1 phase:current" → Filters: [{FilterTrack, OpEquals, "LE1"}, ...]
//	"raid dur:>2d"            → FreeText: "raid", Filters: [{FilterDuration, OpGreaterThan, "2d"}]
//	"starts:<1w"              → entries starting within the next week
func Parse(query string) *FilterSet {
	fs := &FilterSet{}
	var freeWords []string

	for _, tok := range tokenize(query) {
		if f, ok := parseFilter(tok); ok {
			fs.Filters = append(fs.Filters, f)
		} else {
			freeWords = append(freeWords, tok)
		}
	}

	fs.FreeText = strings.Join(freeWords, " ")
	return fs
}

// tokenize splits a query string respecting quoted phrases.
func tokenize(query string) []string {
	var tokens []string
	var current strings.Builder
	inQuote := false

	for _, r := range query {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case unicode.IsSpace(r) && !inQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func parseFilter(token string) (Filter, bool) {
	idx := strings.Index(token, ":")
	if idx < 1 || idx == len(token)-1 {
		return Filter{}, false
	}

	var f Filter
	switch strings.ToLower(token[:idx]) {
	case "track":
		f.Field = FilterTrack
	case "id":
		f.Field = FilterID
	case "phase":
		f.Field = FilterPhase
	case "dur":
		f.Field = FilterDuration
	case "starts":
		f.Field = FilterStarts
	default:
		return Filter{}, false
	}

	value := token[idx+1:]
	switch {
	case strings.HasPrefix(value, ">"):
		f.Op = OpGreaterThan
		f.Value = value[1:]
	case strings.HasPrefix(value, "<"):
		f.Op = OpLessThan
		f.Value = value[1:]
	default:
		f.Op = OpEquals
		f.Value = value
	}
	return f, true
}

// msExpr converts a stored timestamp column to Unix milliseconds in SQL.
func msExpr(col string) string {
	return fmt.Sprintf("CAST(ROUND((julianday(%s) - 2440587.5) * 86400000) AS INTEGER)", col)
}

// ToSQL builds a WHERE clause over entries (e) and optionally entries_fts.
// now anchors the phase and starts filters.
func (fs *FilterSet) ToSQL(now time.Time) (string, []any) {
	var conditions []string
	var params []any

	if fs.FreeText != "" {
		conditions = append(conditions, "entries_fts MATCH ?")
		params = append(params, ftsQuery(fs.FreeText))
	}

	for _, f := range fs.Filters {
		cond, p := filterToSQL(f, now.UnixMilli())
		if cond != "" {
			conditions = append(conditions, cond)
			params = append(params, p...)
		}
	}

	if len(conditions) == 0 {
		return "1=1", nil
	}
	return strings.Join(conditions, " AND "), params
}

func (fs *FilterSet) HasFTS() bool {
	return fs.FreeText != ""
}

func (fs *FilterSet) IsEmpty() bool {
	return fs.FreeText == "" && len(fs.Filters) == 0
}

func filterToSQL(f Filter, nowMs int64) (string, []any) {
	start, end := msExpr("e.start_at"), msExpr("e.end_at")

	switch f.Field {
	case FilterTrack:
		if strings.Contains(f.Value, "*") {
			return "e.track LIKE ?", []any{strings.ReplaceAll(f.Value, "*", "%")}
		}
		return "e.track = ?", []any{f.Value}

	case FilterID:
		return "e.id LIKE ?", []any{"%" + f.Value + "%"}

	case FilterPhase:
		switch strings.ToLower(f.Value) {
		case "past":
			return end + " <= ?", []any{nowMs}
		case "current", "live":
			return fmt.Sprintf("%s <= ? AND %s > ?", start, end), []any{nowMs, nowMs}
		case "future", "upcoming":
			return start + " > ?", []any{nowMs}
		}

	case FilterDuration:
		dur, err := parseSpan(f.Value)
		if err != nil {
			return "", nil
		}
		span := fmt.Sprintf("(%s - %s)", end, start)
		switch f.Op {
		case OpGreaterThan:
			return span + " > ?", []any{dur.Milliseconds()}
		case OpLessThan:
			return span + " < ?", []any{dur.Milliseconds()}
		default:
			return span + " = ?", []any{dur.Milliseconds()}
		}

	case FilterStarts:
		dur, err := parseSpan(f.Value)
		if err != nil {
			return "", nil
		}
		cutoff := nowMs + dur.Milliseconds()
		switch f.Op {
		case OpGreaterThan:
			// starts:>1d means starting more than a day from now
			return start + " > ?", []any{cutoff}
		default:
			// starts:<1d means starting between now and a day from now
			return fmt.Sprintf("%s >= ? AND %s <= ?", start, start), []any{nowMs, cutoff}
		}
	}

	return "", nil
}

// parseSpan parses a span like "30m", "2h", "7d", "2w".
func parseSpan(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid span: %s", s)
	}

	unit := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, err
	}

	switch unit {
	case 'm':
		return time.Duration(num) * time.Minute, nil
	case 'h':
		return time.Duration(num) * time.Hour, nil
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit: %c", unit)
	}
}

// ftsQuery turns operator input into an FTS5 query. | separates alternatives;
// bare words are prefix-matched.
func ftsQuery(input string) string {
	alternatives := strings.Split(input, "|")
	var out []string
	for _, alt := range alternatives {
		var terms []string
		for _, tok := range tokenize(alt) {
			if strings.HasPrefix(tok, `"`) {
				terms = append(terms, tok)
				continue
			}
			terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, "")+`"*`)
		}
		if len(terms) > 0 {
			out = append(out, strings.Join(terms, " "))
		}
	}
	return strings.Join(out, " OR ")
}
