package interchange

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// readCSV maps a header row onto document keys. Known columns match case
// insensitively; other columns become string payload fields.
func readCSV(data []byte, l layout) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &FormatError{ListKey: l.listKey, Err: fmt.Errorf("read csv header: %w", err)}
	}
	canonical := map[string]string{
		strings.ToLower(startKey): startKey,
		strings.ToLower(endKey):   endKey,
		strings.ToLower(l.idKey):  l.idKey,
	}
	if l.trackKey != "" {
		canonical[strings.ToLower(l.trackKey)] = l.trackKey
	}
	columns := make([]string, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if known, ok := canonical[strings.ToLower(name)]; ok {
			name = known
		}
		columns[i] = name
	}

	var records []map[string]any
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if i >= len(row) || col == "" {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[col] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func writeCSV(records []record, l layout) ([]byte, error) {
	var fixed []string
	seen := make(map[string]bool)
	extra := make(map[string]bool)
	for _, r := range records {
		for _, f := range r {
			if l.reserved(f.Key) {
				if !seen[f.Key] {
					seen[f.Key] = true
					fixed = append(fixed, f.Key)
				}
				continue
			}
			extra[f.Key] = true
		}
	}
	if len(fixed) == 0 {
		fixed = l.columns()
	}
	header := append([]string(nil), fixed...)
	var rest []string
	for k := range extra {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	header = append(header, rest...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	for _, r := range records {
		values := make(map[string]any, len(r))
		for _, f := range r {
			values[f.Key] = f.Value
		}
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = cell(values[col])
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (l layout) columns() []string {
	var cols []string
	if l.exportID {
		cols = append(cols, l.idKey)
	}
	if l.trackKey != "" {
		cols = append(cols, l.trackKey)
	}
	return append(cols, startKey, endKey)
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return scalar(t)
	}
}
