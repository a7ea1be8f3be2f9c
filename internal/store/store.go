package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thinkwright/seasonline/internal/timeline"
	_ "modernc.org/sqlite"
)

// timeLayout keeps millisecond precision and parses with SQLite's date functions.
const timeLayout = "2006-01-02T15:04:05.999Z07:00"

// Store persists boards in SQLite. Each board holds one variant's entries,
// track order and hidden tracks.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "seasonline")
	}
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "seasonline")
	}
	return filepath.Join(home, ".local", "share", "seasonline")
}

func DBPath() string {
	return filepath.Join(dataDir(), "boards.db")
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=2000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == 0 {
		return s.createSchema()
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
    seq       INTEGER PRIMARY KEY,
    board     TEXT    NOT NULL,
    id        TEXT    NOT NULL,
    position  INTEGER NOT NULL,
    track     TEXT    NOT NULL,
    start_at  TEXT    NOT NULL,
    end_at    TEXT    NOT NULL,
    label     TEXT    DEFAULT '',
    meta      TEXT    DEFAULT '{}',
    UNIQUE (board, id)
);

CREATE INDEX IF NOT EXISTS idx_entries_board ON entries(board, position);
CREATE INDEX IF NOT EXISTS idx_entries_track ON entries(board, track);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    id, track, label,
    content=entries, content_rowid=seq,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, id, track, label) VALUES (new.seq, new.id, new.track, new.label);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, id, track, label) VALUES ('delete', old.seq, old.id, old.track, old.label);
END;

CREATE TABLE IF NOT EXISTS tracks (
    board    TEXT    NOT NULL,
    name     TEXT    NOT NULL,
    position INTEGER NOT NULL,
    hidden   BOOLEAN DEFAULT 0,
    PRIMARY KEY (board, name)
);

PRAGMA user_version = 1;
`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads a board. Rows with unreadable timestamps or payloads are skipped
// with a warning. An unknown board loads empty.
func (s *Store) Load(board string) (timeline.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st timeline.State
	rows, err := s.db.Query(`
		SELECT id, track, start_at, end_at, meta
		FROM entries WHERE board = ? ORDER BY position`, board)
	if err != nil {
		return st, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e          timeline.Entry
			start, end string
			meta       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TrackID, &start, &end, &meta); err != nil {
			return st, fmt.Errorf("scan entry: %w", err)
		}
		if e.StartMs, err = parseStored(e.ID, "start", start); err != nil {
			slog.Warn("skipping stored entry", "board", board, "err", err)
			continue
		}
		if e.EndMs, err = parseStored(e.ID, "end", end); err != nil {
			slog.Warn("skipping stored entry", "board", board, "err", err)
			continue
		}
		if meta.Valid && meta.String != "" && meta.String != "{}" {
			if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
				slog.Warn("skipping stored entry", "board", board, "id", e.ID, "err", err)
				continue
			}
		}
		st.Entries = append(st.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("read entries: %w", err)
	}

	tracks, err := s.db.Query(`
		SELECT name, hidden FROM tracks WHERE board = ? ORDER BY position`, board)
	if err != nil {
		return st, fmt.Errorf("query tracks: %w", err)
	}
	defer tracks.Close()
	for tracks.Next() {
		var (
			name   string
			hidden bool
		)
		if err := tracks.Scan(&name, &hidden); err != nil {
			return st, fmt.Errorf("scan track: %w", err)
		}
		st.TrackOrder = append(st.TrackOrder, name)
		if hidden {
			st.HiddenTracks = append(st.HiddenTracks, name)
		}
	}
	return st, tracks.Err()
}

// Save replaces a board with st in one transaction.
func (s *Store) Save(board string, st timeline.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE board = ?", board); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM tracks WHERE board = ?", board); err != nil {
		return fmt.Errorf("clear tracks: %w", err)
	}

	insEntry, err := tx.Prepare(`
		INSERT INTO entries (board, id, position, track, start_at, end_at, label, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer insEntry.Close()

	for i, e := range st.Entries {
		meta := "{}"
		if len(e.Meta) > 0 {
			b, err := json.Marshal(e.Meta)
			if err != nil {
				return fmt.Errorf("encode %q payload: %w", e.ID, err)
			}
			meta = string(b)
		}
		if _, err := insEntry.Exec(board, e.ID, i, e.TrackID,
			formatStored(e.StartMs), formatStored(e.EndMs), Label(e), meta); err != nil {
			return fmt.Errorf("insert %q: %w", e.ID, err)
		}
	}

	hidden := make(map[string]bool, len(st.HiddenTracks))
	for _, t := range st.HiddenTracks {
		hidden[t] = true
	}
	for i, name := range st.TrackOrder {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO tracks (board, name, position, hidden) VALUES (?, ?, ?, ?)",
			board, name, i, hidden[name],
		); err != nil {
			return fmt.Errorf("insert track %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// Clear removes one board.
func (s *Store) Clear(board string) error {
	return s.Save(board, timeline.State{})
}

// Reset drops every board. Used by --reset.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range []string{"entries", "tracks"} {
		if _, err := s.db.Exec("DELETE FROM " + t); err != nil {
			return err
		}
	}
	_, err := s.db.Exec("INSERT INTO entries_fts(entries_fts) VALUES('rebuild')")
	return err
}

// Boards lists the boards that hold any data.
func (s *Store) Boards() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT board FROM entries UNION SELECT board FROM tracks")
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sort.Strings(out)
	return out, rows.Err()
}

// Saver binds a board name so the editor can persist without knowing it.
func (s *Store) Saver(board string) timeline.SaverFunc {
	return func(st timeline.State) error {
		return s.Save(board, st)
	}
}

// Label is the searchable text of an entry: its string payload values.
func Label(e timeline.Entry) string {
	keys := make([]string, 0, len(e.Meta))
	for k := range e.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		if v, ok := e.Meta[k].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func formatStored(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(timeLayout)
}

func parseStored(id, field, value string) (int64, error) {
	ms, err := timeline.ParseTimestamp(value, time.UTC)
	if err != nil {
		return 0, &timeline.MalformedTimestampError{ID: id, Field: field, Value: value}
	}
	return ms, nil
}
