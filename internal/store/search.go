package store

import (
	"fmt"
	"time"
)

// Search runs a find query against a saved board and returns the matching
// entry ids, best match first for free text, board order otherwise.
func (s *Store) Search(board, query string, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs := Parse(query)
	if fs.IsEmpty() {
		return nil, nil
	}
	where, params := fs.ToSQL(now)

	var sqlStr string
	if fs.HasFTS() {
		sqlStr = fmt.Sprintf(`
			SELECT e.id FROM entries e
			JOIN entries_fts ON entries_fts.rowid = e.seq
			WHERE e.board = ? AND %s
			ORDER BY rank, e.position`, where)
	} else {
		sqlStr = fmt.Sprintf(`
			SELECT e.id FROM entries e
			WHERE e.board = ? AND %s
			ORDER BY e.position`, where)
	}

	rows, err := s.db.Query(sqlStr, append([]any{board}, params...)...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
