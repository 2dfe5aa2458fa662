//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			kind UNINDEXED,
			id UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, kind, id, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE kind = ? AND id = ?`, kind, id)
	_, err := tx.Exec(`INSERT INTO documents_fts (kind, id, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		kind, id, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, kind, id string) {
	_, _ = tx.Exec(`DELETE FROM documents_fts WHERE kind = ? AND id = ?`, kind, id)
}

func ftsClear(conn *sql.DB) error {
	if _, err := conn.Exec(`DELETE FROM documents_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching results
// with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT kind,
		       id,
		       title,
		       snippet(documents_fts, 3, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Kind, &r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
