package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document kinds.
const (
	KindProject = "project"
	KindArticle = "article"
)

// DocRow represents a row in the documents table.
type DocRow struct {
	Kind      string
	ID        string
	Title     string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertDocument inserts or replaces a document and its FTS entry within a
// transaction.
func (db *DB) UpsertDocument(d DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)

	// Upsert documents table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO documents (kind, id, title, body, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			title      = excluded.title,
			body       = excluded.body,
			tags       = excluded.tags,
			updated_at = excluded.updated_at
	`, d.Kind, d.ID, d.Title, body, string(tagsJSON), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Kind, d.ID, d.Title, body, d.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(kind, id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, kind, id)
	_, _ = tx.Exec(`DELETE FROM documents WHERE kind = ? AND id = ?`, kind, id)

	return tx.Commit()
}
