// Package testutil provides shared test helpers for setting up stores,
// file roots, and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/repofs"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "gitfolio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFilesRoot creates a temporary files root with the uploads, downloads,
// and images subdirectories, plus a browser over it.
func TestFilesRoot(t *testing.T) (string, *repofs.FS) {
	t.Helper()
	root := t.TempDir()
	for _, sub := range []string{"uploads", "downloads", "images"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := repofs.New(root, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	return root, fs
}
