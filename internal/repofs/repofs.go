// Package repofs implements read-only, sandboxed browsing of extracted
// project trees. Every client-supplied path is resolved and prefix-checked
// against the project's storage root before any filesystem access; escapes
// are rejected, never clamped.
package repofs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

// binaryPlaceholder is returned instead of raw bytes for binary files.
const binaryPlaceholder = "[Binary File] Cannot display content."

// binaryExts lists extensions never read as text.
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".ico": true, ".pdf": true, ".zip": true, ".exe": true,
}

// FS serves file listings and contents from below a fixed root directory.
type FS struct {
	root         string // absolute path to the files directory
	maxTextBytes int64
}

// New creates an FS rooted at the given directory, which must exist.
// maxTextBytes caps how large a file ReadContent will return as text.
func New(root string, maxTextBytes int64) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("repofs: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("repofs: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repofs: root is not a directory: %s", abs)
	}
	if maxTextBytes <= 0 {
		maxTextBytes = 1 << 20
	}
	return &FS{root: abs, maxTextBytes: maxTextBytes}, nil
}

// Resolve maps a client-supplied path, relative to the project directory
// base, to an absolute path guaranteed to lie within that directory.
// base is trusted (it comes from the project record); rel is not. The empty
// rel resolves to the project directory itself. Escapes fail with
// ErrPathEscape before any existence check, missing targets with ErrNotFound.
func (f *FS) Resolve(base, rel string) (string, error) {
	projectRoot := filepath.Join(f.root, filepath.FromSlash(base))

	abs := projectRoot
	if rel != "" {
		cleaned := filepath.Clean(filepath.FromSlash(rel))
		if filepath.IsAbs(cleaned) {
			return "", apperr.ErrPathEscape
		}
		joined, err := filepath.Abs(filepath.Join(projectRoot, cleaned))
		if err != nil {
			return "", fmt.Errorf("repofs: resolve path: %w", err)
		}
		// The resolved path must stay at or below the project root.
		if joined != projectRoot && !strings.HasPrefix(joined, projectRoot+string(os.PathSeparator)) {
			return "", apperr.ErrPathEscape
		}
		abs = joined
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("repofs: stat %s: %w", rel, err)
	}
	return abs, nil
}

// ListDir returns the entries of the directory at rel below base, folders
// first, each group sorted by name.
func (f *FS) ListDir(base, rel string) ([]models.FileEntry, error) {
	abs, err := f.Resolve(base, rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("repofs: stat: %w", err)
	}
	if !info.IsDir() {
		return nil, apperr.ErrNotADirectory
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("repofs: read dir: %w", err)
	}
	entries := make([]models.FileEntry, 0, len(dirents))
	for _, d := range dirents {
		e := models.FileEntry{Name: d.Name(), Type: "file"}
		if d.IsDir() {
			e.Type = "folder"
		}
		if fi, err := d.Info(); err == nil {
			if !d.IsDir() {
				e.Size = fi.Size()
			}
			e.Time = agoLabel(fi.ModTime())
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == "folder"
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// ReadContent returns the file at rel below base as text. Files with a
// binary extension return a placeholder without touching their bytes; text
// files beyond the size cap fail with ErrTooLarge.
func (f *FS) ReadContent(base, rel string) (models.FileContent, error) {
	abs, err := f.Resolve(base, rel)
	if err != nil {
		return models.FileContent{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.FileContent{}, fmt.Errorf("repofs: stat: %w", err)
	}
	if info.IsDir() {
		return models.FileContent{}, apperr.ErrIsDirectory
	}

	if binaryExts[strings.ToLower(filepath.Ext(abs))] {
		return models.FileContent{Content: binaryPlaceholder, IsBinary: true}, nil
	}
	if info.Size() > f.maxTextBytes {
		return models.FileContent{}, apperr.ErrTooLarge
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return models.FileContent{}, fmt.Errorf("repofs: read %s: %w", rel, err)
	}
	return models.FileContent{Content: string(data), IsBinary: false}, nil
}

// Readme returns the text of a case-insensitive README.md in the project
// root, or the empty string when absent. Lookup errors are swallowed: a
// missing readme is presentation detail, not a failure.
func (f *FS) Readme(base string) string {
	abs, err := f.Resolve(base, "")
	if err != nil {
		return ""
	}
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return ""
	}
	for _, d := range dirents {
		if d.IsDir() || !strings.EqualFold(d.Name(), "README.md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(abs, d.Name()))
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// agoLabel renders a coarse "time ago" label for the file browser; entries
// carry no real commit history.
func agoLabel(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%d months ago", int(d.Hours()/(24*30)))
	}
}
