// Package ingest turns uploaded zip archives into registered, browsable
// projects: validate, extract into a project-scoped directory, retain the
// original archive, and sniff the dominant language.
package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

// Limits bounds how much an archive may extract. Exceeding either limit
// rejects the upload as invalid rather than truncating it.
type Limits struct {
	MaxArchiveEntries int
	MaxExtractedBytes int64
}

// Ingestor extracts uploaded archives below uploadsDir and retains the
// originals below downloadsDir.
type Ingestor struct {
	uploadsDir   string
	downloadsDir string
	limits       Limits
}

// New creates an Ingestor, creating both directories as needed.
func New(uploadsDir, downloadsDir string, limits Limits) (*Ingestor, error) {
	for _, dir := range []string{uploadsDir, downloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ingest: mkdir %s: %w", dir, err)
		}
	}
	if limits.MaxArchiveEntries <= 0 {
		limits.MaxArchiveEntries = 10000
	}
	if limits.MaxExtractedBytes <= 0 {
		limits.MaxExtractedBytes = 200 << 20
	}
	return &Ingestor{uploadsDir: uploadsDir, downloadsDir: downloadsDir, limits: limits}, nil
}

// Ingest builds a project record from an upload. With a nil archive it
// registers a static entry (no browsable tree, no download). With an
// archive it extracts fail-closed: a corrupt archive, an over-limit
// archive, or any entry whose path would escape the project directory
// aborts the whole ingestion with nothing left on disk.
func (ing *Ingestor) Ingest(name, description string, archive []byte) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, fmt.Errorf("ingest: name is required: %w", apperr.ErrValidation)
	}

	p := models.Project{
		ID:            models.NewTimeID(),
		Name:          name,
		Description:   description,
		Language:      "Unknown",
		LanguageColor: fallbackColor,
		UpdatedAt:     "Just now",
	}
	if archive == nil {
		return p, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return models.Project{}, fmt.Errorf("ingest: open archive: %w", apperr.ErrInvalidArchive)
	}
	if len(zr.File) > ing.limits.MaxArchiveEntries {
		return models.Project{}, fmt.Errorf("ingest: archive has %d entries (limit %d): %w",
			len(zr.File), ing.limits.MaxArchiveEntries, apperr.ErrInvalidArchive)
	}

	dirName, err := ing.uniqueDirName(slugify(name) + "-" + p.ID)
	if err != nil {
		return models.Project{}, err
	}
	dest := filepath.Join(ing.uploadsDir, dirName)

	if err := ing.extractAll(zr, dest); err != nil {
		_ = os.RemoveAll(dest)
		return models.Project{}, err
	}

	zipName := dirName + ".zip"
	if err := os.WriteFile(filepath.Join(ing.downloadsDir, zipName), archive, 0o644); err != nil {
		_ = os.RemoveAll(dest)
		return models.Project{}, fmt.Errorf("ingest: retain archive: %w", err)
	}

	lang, err := DetectLanguage(dest)
	if err != nil {
		_ = os.RemoveAll(dest)
		_ = os.Remove(filepath.Join(ing.downloadsDir, zipName))
		return models.Project{}, fmt.Errorf("ingest: detect language: %w", err)
	}

	p.Language = lang
	p.LanguageColor = LanguageColor(lang)
	p.Path = "/uploads/" + dirName
	p.DownloadURL = "/downloads/" + zipName
	return p, nil
}

// Discard removes the on-disk artifacts of a project (extracted tree and
// retained archive). Used when persisting the record fails and when a
// project is deleted. Safe to call for static entries.
func (ing *Ingestor) Discard(p models.Project) error {
	var firstErr error
	if dir, ok := strings.CutPrefix(p.Path, "/uploads/"); ok && dir != "" {
		if err := os.RemoveAll(filepath.Join(ing.uploadsDir, dir)); err != nil {
			firstErr = err
		}
	}
	if name, ok := strings.CutPrefix(p.DownloadURL, "/downloads/"); ok && name != "" {
		if err := os.Remove(filepath.Join(ing.downloadsDir, name)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// extractAll writes every archive entry below dest, rejecting the whole
// archive on the first entry whose normalized path escapes it (zip-slip).
func (ing *Ingestor) extractAll(zr *zip.Reader, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("ingest: mkdir dest: %w", err)
	}
	var total int64
	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("ingest: mkdir entry: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("ingest: mkdir entry parent: %w", err)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("ingest: open entry %s: %w", f.Name, apperr.ErrInvalidArchive)
		}
		n, err := writeEntry(target, rc, ing.limits.MaxExtractedBytes-total)
		rc.Close()
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

// entryPath resolves an archive entry name below dest, failing on absolute
// paths or any ".." traversal that would leave dest. Textually stripping
// ".." is not enough; the resolved path is prefix-checked.
func entryPath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("ingest: entry %q is absolute: %w", name, apperr.ErrPathEscape)
	}
	target := filepath.Join(dest, cleaned)
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", fmt.Errorf("ingest: entry %q escapes extraction dir: %w", name, apperr.ErrPathEscape)
	}
	return target, nil
}

// writeEntry copies one entry to disk, enforcing the remaining extraction
// budget. Returns the number of bytes written.
func writeEntry(target string, r io.Reader, budget int64) (int64, error) {
	if budget <= 0 {
		return 0, fmt.Errorf("ingest: extraction size limit exceeded: %w", apperr.ErrInvalidArchive)
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("ingest: create %s: %w", target, err)
	}
	defer out.Close()

	// Copy one byte past the budget so overruns are detected.
	n, err := io.Copy(out, io.LimitReader(r, budget+1))
	if err != nil {
		return n, fmt.Errorf("ingest: write %s: %w", target, err)
	}
	if n > budget {
		return n, fmt.Errorf("ingest: extraction size limit exceeded: %w", apperr.ErrInvalidArchive)
	}
	return n, nil
}

// uniqueDirName returns base, or base-2, base-3, ... until a free name is
// found, so a collision can never overwrite another project's files.
func (ing *Ingestor) uniqueDirName(base string) (string, error) {
	name := base
	for i := 2; ; i++ {
		_, err := os.Stat(filepath.Join(ing.uploadsDir, name))
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("ingest: stat %s: %w", name, err)
		}
		name = fmt.Sprintf("%s-%d", base, i)
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a project name and collapses runs of other characters
// into single dashes.
func slugify(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "project"
	}
	return s
}
