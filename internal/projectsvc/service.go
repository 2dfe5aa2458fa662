// Package projectsvc coordinates the project store, the archive ingestor,
// the sandboxed file browser, and the search index.
package projectsvc

import (
	"context"
	"log/slog"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/checksum"
	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/ingest"
	"github.com/starford/gitfolio/internal/models"
	"github.com/starford/gitfolio/internal/repofs"
	"github.com/starford/gitfolio/internal/store"
)

// Notifier receives change notifications after successful mutations.
type Notifier func(entity, kind, id string)

// Service is the project domain service.
type Service struct {
	store  *store.ProjectStore
	files  *repofs.FS
	ing    *ingest.Ingestor
	idx    index.DocumentIndex
	notify Notifier
}

// NewService creates a project service. idx and notify may be nil.
func NewService(st *store.ProjectStore, files *repofs.FS, ing *ingest.Ingestor, idx index.DocumentIndex, notify Notifier) *Service {
	return &Service{store: st, files: files, ing: ing, idx: idx, notify: notify}
}

// Ingest registers a new project from an upload. On any failure nothing is
// persisted and no extracted files are left behind. archive may be nil for
// a static entry.
func (s *Service) Ingest(_ context.Context, name, description string, archive []byte) (models.Project, error) {
	p, err := s.ing.Ingest(name, description, archive)
	if err != nil {
		return models.Project{}, err
	}
	if err := s.store.Add(p); err != nil {
		// The record never made it to disk; remove the orphaned trees.
		if derr := s.ing.Discard(p); derr != nil {
			slog.Warn("project: discard after failed add",
				slog.String("id", p.ID),
				slog.String("error", derr.Error()))
		}
		return models.Project{}, err
	}

	if archive != nil {
		slog.Info("project: archive ingested",
			slog.String("id", p.ID),
			slog.String("language", p.Language),
			slog.String("sha256", checksum.Sum(archive)))
	}

	s.indexProject(p)
	s.publish("project", "created", p.ID)
	return p, nil
}

// List returns all projects, newest first.
func (s *Service) List(_ context.Context) []models.Project {
	return s.store.List()
}

// Get returns one project by id.
func (s *Service) Get(_ context.Context, id string) (models.Project, error) {
	return s.store.Get(id)
}

// Delete removes a project record and cascades to its on-disk artifacts
// (extracted tree, retained archive) and index entry. Deleting an unknown
// id is a no-op.
func (s *Service) Delete(_ context.Context, id string) error {
	removed, found, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if derr := s.ing.Discard(removed); derr != nil {
		slog.Warn("project: cascade delete of files failed",
			slog.String("id", id),
			slog.String("error", derr.Error()))
	}
	if s.idx != nil {
		if ierr := s.idx.DeleteDocument(index.KindProject, id); ierr != nil {
			slog.Warn("project: index delete failed",
				slog.String("id", id),
				slog.String("error", ierr.Error()))
		}
	}
	s.publish("project", "deleted", id)
	return nil
}

// Social applies a star/watch counter action ("inc" or "dec"). Counters
// clamp at zero.
func (s *Service) Social(_ context.Context, id, typ, action string) (models.Project, error) {
	if typ != store.CounterStar && typ != store.CounterWatch {
		return models.Project{}, apperr.ErrValidation
	}
	var delta int
	switch action {
	case "inc":
		delta = 1
	case "dec":
		delta = -1
	default:
		return models.Project{}, apperr.ErrValidation
	}
	p, err := s.store.AdjustCounter(id, typ, delta)
	if err != nil {
		return models.Project{}, err
	}
	s.publish("project", "updated", id)
	return p, nil
}

// TogglePin flips the pin flag and returns the new state.
func (s *Service) TogglePin(_ context.Context, id string) (bool, error) {
	pinned, err := s.store.TogglePin(id)
	if err != nil {
		return false, err
	}
	s.publish("project", "updated", id)
	return pinned, nil
}

// Files lists the directory at rel inside the project's extracted tree.
func (s *Service) Files(_ context.Context, id, rel string) ([]models.FileEntry, error) {
	base, err := s.storageBase(id)
	if err != nil {
		return nil, err
	}
	return s.files.ListDir(base, rel)
}

// FileContent reads a single file from the project's extracted tree.
func (s *Service) FileContent(_ context.Context, id, rel string) (models.FileContent, error) {
	base, err := s.storageBase(id)
	if err != nil {
		return models.FileContent{}, err
	}
	return s.files.ReadContent(base, rel)
}

// Readme returns the project's README text, or "" when it has none.
func (s *Service) Readme(_ context.Context, id string) (string, error) {
	base, err := s.storageBase(id)
	if err != nil {
		return "", err
	}
	return s.files.Readme(base), nil
}

// storageBase maps a project id to its directory below the files root.
// Static entries have no browsable tree.
func (s *Service) storageBase(id string) (string, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	if p.Path == "" {
		return "", apperr.ErrNotFound
	}
	// "/uploads/<dir>" -> "uploads/<dir>" below the files root.
	return p.Path[1:], nil
}

func (s *Service) indexProject(p models.Project) {
	if s.idx == nil {
		return
	}
	var md string
	if p.Path != "" {
		md = s.files.Readme(p.Path[1:])
	}
	row, body := index.DocFromProject(p, md)
	if err := s.idx.UpsertDocument(row, body); err != nil {
		slog.Warn("project: index upsert failed",
			slog.String("id", p.ID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publish(entity, kind, id string) {
	if s.notify != nil {
		s.notify(entity, kind, id)
	}
}
