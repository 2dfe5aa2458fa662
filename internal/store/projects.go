package store

import (
	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

// Counter kinds accepted by AdjustCounter.
const (
	CounterStar  = "star"
	CounterWatch = "watch"
)

// ProjectStore persists the project collection. Newest projects sit at the
// front of the slice, matching insertion order on the profile page.
type ProjectStore struct {
	c *Collection[models.Project]
}

// OpenProjects opens (or creates) the project collection at path.
func OpenProjects(path string) (*ProjectStore, error) {
	c, err := OpenCollection[models.Project](path, nil)
	if err != nil {
		return nil, err
	}
	return &ProjectStore{c: c}, nil
}

// List returns all projects, newest first.
func (s *ProjectStore) List() []models.Project {
	return s.c.All()
}

// Get returns the project with the given id.
func (s *ProjectStore) Get(id string) (models.Project, error) {
	for _, p := range s.c.All() {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Project{}, apperr.ErrNotFound
}

// Add prepends a new project record.
func (s *ProjectStore) Add(p models.Project) error {
	return s.c.Update(func(items []models.Project) ([]models.Project, error) {
		return append([]models.Project{p}, items...), nil
	})
}

// Delete removes the project with the given id. It reports whether a record
// was removed; removing an unknown id is not an error.
func (s *ProjectStore) Delete(id string) (models.Project, bool, error) {
	var (
		removed models.Project
		found   bool
	)
	err := s.c.Update(func(items []models.Project) ([]models.Project, error) {
		out := items[:0]
		for _, p := range items {
			if p.ID == id {
				removed = p
				found = true
				continue
			}
			out = append(out, p)
		}
		return out, nil
	})
	return removed, found, err
}

// AdjustCounter applies delta (+1 or -1) to the star or watch counter of the
// given project. Counters clamp at zero and never go negative.
func (s *ProjectStore) AdjustCounter(id, kind string, delta int) (models.Project, error) {
	var updated models.Project
	err := s.c.Update(func(items []models.Project) ([]models.Project, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			switch kind {
			case CounterStar:
				items[i].Stars += delta
				if items[i].Stars < 0 {
					items[i].Stars = 0
				}
			case CounterWatch:
				items[i].Watchers += delta
				if items[i].Watchers < 0 {
					items[i].Watchers = 0
				}
			default:
				return nil, apperr.ErrValidation
			}
			updated = items[i]
			return items, nil
		}
		return nil, apperr.ErrNotFound
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

// TogglePin flips the pin flag of the given project and returns the new state.
func (s *ProjectStore) TogglePin(id string) (bool, error) {
	var pinned bool
	err := s.c.Update(func(items []models.Project) ([]models.Project, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].IsPinned = !items[i].IsPinned
				pinned = items[i].IsPinned
				return items, nil
			}
		}
		return nil, apperr.ErrNotFound
	})
	return pinned, err
}

// Reload re-reads the collection from disk (used by the data watcher).
func (s *ProjectStore) Reload() (bool, error) {
	return s.c.Reload()
}

// Path returns the backing file path.
func (s *ProjectStore) Path() string {
	return s.c.Path()
}
