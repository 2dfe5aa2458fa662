package store

import (
	"strings"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

// initialSkills seeds the skills board on first start.
var initialSkills = []models.Skill{
	{Name: "Python", Category: "Language"},
	{Name: "Rust", Category: "Language"},
	{Name: "Go", Category: "Language"},
	{Name: "Java", Category: "Language"},
	{Name: "JavaScript", Category: "Language"},
	{Name: "Linux", Category: "DevOps"},
	{Name: "AWS", Category: "Cloud"},
	{Name: "Cloud Computing", Category: "Cloud"},
	{Name: "AI & MLOps", Category: "AI"},
	{Name: "QA", Category: "DevOps"},
	{Name: "Sprint Methodology", Category: "Methodology"},
}

// SkillStore persists the skills collection. Skill names are unique,
// compared case-insensitively.
type SkillStore struct {
	c *Collection[models.Skill]
}

// OpenSkills opens the skill collection at path, seeding the default set
// when the file does not exist yet.
func OpenSkills(path string) (*SkillStore, error) {
	seed := make([]models.Skill, len(initialSkills))
	copy(seed, initialSkills)
	c, err := OpenCollection(path, seed)
	if err != nil {
		return nil, err
	}
	return &SkillStore{c: c}, nil
}

// List returns all skills.
func (s *SkillStore) List() []models.Skill {
	return s.c.All()
}

// Add appends a skill unless one with the same name already exists; a
// duplicate add is a silent no-op.
func (s *SkillStore) Add(name, category string) ([]models.Skill, error) {
	if name == "" || category == "" {
		return nil, apperr.ErrValidation
	}
	err := s.c.Update(func(items []models.Skill) ([]models.Skill, error) {
		for _, sk := range items {
			if strings.EqualFold(sk.Name, name) {
				return items, nil
			}
		}
		return append(items, models.Skill{Name: name, Category: category}), nil
	})
	if err != nil {
		return nil, err
	}
	return s.c.All(), nil
}

// Update replaces the skill identified by originalName. Blank fields keep
// their previous values.
func (s *SkillStore) Update(originalName, name, category string) ([]models.Skill, error) {
	err := s.c.Update(func(items []models.Skill) ([]models.Skill, error) {
		for i := range items {
			if items[i].Name == originalName {
				if name != "" {
					items[i].Name = name
				}
				if category != "" {
					items[i].Category = category
				}
				return items, nil
			}
		}
		return nil, apperr.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return s.c.All(), nil
}

// Delete removes the named skill. Deleting an unknown name is a no-op.
func (s *SkillStore) Delete(name string) ([]models.Skill, error) {
	err := s.c.Update(func(items []models.Skill) ([]models.Skill, error) {
		out := items[:0]
		for _, sk := range items {
			if sk.Name != name {
				out = append(out, sk)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return s.c.All(), nil
}

// Reload re-reads the collection from disk (used by the data watcher).
func (s *SkillStore) Reload() (bool, error) {
	return s.c.Reload()
}

// Path returns the backing file path.
func (s *SkillStore) Path() string {
	return s.c.Path()
}
