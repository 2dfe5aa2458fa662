package store

import (
	"strings"
	"time"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/models"
)

// summaryLen is the number of content characters used when no explicit
// summary is supplied.
const summaryLen = 150

// ArticleStore persists the article collection, newest first.
type ArticleStore struct {
	c *Collection[models.Article]
}

// OpenArticles opens (or creates) the article collection at path.
func OpenArticles(path string) (*ArticleStore, error) {
	c, err := OpenCollection[models.Article](path, nil)
	if err != nil {
		return nil, err
	}
	return &ArticleStore{c: c}, nil
}

// List returns all articles, newest first.
func (s *ArticleStore) List() []models.Article {
	return s.c.All()
}

// Add builds an article from the given fields and prepends it. Defaulting
// happens here and nowhere else: the summary falls back to a content prefix,
// tags are split on commas, the date is the UTC calendar day, views start
// at zero.
func (s *ArticleStore) Add(title, content, summary, tags string) (models.Article, error) {
	if title == "" || content == "" {
		return models.Article{}, apperr.ErrValidation
	}
	if summary == "" {
		if len(content) > summaryLen {
			summary = content[:summaryLen] + "..."
		} else {
			summary = content
		}
	}
	var tagList []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tagList = append(tagList, t)
		}
	}
	if tagList == nil {
		tagList = []string{}
	}

	article := models.Article{
		ID:      models.NewTimeID(),
		Title:   title,
		Content: content,
		Summary: summary,
		Tags:    tagList,
		Date:    time.Now().UTC().Format("2006-01-02"),
		Views:   0,
	}
	err := s.c.Update(func(items []models.Article) ([]models.Article, error) {
		return append([]models.Article{article}, items...), nil
	})
	if err != nil {
		return models.Article{}, err
	}
	return article, nil
}

// Get returns the article with the given id and increments its view count.
func (s *ArticleStore) Get(id string) (models.Article, error) {
	var found models.Article
	err := s.c.Update(func(items []models.Article) ([]models.Article, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Views++
				found = items[i]
				return items, nil
			}
		}
		return nil, apperr.ErrNotFound
	})
	if err != nil {
		return models.Article{}, err
	}
	return found, nil
}

// Delete removes the article with the given id. Deleting an unknown id is a
// no-op.
func (s *ArticleStore) Delete(id string) (bool, error) {
	var found bool
	err := s.c.Update(func(items []models.Article) ([]models.Article, error) {
		out := items[:0]
		for _, a := range items {
			if a.ID == id {
				found = true
				continue
			}
			out = append(out, a)
		}
		return out, nil
	})
	return found, err
}

// Reload re-reads the collection from disk (used by the data watcher).
func (s *ArticleStore) Reload() (bool, error) {
	return s.c.Reload()
}

// Path returns the backing file path.
func (s *ArticleStore) Path() string {
	return s.c.Path()
}
