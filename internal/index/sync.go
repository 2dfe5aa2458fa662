package index

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/gitfolio/internal/models"
)

// Sync rebuilds the index from the JSON collections. readme (if non-nil)
// supplies the README text for a project so it becomes searchable.
// Per-document failures are logged and skipped; the index is advisory.
func Sync(db *DB, projects []models.Project, articles []models.Article, readme func(models.Project) string, logger *slog.Logger) error {
	if _, err := db.conn.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("index: clear documents: %w", err)
	}
	if err := ftsClear(db.conn); err != nil {
		return err
	}

	for _, p := range projects {
		var md string
		if readme != nil {
			md = readme(p)
		}
		row, body := DocFromProject(p, md)
		if err := db.UpsertDocument(row, body); err != nil {
			logger.Warn("index: sync project failed",
				slog.String("id", p.ID),
				slog.String("error", err.Error()))
		}
	}

	for _, a := range articles {
		row, body := DocFromArticle(a)
		if err := db.UpsertDocument(row, body); err != nil {
			logger.Warn("index: sync article failed",
				slog.String("id", a.ID),
				slog.String("error", err.Error()))
		}
	}

	logger.Info("index: sync complete",
		slog.Int("projects", len(projects)),
		slog.Int("articles", len(articles)))
	return nil
}

// DocFromArticle builds the index row for an article.
func DocFromArticle(a models.Article) (DocRow, string) {
	return DocRow{
		Kind:      KindArticle,
		ID:        a.ID,
		Title:     a.Title,
		Tags:      a.Tags,
		UpdatedAt: time.Now(),
	}, a.Content
}

// DocFromProject builds the index row for a project; readmeText may be empty.
func DocFromProject(p models.Project, readmeText string) (DocRow, string) {
	body := p.Description
	if readmeText != "" {
		body = strings.TrimSpace(body + "\n" + readmeText)
	}
	return DocRow{
		Kind:      KindProject,
		ID:        p.ID,
		Title:     p.Name,
		Tags:      []string{p.Language},
		UpdatedAt: time.Now(),
	}, body
}
