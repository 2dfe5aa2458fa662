package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/ingest"
	"github.com/starford/gitfolio/internal/mcpserver"
	"github.com/starford/gitfolio/internal/projectsvc"
	"github.com/starford/gitfolio/internal/repofs"
)

// RunMCP serves the portfolio tools over MCP stdio. Logs go to stderr
// because the stdio transport owns stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	st, err := openStores(cfg.Store.Path)
	if err != nil {
		return err
	}

	files, err := repofs.New(cfg.Files.Path, cfg.Limits.MaxTextFileBytes)
	if err != nil {
		return fmt.Errorf("init files: %w", err)
	}

	ing, err := ingest.New(
		filepath.Join(cfg.Files.Path, "uploads"),
		filepath.Join(cfg.Files.Path, "downloads"),
		ingest.Limits{
			MaxArchiveEntries: cfg.Limits.MaxArchiveEntries,
			MaxExtractedBytes: cfg.Limits.MaxExtractedBytes,
		})
	if err != nil {
		return fmt.Errorf("init ingest: %w", err)
	}

	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := projectsvc.NewService(st.projects, files, ing, db, nil)
	srv := mcpserver.New(svc, st.skills, st.articles, st.profile, db)

	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
