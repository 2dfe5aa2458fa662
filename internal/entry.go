// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/gitfolio/internal/api"
	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/ingest"
	"github.com/starford/gitfolio/internal/models"
	"github.com/starford/gitfolio/internal/projectsvc"
	"github.com/starford/gitfolio/internal/repofs"
	"github.com/starford/gitfolio/internal/sse"
	"github.com/starford/gitfolio/internal/store"
)

// stores bundles the four JSON collections.
type stores struct {
	projects *store.ProjectStore
	skills   *store.SkillStore
	articles *store.ArticleStore
	profile  *store.ProfileStore
}

func openStores(dir string) (*stores, error) {
	projects, err := store.OpenProjects(filepath.Join(dir, "projects.json"))
	if err != nil {
		return nil, fmt.Errorf("open projects: %w", err)
	}
	skills, err := store.OpenSkills(filepath.Join(dir, "skills.json"))
	if err != nil {
		return nil, fmt.Errorf("open skills: %w", err)
	}
	articles, err := store.OpenArticles(filepath.Join(dir, "articles.json"))
	if err != nil {
		return nil, fmt.Errorf("open articles: %w", err)
	}
	profile, err := store.OpenProfile(filepath.Join(dir, "profile.json"))
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	return &stores{projects: projects, skills: skills, articles: articles, profile: profile}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("files_path", cfg.Files.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directories exist.
	uploadsDir := filepath.Join(cfg.Files.Path, "uploads")
	downloadsDir := filepath.Join(cfg.Files.Path, "downloads")
	imagesDir := filepath.Join(cfg.Files.Path, "images")
	for _, dir := range []string{cfg.Store.Path, uploadsDir, downloadsDir, imagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// Open the JSON collections.
	st, err := openStores(cfg.Store.Path)
	if err != nil {
		return err
	}

	// Sandboxed browser over the files root.
	files, err := repofs.New(cfg.Files.Path, cfg.Limits.MaxTextFileBytes)
	if err != nil {
		return fmt.Errorf("init files: %w", err)
	}

	// Archive ingestor.
	ing, err := ingest.New(uploadsDir, downloadsDir, ingest.Limits{
		MaxArchiveEntries: cfg.Limits.MaxArchiveEntries,
		MaxExtractedBytes: cfg.Limits.MaxExtractedBytes,
	})
	if err != nil {
		return fmt.Errorf("init ingest: %w", err)
	}

	// SQLite search index.
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	readmeFor := func(p models.Project) string {
		if p.Path == "" {
			return ""
		}
		return files.Readme(p.Path[1:])
	}

	// Run initial sync.
	if err := index.Sync(db, st.projects.List(), st.articles.List(), readmeFor, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build domain service and API router.
	svc := projectsvc.NewService(st.projects, files, ing, db, broker.PublishChange)
	handler := api.NewHandler(api.Deps{
		Projects:       svc,
		Skills:         st.skills,
		Articles:       st.articles,
		Profile:        st.profile,
		Index:          db,
		Notify:         broker.PublishChange,
		Sessions:       api.NewSessions(),
		Password:       cfg.Auth.Password,
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		ImagesDir:      imagesDir,
		MaxUploadBytes: cfg.Limits.MaxUploadBytes,
	})
	apiRouter := api.NewRouter(handler, broker)
	fileSrv := api.NewFileServer(imagesDir, downloadsDir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, static files at the root.
	r.Mount("/api", apiRouter)
	r.Get("/images/{filename}", fileSrv.ServeImage)
	r.Get("/downloads/{filename}", fileSrv.ServeDownload)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the store directory for out-of-band edits; refresh the search
	// index when the indexed collections change.
	reloadables := []store.Reloadable{st.projects, st.skills, st.articles}
	g.Go(func() error {
		return store.Watch(gCtx, cfg.Store.Path, logger, reloadables, func(file string) {
			broker.PublishChange("store", "updated", file)
			if file == "projects.json" || file == "articles.json" {
				if err := index.Sync(db, st.projects.List(), st.articles.List(), readmeFor, logger); err != nil {
					logger.Warn("index resync failed", slog.String("error", err.Error()))
				}
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
