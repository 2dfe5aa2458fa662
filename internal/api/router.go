package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter assembles the /api routes. Reads and visitor interactions are
// public; mutations go through the auth middleware, which is a pass-through
// when auth is disabled. events may be nil when live updates are off.
func NewRouter(h *Handler, events http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Get("/profile", h.GetProfile)
	r.Get("/skills", h.ListSkills)
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/{id}", h.GetArticle)
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{id}/files", h.ProjectFiles)
	r.Get("/projects/{id}/file-content", h.ProjectFileContent)
	r.Get("/projects/{id}/readme", h.ProjectReadme)
	r.Post("/projects/{id}/social", h.ProjectSocial)
	r.Get("/search", h.Search)
	r.Get("/contributions", h.Contributions)
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	r.Group(func(g chi.Router) {
		g.Use(AuthMiddleware(h.d.AuthEnabled, h.d.Sessions))
		g.Post("/profile/avatar", h.UploadAvatar)
		g.Post("/skills", h.AddSkill)
		g.Put("/skills/{name}", h.UpdateSkill)
		g.Delete("/skills/{name}", h.DeleteSkill)
		g.Post("/articles", h.AddArticle)
		g.Delete("/articles/{id}", h.DeleteArticle)
		g.Post("/projects", h.CreateProject)
		g.Patch("/projects/{id}/pin", h.TogglePin)
		g.Delete("/projects/{id}", h.DeleteProject)
	})

	return r
}
