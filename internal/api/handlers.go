package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gitfolio/internal/apperr"
	"github.com/starford/gitfolio/internal/contrib"
	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/projectsvc"
	"github.com/starford/gitfolio/internal/store"
)

// searchLimit caps the number of results returned by the search endpoint.
const searchLimit = 20

// Deps bundles everything the HTTP layer depends on. Index and Notify may
// be nil.
type Deps struct {
	Projects *projectsvc.Service
	Skills   *store.SkillStore
	Articles *store.ArticleStore
	Profile  *store.ProfileStore
	Index    index.DocumentIndex
	Notify   projectsvc.Notifier

	Sessions    *Sessions
	Password    string
	AuthEnabled bool

	ImagesDir      string
	MaxUploadBytes int64
}

// Handler carries the API endpoint implementations.
type Handler struct {
	d Deps
}

// NewHandler creates the endpoint handler set.
func NewHandler(d Deps) *Handler {
	return &Handler{d: d}
}

func (h *Handler) publish(entity, kind, id string) {
	if h.d.Notify != nil {
		h.d.Notify(entity, kind, id)
	}
}

// respondError maps domain errors onto HTTP status codes. Unknown errors
// are logged and reported as a bare 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request"))
	case errors.Is(err, apperr.ErrPathEscape):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	case errors.Is(err, apperr.ErrIsDirectory):
		writeJSON(w, http.StatusBadRequest, errorBody("path is a directory"))
	case errors.Is(err, apperr.ErrNotADirectory):
		writeJSON(w, http.StatusBadRequest, errorBody("path is not a directory"))
	case errors.Is(err, apperr.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("too large"))
	default:
		slog.Error("api: request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.ErrValidation
	}
	return nil
}

// Login validates the admin password and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Password != h.d.Password {
		writeJSON(w, http.StatusUnauthorized, loginResponse{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: h.d.Sessions.Issue()})
}

// GetProfile returns the profile object.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Profile.Get())
}

// ListSkills returns all skills.
func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Skills.List())
}

// AddSkill appends a skill; adding an existing name is a silent success.
func (h *Handler) AddSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	skills, err := h.d.Skills.Add(req.Name, req.Category)
	if err != nil {
		respondError(w, err)
		return
	}
	h.publish("skill", "updated", req.Name)
	writeJSON(w, http.StatusOK, skillsResponse{Success: true, Skills: skills})
}

// UpdateSkill replaces the skill named in the URL.
func (h *Handler) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req skillRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	skills, err := h.d.Skills.Update(name, req.Name, req.Category)
	if err != nil {
		respondError(w, err)
		return
	}
	h.publish("skill", "updated", name)
	writeJSON(w, http.StatusOK, skillsResponse{Success: true, Skills: skills})
}

// DeleteSkill removes the named skill; unknown names still succeed.
func (h *Handler) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	skills, err := h.d.Skills.Delete(name)
	if err != nil {
		respondError(w, err)
		return
	}
	h.publish("skill", "deleted", name)
	writeJSON(w, http.StatusOK, skillsResponse{Success: true, Skills: skills})
}

// ListArticles returns all articles, newest first.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Articles.List())
}

// AddArticle creates an article from the posted fields.
func (h *Handler) AddArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	article, err := h.d.Articles.Add(req.Title, req.Content, req.Summary, req.Tags)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.d.Index != nil {
		row, body := index.DocFromArticle(article)
		if ierr := h.d.Index.UpsertDocument(row, body); ierr != nil {
			slog.Warn("api: article index upsert failed",
				slog.String("id", article.ID),
				slog.String("error", ierr.Error()))
		}
	}
	h.publish("article", "created", article.ID)
	writeJSON(w, http.StatusOK, articleResponse{Success: true, Article: article})
}

// GetArticle returns a single article and bumps its view count.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.d.Articles.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// DeleteArticle removes an article; unknown ids still succeed.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := h.d.Articles.Delete(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if found {
		if h.d.Index != nil {
			if ierr := h.d.Index.DeleteDocument(index.KindArticle, id); ierr != nil {
				slog.Warn("api: article index delete failed",
					slog.String("id", id),
					slog.String("error", ierr.Error()))
			}
		}
		h.publish("article", "deleted", id)
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Search queries the document index across projects and articles.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" || h.d.Index == nil {
		writeJSON(w, http.StatusOK, searchResponse{Results: []index.SearchResult{}})
		return
	}
	results, err := h.d.Index.Search(query, searchLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// Contributions returns the yearly contribution heat-map.
func (h *Handler) Contributions(w http.ResponseWriter, r *http.Request) {
	activity := contrib.Aggregate(h.d.Projects.List(r.Context()), time.Now())
	writeJSON(w, http.StatusOK, activity)
}
