package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gitfolio/internal/apperr"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// ListProjects returns all projects, newest first.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Projects.List(r.Context()))
}

// CreateProject registers a project from a multipart form. The "file" part
// is an optional zip archive; without one a static entry is created.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.d.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("upload too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	var archive []byte
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		archive, err = io.ReadAll(file)
		if err != nil {
			respondError(w, err)
			return
		}
	}

	p, err := h.d.Projects.Ingest(r.Context(), r.FormValue("name"), r.FormValue("description"), archive)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArchive) || errors.Is(err, apperr.ErrPathEscape) {
			// Bad or hostile archives abort the whole upload.
			writeJSON(w, http.StatusInternalServerError, errorBody("archive extraction failed"))
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{Success: true, Project: p})
}

// DeleteProject removes a project and its on-disk artifacts; unknown ids
// still succeed.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.d.Projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ProjectSocial applies a star/watch counter action.
func (h *Handler) ProjectSocial(w http.ResponseWriter, r *http.Request) {
	var req socialRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	p, err := h.d.Projects.Social(r.Context(), chi.URLParam(r, "id"), req.Type, req.Action)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, socialResponse{Success: true, Stars: p.Stars, Watchers: p.Watchers})
}

// TogglePin flips a project's pin flag.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	pinned, err := h.d.Projects.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool `json:"success"`
		IsPinned bool `json:"isPinned"`
	}{Success: true, IsPinned: pinned})
}

// ProjectFiles lists a directory inside the project's extracted tree. The
// path query parameter is relative to the project root.
func (h *Handler) ProjectFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.d.Projects.Files(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("path"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filesResponse{Success: true, Files: files})
}

// ProjectFileContent reads one file from the project's extracted tree.
func (h *Handler) ProjectFileContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.d.Projects.FileContent(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("path"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contentResponse{Success: true, Content: content.Content, IsBinary: content.IsBinary})
}

// ProjectReadme returns the project's README as plain text, empty when the
// project has none.
func (h *Handler) ProjectReadme(w http.ResponseWriter, r *http.Request) {
	text, err := h.d.Projects.Readme(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}
