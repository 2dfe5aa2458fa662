package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// imageExts lists the avatar file types the upload endpoint accepts.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadAvatar stores a new avatar image and updates the profile. The file
// is renamed to a random name so uploads never collide or carry hostile
// filenames.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.d.MaxUploadBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("avatar file required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExts[ext] {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported image type"))
		return
	}

	name := "avatar-" + uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.d.ImagesDir, name))
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		respondError(w, err)
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		respondError(w, err)
		return
	}

	p, err := h.d.Profile.SetAvatar("/images/" + name)
	if err != nil {
		respondError(w, err)
		return
	}
	h.publish("profile", "updated", "")
	writeJSON(w, http.StatusOK, avatarResponse{Success: true, AvatarURL: p.AvatarURL})
}

// FileServer serves uploaded avatars and retained project archives.
type FileServer struct {
	imagesDir    string
	downloadsDir string
}

// NewFileServer creates a static file server over the two public
// directories.
func NewFileServer(imagesDir, downloadsDir string) *FileServer {
	return &FileServer{imagesDir: imagesDir, downloadsDir: downloadsDir}
}

// ServeImage serves an avatar image by filename.
func (s *FileServer) ServeImage(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, s.imagesDir, false)
}

// ServeDownload serves a retained project archive as an attachment.
func (s *FileServer) ServeDownload(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, s.downloadsDir, true)
}

func (s *FileServer) serve(w http.ResponseWriter, r *http.Request, dir string, attachment bool) {
	name := chi.URLParam(r, "filename")
	// Only bare filenames are routable; anything that resolves elsewhere
	// is treated as missing.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	http.ServeFile(w, r, path)
}
