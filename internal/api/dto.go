package api

import (
	"github.com/starford/gitfolio/internal/index"
	"github.com/starford/gitfolio/internal/models"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

type skillRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type skillsResponse struct {
	Success bool           `json:"success"`
	Skills  []models.Skill `json:"skills"`
}

type articleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
	Tags    string `json:"tags"`
}

type articleResponse struct {
	Success bool           `json:"success"`
	Article models.Article `json:"article"`
}

type socialRequest struct {
	Type   string `json:"type"`   // "star" or "watch"
	Action string `json:"action"` // "inc" or "dec"
}

type socialResponse struct {
	Success  bool `json:"success"`
	Stars    int  `json:"stars"`
	Watchers int  `json:"watchers"`
}

type projectResponse struct {
	Success bool           `json:"success"`
	Project models.Project `json:"project"`
}

type filesResponse struct {
	Success bool               `json:"success"`
	Files   []models.FileEntry `json:"files"`
}

type contentResponse struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	IsBinary bool   `json:"isBinary"`
}

type avatarResponse struct {
	Success   bool   `json:"success"`
	AvatarURL string `json:"avatarUrl"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type searchResponse struct {
	Results []index.SearchResult `json:"results"`
}
