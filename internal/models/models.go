// Package models defines the domain types for gitfolio.
package models

// Project is a registered repository shown on the profile page.
//
// Path is empty iff the project was created without an archive upload (a
// static entry); DownloadURL is set iff the original archive was retained.
type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	LanguageColor string `json:"languageColor"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	Watchers      int    `json:"watchers"`
	UpdatedAt     string `json:"updatedAt"`
	IsPinned      bool   `json:"isPinned"`
	Path          string `json:"path"`
	DownloadURL   string `json:"downloadUrl"`
}

// Skill is a single entry on the skills board. Names are unique
// (case-insensitive).
type Skill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Article is a blog post shown in the articles section.
type Article struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Date    string   `json:"date"`
	Views   int      `json:"views"`
}

// Profile holds the server-side part of the profile; the rest of the
// profile card is static frontend data.
type Profile struct {
	AvatarURL string `json:"avatarUrl"`
}

// FileEntry is one row in the repository file browser.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "folder"
	Size int64  `json:"size"`
	Time string `json:"time"`
}

// FileContent is the result of reading a single browsable file.
type FileContent struct {
	Content  string `json:"content"`
	IsBinary bool   `json:"isBinary"`
}
