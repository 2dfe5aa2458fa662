package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/starford/gitfolio/internal/models"
)

// defaultAvatarURL is served until an avatar has been uploaded.
const defaultAvatarURL = "./avatar.jpg"

// ProfileStore persists the single profile object. Unlike the collections
// it holds one record, so it keeps its own file handling.
type ProfileStore struct {
	path string

	mu      sync.Mutex
	profile models.Profile
}

// OpenProfile opens the profile file at path, falling back to the default
// profile when the file is missing or corrupt.
func OpenProfile(path string) (*ProfileStore, error) {
	s := &ProfileStore{
		path:    path,
		profile: models.Profile{AvatarURL: defaultAvatarURL},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	var p models.Profile
	if jsonErr := json.Unmarshal(data, &p); jsonErr != nil {
		slog.Warn("store: profile file corrupt, using defaults",
			slog.String("path", path),
			slog.String("error", jsonErr.Error()))
		return s, nil
	}
	if p.AvatarURL == "" {
		p.AvatarURL = defaultAvatarURL
	}
	s.profile = p
	return s, nil
}

// Get returns the current profile.
func (s *ProfileStore) Get() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetAvatar replaces the avatar URL and persists the profile.
func (s *ProfileStore) SetAvatar(url string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.profile
	s.profile.AvatarURL = url

	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		s.profile = prev
		return models.Profile{}, fmt.Errorf("store: marshal profile: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		s.profile = prev
		return models.Profile{}, err
	}
	return s.profile, nil
}
