package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModePassword = "password"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Files  FilesConfig       `yaml:"files"`
	Index  IndexConfig       `yaml:"index"`
	Auth   AuthConfig        `yaml:"auth"`
	Limits LimitsConfig      `yaml:"limits"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Files.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Limits.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the directory for the JSON collection files
// (projects, articles, skills, profile).
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// FilesConfig holds the directory for served files: extracted project
// trees (uploads/), retained archives (downloads/), avatars (images/).
type FilesConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the files configuration.
func (c *FilesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig holds the SQLite search index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds the admin dashboard authentication configuration.
//
// Mode controls how mutating endpoints are protected:
//   - "disabled" (default): login works but mutations are open, suitable
//     for local dev.
//   - "password": login issues a session token; mutating endpoints require
//     it as a Bearer token. Password must be non-empty.
type AuthConfig struct {
	Mode     string `yaml:"mode"`
	Password string `yaml:"password"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModePassword)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModePassword && c.Password == "" {
		return fmt.Errorf("auth: mode is %q but password is empty", AuthModePassword)
	}
	return nil
}

// AuthEnabled returns true when mutating endpoints require a session token.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModePassword
}

// LimitsConfig bounds uploads and reads.
type LimitsConfig struct {
	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
	MaxArchiveEntries int   `yaml:"max_archive_entries"`
	MaxExtractedBytes int64 `yaml:"max_extracted_bytes"`
	MaxTextFileBytes  int64 `yaml:"max_text_file_bytes"`
}

// Validate validates the limits configuration.
func (c *LimitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxArchiveEntries, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxExtractedBytes, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxTextFileBytes, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./data",
		},
		Files: FilesConfig{
			Path: "./files",
		},
		Index: IndexConfig{
			Path: "./gitfolio.db",
		},
		Auth: AuthConfig{
			Mode:     AuthModeDisabled,
			Password: "admin123",
		},
		Limits: LimitsConfig{
			MaxUploadBytes:    50 << 20,
			MaxArchiveEntries: 10000,
			MaxExtractedBytes: 200 << 20,
			MaxTextFileBytes:  1 << 20,
		},
	}
}
