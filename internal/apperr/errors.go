// Package apperr defines the sentinel errors shared across gitfolio services.
package apperr

import "errors"

var (
	// ErrNotFound marks an unknown record id or a missing path.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArchive marks an unreadable, corrupt, or over-limit upload.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrPathEscape marks a path that would resolve outside its storage root.
	ErrPathEscape = errors.New("path escapes storage root")
	// ErrIsDirectory marks a content read against a directory.
	ErrIsDirectory = errors.New("is a directory")
	// ErrNotADirectory marks a listing against a regular file.
	ErrNotADirectory = errors.New("not a directory")
	// ErrTooLarge marks a text file beyond the configured read cap.
	ErrTooLarge = errors.New("file too large")
	// ErrAlreadyExists marks a duplicate record.
	ErrAlreadyExists = errors.New("already exists")
)
