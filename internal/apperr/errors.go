// Package apperr defines the sentinel errors shared across the application.
package apperr

import "errors"

var (
	// ErrNotFound means the canonical file and every fallback source are absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath means a backup operation targeted a path outside the
	// backup namespace of its canonical file, or the canonical file itself.
	ErrInvalidPath = errors.New("invalid path")
)
