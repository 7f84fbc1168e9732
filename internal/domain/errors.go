package domain

import "errors"

var (
	// ErrNotFound means no matching published page or no context data.
	// Surfaced to the caller as a 404.
	ErrNotFound = errors.New("not found")

	// ErrUnregisteredSection means a section key has no definition.
	ErrUnregisteredSection = errors.New("unregistered section")

	// ErrValidation means section settings failed the section schema.
	ErrValidation = errors.New("validation failed")

	// ErrCacheUnavailable means the cache store could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrNeverPublished means a revert was requested before any publish.
	ErrNeverPublished = errors.New("never published")
)
