package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrMissingCredential means no provider token pair could be found
	// for the caller. Maps to 401 with a link hint at the edge.
	ErrMissingCredential = errors.New("missing provider credential")
)
