package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the backend holds no token.
var ErrNotFound = errors.New("no token stored")

// TokenStore reads, writes, and deletes tokens in a single storage backend.
type TokenStore interface {
	// Read returns the stored token. Returns ErrNotFound if the backend
	// holds no token, or another error if the backend is unreachable.
	Read(ctx context.Context) (string, error)

	// Write persists the token to storage. Returns error if storage backend
	// is read-only (e.g., environment variables) or if write operation fails.
	Write(ctx context.Context, token string) error

	// Delete removes any stored token. Deleting an absent token is not an error.
	Delete(ctx context.Context) error
}
