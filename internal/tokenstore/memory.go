package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore holds a token for the lifetime of the process. It backs the
// session scope, where credentials deliberately do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// Compile-time check to ensure MemoryStore implements TokenStore
var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns the stored token. Returns ErrNotFound if nothing has been written.
func (m *MemoryStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.set || m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

// Write stores the token, overwriting any existing value.
func (m *MemoryStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.set = true
	return nil
}

// Delete clears the stored token.
func (m *MemoryStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	m.set = false
	return nil
}
