package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Scoped composes a persistent backend and a session backend into the
// dashboard's two-scope token model. A token lives in exactly one scope at a
// time: the scope is chosen at login ("remember me" picks persistent) and
// refreshed tokens are written back to whichever scope currently holds one.
//
// Scoped also caches the authorization role reported at login. The role is
// held in memory only; it is advisory and re-fetched on the next login.
type Scoped struct {
	persistent TokenStore
	session    TokenStore

	mu   sync.RWMutex
	role string
}

// NewScoped creates a Scoped store over the given persistent backend.
// A nil session backend defaults to an in-memory store.
func NewScoped(persistent, session TokenStore) (*Scoped, error) {
	if persistent == nil {
		return nil, fmt.Errorf("missing persistent token store")
	}
	if session == nil {
		session = NewMemoryStore()
	}

	return &Scoped{
		persistent: persistent,
		session:    session,
	}, nil
}

// Token returns the current access token, reading the persistent scope first
// and falling back to the session scope. Returns ErrNotFound when neither
// scope holds a token.
func (s *Scoped) Token(ctx context.Context) (string, error) {
	token, err := s.persistent.Read(ctx)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("reading persistent scope: %w", err)
	}

	return s.session.Read(ctx)
}

// SetToken writes the token back into whichever scope currently holds one.
// If neither scope holds a token, the session scope is used. This preserves
// the "remember me" choice made at login without Scoped tracking it
// explicitly: the choice is inferred from which scope is non-empty.
func (s *Scoped) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if _, err := s.persistent.Read(ctx); err == nil {
		return s.persistent.Write(ctx, token)
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("reading persistent scope: %w", err)
	}

	return s.session.Write(ctx, token)
}

// SetLoginToken stores a freshly issued token in the scope selected at login
// and empties the other scope, upholding the one-scope-at-a-time invariant.
func (s *Scoped) SetLoginToken(ctx context.Context, token string, remember bool) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if remember {
		if err := s.session.Delete(ctx); err != nil {
			return fmt.Errorf("clearing session scope: %w", err)
		}
		return s.persistent.Write(ctx, token)
	}

	if err := s.persistent.Delete(ctx); err != nil {
		return fmt.Errorf("clearing persistent scope: %w", err)
	}
	return s.session.Write(ctx, token)
}

// Role returns the cached authorization role, or empty when none is cached.
func (s *Scoped) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// SetRole caches the authorization role reported by the backend at login.
func (s *Scoped) SetRole(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
}

// Clear removes the token from both scopes and drops the cached role.
// The refresh credential is not touched: it lives in an HTTP-only cookie and
// is invalidated server-side during logout.
func (s *Scoped) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.role = ""
	s.mu.Unlock()

	return errors.Join(
		s.persistent.Delete(ctx),
		s.session.Delete(ctx),
	)
}
