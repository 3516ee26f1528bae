package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/hllvc/dashctl/internal/tokenstore"
)

// DefaultExpiryLeeway is how close to its exp claim a token may get before it
// is refreshed pre-emptively instead of being sent and bounced with a 401.
const DefaultExpiryLeeway = 30 * time.Second

// TokenSource yields valid access tokens from the scoped store, refreshing
// through the coordinator when the embedded expiry claim is about to lapse.
// Tokens whose expiry cannot be decoded are returned as-is; an expired one
// will still be caught by the gateway's 401 retry path.
type TokenSource struct {
	store     *tokenstore.Scoped
	refresher *Refresher
	leeway    time.Duration

	now func() time.Time
}

// Compile-time check to ensure TokenSource implements oauth2.TokenSource
var _ oauth2.TokenSource = (*TokenSource)(nil)

// NewTokenSource creates a TokenSource over the given store and refresher.
// A non-positive leeway defaults to DefaultExpiryLeeway.
func NewTokenSource(store *tokenstore.Scoped, refresher *Refresher, leeway time.Duration) (*TokenSource, error) {
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}
	if refresher == nil {
		return nil, fmt.Errorf("missing refresher")
	}
	if leeway <= 0 {
		leeway = DefaultExpiryLeeway
	}

	return &TokenSource{
		store:     store,
		refresher: refresher,
		leeway:    leeway,
		now:       time.Now,
	}, nil
}

// Token implements oauth2.TokenSource.
// oauth2.TokenSource.Token() has no context parameter (legacy interface
// limitation); background context is used.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	return ts.TokenContext(context.Background())
}

// TokenContext returns a valid access token, refreshing pre-emptively when
// the token expires within the configured leeway. Returns ErrNoToken when
// neither storage scope holds a token.
func (ts *TokenSource) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	raw, err := ts.store.Token(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}

	expiry, ok := tokenExpiry(raw)
	if ok && !ts.now().Add(ts.leeway).Before(expiry) {
		raw, err = ts.refresher.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		expiry, _ = tokenExpiry(raw)
	}

	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}

// tokenExpiry decodes the exp claim from the token's middle segment without
// verifying the signature (verification is the server's responsibility).
// Reports false for opaque tokens or tokens without an exp claim.
func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
