package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hllvc/dashctl/internal/tokenstore"
)

// refreshKey is the singleflight key shared by all refresh callers. There is
// exactly one refresh credential per process, so one key suffices.
const refreshKey = "refresh"

// DefaultRefreshWait bounds how long a caller waits for a shared refresh call
// to settle before giving up with a deadline error.
const DefaultRefreshWait = 30 * time.Second

// Refresher serializes access-token refreshes: at most one call to the
// refresh endpoint is in flight at any time, and every caller that arrives
// while one is in flight attaches to it and receives the same outcome.
//
// The refresh credential is an HTTP-only cookie carried by the client's
// cookie jar; Refresher never reads it.
type Refresher struct {
	endpoint string
	client   *http.Client
	store    *tokenstore.Scoped

	wait          time.Duration
	onAuthExpired func()
	logger        *slog.Logger

	group singleflight.Group
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshWait bounds the time a caller waits for a refresh to settle.
// Zero disables the bound (the caller's context still applies).
func WithRefreshWait(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.wait = d
	}
}

// WithAuthExpiredHook sets the hook invoked when the refresh credential is
// rejected. Invoked at most once per refresh attempt, after local auth state
// has been cleared.
func WithAuthExpiredHook(hook func()) RefresherOption {
	return func(r *Refresher) {
		r.onAuthExpired = hook
	}
}

// WithRefresherLogger sets the logger. Defaults to slog.Default().
func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// NewRefresher creates a Refresher that posts to the given refresh endpoint
// with the given client. The client must carry the cookie jar that holds the
// refresh credential.
func NewRefresher(endpoint string, client *http.Client, store *tokenstore.Scoped, opts ...RefresherOption) (*Refresher, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("missing refresh endpoint")
	}
	if client == nil {
		return nil, fmt.Errorf("missing HTTP client")
	}
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}

	r := &Refresher{
		endpoint: endpoint,
		client:   client,
		store:    store,
		wait:     DefaultRefreshWait,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Refresh returns a fresh access token, joining any refresh already in
// flight. The wait is bounded by the caller's context and the configured wait
// timeout; a timed-out caller detaches without cancelling the shared call,
// so other waiters can still receive its result.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.refresh()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for token refresh: %w", ctx.Err())
	}
}

// refresh performs the single network refresh call shared by all waiters.
// It deliberately does not inherit any one caller's context: the result is
// shared, so one caller's cancellation must not abort it for the rest.
func (r *Refresher) refresh() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRefreshWait)
	defer cancel()

	ctx, span := tracer.Start(ctx, "gateway.refresh")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader("{}"))
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		// The refresh credential itself is gone. Whatever access token we
		// hold locally is unusable, so drop all auth state before reporting.
		r.expireAuth(ctx)
		return "", ErrRefreshTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RefreshError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("refresh endpoint returned HTTP %d", resp.StatusCode),
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return "", &RefreshError{Err: fmt.Errorf("decoding refresh response: %w", err)}
	}
	if payload.AccessToken == "" {
		return "", ErrMissingAccessToken
	}

	if err := r.store.SetToken(ctx, payload.AccessToken); err != nil {
		return "", &RefreshError{Err: fmt.Errorf("persisting refreshed token: %w", err)}
	}

	r.logger.DebugContext(ctx, "access token refreshed")
	return payload.AccessToken, nil
}

// expireAuth clears local auth state and notifies the application that the
// user must log in again. Runs inside the shared refresh call, so it fires at
// most once per refresh attempt no matter how many callers are waiting.
func (r *Refresher) expireAuth(ctx context.Context) {
	if err := r.store.Clear(ctx); err != nil {
		r.logger.ErrorContext(ctx, "failed to clear auth state", "error", err)
	}
	if r.onAuthExpired != nil {
		r.onAuthExpired()
	}
}
