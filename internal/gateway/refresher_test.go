package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hllvc/dashctl/internal/tokenstore"
)

func newTestStore(t *testing.T) *tokenstore.Scoped {
	t.Helper()

	store, err := tokenstore.NewScoped(tokenstore.NewMemoryStore(), tokenstore.NewMemoryStore())
	require.NoError(t, err)
	return store
}

func writeRefreshResponse(t *testing.T, w http.ResponseWriter, token string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"access_token": token}))
}

func TestRefresherConcurrentCallersShareOneCall(t *testing.T) {
	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		writeRefreshResponse(t, w, "fresh-token")
	}))
	defer server.Close()

	store := newTestStore(t)
	refresher, err := NewRefresher(server.URL, server.Client(), store)
	require.NoError(t, err)

	const waiters = 8
	results := make(chan string, waiters)
	errs := make(chan error, waiters)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		token, err := refresher.Refresh(context.Background())
		results <- token
		errs <- err
	}()

	// Let the first caller reach the endpoint, then pile the rest onto the
	// in-flight call before releasing it.
	<-started
	for range waiters - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := refresher.Refresh(context.Background())
			results <- token
			errs <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)
	close(errs)

	assert.Equal(t, int32(1), calls.Load(), "exactly one refresh network call")
	for err := range errs {
		assert.NoError(t, err)
	}
	for token := range results {
		assert.Equal(t, "fresh-token", token, "every waiter receives the same token")
	}

	stored, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", stored)
}

func TestRefresherExpiredCredentialClearsAuthOnce(t *testing.T) {
	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetLoginToken(context.Background(), "stale", true))
	store.SetRole("admin")

	var hookCalls atomic.Int32
	refresher, err := NewRefresher(server.URL, server.Client(), store,
		WithAuthExpiredHook(func() { hookCalls.Add(1) }),
	)
	require.NoError(t, err)

	const waiters = 4
	errs := make(chan error, waiters)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := refresher.Refresh(context.Background())
		errs <- err
	}()

	<-started
	for range waiters - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := refresher.Refresh(context.Background())
			errs <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrRefreshTokenExpired, "every waiter receives the same error")
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), hookCalls.Load(), "login hook fires once per refresh attempt")

	_, err = store.Token(context.Background())
	assert.ErrorIs(t, err, tokenstore.ErrNotFound, "both scopes cleared")
	assert.Empty(t, store.Role())
}

func TestRefresherMissingAccessTokenInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeRefreshResponse(t, w, "")
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetLoginToken(context.Background(), "existing", false))

	refresher, err := NewRefresher(server.URL, server.Client(), store)
	require.NoError(t, err)

	_, err = refresher.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrMissingAccessToken)

	// Generic refresh failures leave local auth state alone.
	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "existing", token)
}

func TestRefresherGenericFailureKeepsAuthState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetLoginToken(context.Background(), "existing", false))

	var hookCalls atomic.Int32
	refresher, err := NewRefresher(server.URL, server.Client(), store,
		WithAuthExpiredHook(func() { hookCalls.Add(1) }),
	)
	require.NoError(t, err)

	_, err = refresher.Refresh(context.Background())

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, http.StatusBadGateway, refreshErr.Status)
	assert.Zero(t, hookCalls.Load())

	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "existing", token)
}

func TestRefresherBoundedWait(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeRefreshResponse(t, w, "too-late")
	}))
	defer server.Close()
	defer close(release)

	refresher, err := NewRefresher(server.URL, server.Client(), newTestStore(t),
		WithRefreshWait(50*time.Millisecond),
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = refresher.Refresh(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second, "caller detaches instead of hanging")
}

func TestRefresherHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeRefreshResponse(t, w, "too-late")
	}))
	defer server.Close()
	defer close(release)

	refresher, err := NewRefresher(server.URL, server.Client(), newTestStore(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = refresher.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
