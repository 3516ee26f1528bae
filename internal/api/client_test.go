package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hllvc/dashctl/internal/gateway"
	"github.com/hllvc/dashctl/internal/tokenstore"
)

type fixture struct {
	client     *Client
	store      *tokenstore.Scoped
	persistent *tokenstore.MemoryStore
	session    *tokenstore.MemoryStore
}

func newFixture(t *testing.T, server *httptest.Server) *fixture {
	t.Helper()

	persistent := tokenstore.NewMemoryStore()
	session := tokenstore.NewMemoryStore()
	store, err := tokenstore.NewScoped(persistent, session)
	require.NoError(t, err)

	gw, err := gateway.New(server.URL, store)
	require.NoError(t, err)

	client, err := NewClient(gw, nil)
	require.NoError(t, err)

	return &fixture{
		client:     client,
		store:      store,
		persistent: persistent,
		session:    session,
	}
}

func TestLoginStoresTokenInSelectedScope(t *testing.T) {
	tests := []struct {
		name     string
		remember bool
	}{
		{name: "remember me uses persistent scope", remember: true},
		{name: "plain login uses session scope", remember: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/login", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"), "login is unauthenticated")

				var req struct {
					Email    string `json:"email"`
					Password string `json:"password"`
					Remember bool   `json:"remember"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "admin@example.org", req.Email)
				assert.Equal(t, "hunter2", req.Password)
				assert.Equal(t, tt.remember, req.Remember)

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{
					"access_token": "minted-token",
					"role":         "admin",
				})
			}))
			defer server.Close()

			f := newFixture(t, server)
			ctx := context.Background()

			role, err := f.client.Login(ctx, "admin@example.org", "hunter2", tt.remember)
			require.NoError(t, err)
			assert.Equal(t, "admin", role)
			assert.Equal(t, "admin", f.client.Role())

			owner, other := f.session, f.persistent
			if tt.remember {
				owner, other = f.persistent, f.session
			}

			token, err := owner.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, "minted-token", token)

			_, err = other.Read(ctx)
			assert.ErrorIs(t, err, tokenstore.ErrNotFound)
		})
	}
}

func TestLoginWithoutAccessTokenFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"role": "admin"}`))
	}))
	defer server.Close()

	f := newFixture(t, server)

	_, err := f.client.Login(context.Background(), "admin@example.org", "hunter2", false)
	assert.ErrorContains(t, err, "no access token")
}

func TestLogoutClearsStateEvenWhenRequestFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFixture(t, server)
	ctx := context.Background()
	require.NoError(t, f.store.SetLoginToken(ctx, "token", true))
	f.store.SetRole("admin")

	require.NoError(t, f.client.Logout(ctx))

	_, err := f.store.Token(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	assert.Empty(t, f.store.Role())
}

// TestRefreshCookieFlow exercises the whole stack: login plants the HTTP-only
// refresh cookie in the gateway's jar, a stale access token bounces with 401,
// and the refresh endpoint sees the cookie and mints a token that the retried
// request succeeds with.
func TestRefreshCookieFlow(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "rt-secret", HttpOnly: true, Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "stale", "role": "admin"})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)

		cookie, err := r.Cookie("refresh_token")
		require.NoError(t, err, "refresh credential travels as a cookie")
		require.Equal(t, "rt-secret", cookie.Value)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "current"})
	})
	mux.HandleFunc("GET /needs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer current" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 7, "title": "Blankets", "amount": 100}]`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, server)
	ctx := context.Background()

	_, err := f.client.Login(ctx, "admin@example.org", "hunter2", false)
	require.NoError(t, err)

	needs, err := f.client.Needs(ctx)
	require.NoError(t, err)

	require.Len(t, needs, 1)
	assert.Equal(t, int64(7), needs[0].ID)
	assert.Equal(t, "Blankets", needs[0].Title)
	assert.Equal(t, int32(1), refreshCalls.Load())

	token, err := f.store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "current", token, "refreshed token written back to the session scope")
}

func TestCRUDEndpoints(t *testing.T) {
	type call struct {
		method string
		path   string
	}
	var calls []call

	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{method: r.Method, path: r.URL.Path})

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		case http.MethodPost:
			// Echo the payload back with an ID, like the backend does.
			var m map[string]any
			_ = json.Unmarshal(body, &m)
			m["id"] = 42
			_ = json.NewEncoder(w).Encode(m)
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}
	mux.HandleFunc("/", record)

	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, server)
	ctx := context.Background()
	require.NoError(t, f.store.SetLoginToken(ctx, "token", false))

	_, err := f.client.Needs(ctx)
	require.NoError(t, err)

	created, err := f.client.CreateNeed(ctx, Need{Title: "Blankets", Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)

	require.NoError(t, f.client.UpdateNeed(ctx, Need{ID: 42, Title: "Blankets", Amount: 150}))
	require.NoError(t, f.client.DeleteNeed(ctx, 42))

	_, err = f.client.Pages(ctx)
	require.NoError(t, err)
	require.NoError(t, f.client.UpdatePage(ctx, Page{ID: 3}))

	_, err = f.client.Statuses(ctx)
	require.NoError(t, err)
	_, err = f.client.Colors(ctx)
	require.NoError(t, err)
	_, err = f.client.Orders(ctx)
	require.NoError(t, err)
	require.NoError(t, f.client.UpdateOrder(ctx, Order{ID: 9, StatusID: 2}))
	require.NoError(t, f.client.DeleteOrder(ctx, 9))

	want := []call{
		{http.MethodGet, "/needs"},
		{http.MethodPost, "/needs"},
		{http.MethodPut, "/needs/42"},
		{http.MethodDelete, "/needs/42"},
		{http.MethodGet, "/pages"},
		{http.MethodPut, "/pages/3"},
		{http.MethodGet, "/statuses"},
		{http.MethodGet, "/colors"},
		{http.MethodGet, "/orders"},
		{http.MethodPut, "/orders/9"},
		{http.MethodDelete, "/orders/9"},
	}
	assert.Equal(t, want, calls)
}
