package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hllvc/dashctl/internal/tokenstore"
)

// tracer emits request and refresh spans. No-op unless the application
// installs an OTel SDK.
var tracer trace.Tracer = otel.Tracer("github.com/hllvc/dashctl/internal/gateway")

// refreshPath is the backend's token refresh endpoint, relative to the base URL.
const refreshPath = "/auth/refresh"

// DefaultHTTPTimeout bounds individual requests issued by the gateway.
const DefaultHTTPTimeout = 30 * time.Second

// Gateway is the authenticated request path to the backend. It injects the
// bearer token, retries exactly once after a coordinated token refresh when a
// request bounces with HTTP 401, and leaves all other status interpretation
// to the caller.
type Gateway struct {
	baseURL string
	client  *http.Client
	store   *tokenstore.Scoped

	refresher *Refresher
	source    *TokenSource

	onLoginRequired func()
	logger          *slog.Logger

	// construction-time knobs
	timeout     time.Duration
	refreshWait time.Duration
	leeway      time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached if the
// client has none, since the refresh credential travels as a cookie.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithTimeout bounds individual HTTP requests. Defaults to DefaultHTTPTimeout.
// Ignored when a custom client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithRefreshWaitTimeout bounds how long a request waits for a shared token
// refresh to settle. Defaults to DefaultRefreshWait.
func WithRefreshWaitTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.refreshWait = d
	}
}

// WithExpiryLeeway sets how close to expiry a token may get before being
// refreshed pre-emptively. Defaults to DefaultExpiryLeeway.
func WithExpiryLeeway(d time.Duration) Option {
	return func(g *Gateway) {
		g.leeway = d
	}
}

// WithLoginRequiredHook sets the hook invoked when the user must authenticate
// again: no local token, or the refresh credential has expired. The hook is
// the process equivalent of the dashboard's redirect to the login page.
func WithLoginRequiredHook(hook func()) Option {
	return func(g *Gateway) {
		g.onLoginRequired = hook
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a Gateway for the backend at baseURL, storing tokens in the
// given scoped store. The gateway owns a cookie jar shared between normal
// requests and the refresh endpoint, so the HTTP-only refresh credential set
// at login is presented implicitly.
func New(baseURL string, store *tokenstore.Scoped, opts ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("missing base URL")
	}
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}

	g := &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		store:       store,
		timeout:     DefaultHTTPTimeout,
		refreshWait: DefaultRefreshWait,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		g.client = &http.Client{Timeout: g.timeout}
	}
	if g.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		g.client.Jar = jar
	}

	refresher, err := NewRefresher(g.baseURL+refreshPath, g.client, store,
		WithRefreshWait(g.refreshWait),
		WithAuthExpiredHook(g.promptLogin),
		WithRefresherLogger(g.logger),
	)
	if err != nil {
		return nil, err
	}
	g.refresher = refresher

	source, err := NewTokenSource(store, refresher, g.leeway)
	if err != nil {
		return nil, err
	}
	g.source = source

	return g, nil
}

// Store returns the scoped token store the gateway writes refreshed tokens to.
func (g *Gateway) Store() *tokenstore.Scoped {
	return g.store
}

// RequestOption mutates an outgoing request before it is sent. Options run
// after the gateway's own defaults, so caller-supplied headers win — except
// Authorization, which the gateway always owns.
type RequestOption func(*http.Request)

// WithHeader sets a header on the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// Do issues an authenticated request and returns the final response.
//
// When no token is available in either scope, the login hook fires and Do
// fails with ErrNoToken. When the response is 401, Do obtains a fresh token
// through the refresh coordinator (joining any refresh already in flight)
// and replays the request exactly once; a second 401 is returned as-is.
// Statuses other than 401 are not interpreted here.
func (g *Gateway) Do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*http.Response, error) {
	token, err := g.source.TokenContext(ctx)
	if errors.Is(err, ErrNoToken) {
		g.promptLogin()
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}

	resp, err := g.send(ctx, method, path, body, token.AccessToken, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Access token bounced. Replay once with a fresh one; if the retry still
	// comes back 401 the caller gets that response, not another refresh.
	drain(resp)

	fresh, err := g.refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "retrying request after token refresh", "method", method, "path", path)
	return g.send(ctx, method, path, body, fresh, opts)
}

// DoPublic issues a request without credentials. Pre-auth endpoints (login)
// use it; Set-Cookie responses still land in the shared jar, which is how the
// refresh credential reaches the refresher.
func (g *Gateway) DoPublic(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*http.Response, error) {
	return g.send(ctx, method, path, body, "", opts)
}

func (g *Gateway) send(ctx context.Context, method, path string, body []byte, token string, opts []RequestOption) (*http.Response, error) {
	ctx, span := tracer.Start(ctx, "gateway.request")
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	for _, opt := range opts {
		opt(req)
	}

	// Authorization is never caller-overridable.
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

// DoJSON issues an authenticated request with a JSON body and decodes a JSON
// response. Any non-2xx final response is surfaced as *APIError with a
// best-effort message from the body. A nil out skips decoding.
func (g *Gateway) DoJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := marshalBody(in)
	if err != nil {
		return err
	}

	resp, err := g.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// DoPublicJSON is DoJSON without credentials, for pre-auth endpoints.
func (g *Gateway) DoPublicJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := marshalBody(in)
	if err != nil {
		return err
	}

	resp, err := g.DoPublic(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func (g *Gateway) promptLogin() {
	if g.onLoginRequired != nil {
		g.onLoginRequired()
	}
}

func marshalBody(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return body, nil
}

func decodeJSON(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// apiError builds an APIError from a non-2xx response, preferring the JSON
// message field and falling back to a generic status line.
func apiError(resp *http.Response) *APIError {
	message := statusMessage(resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
			message = payload.Message
		}
	}

	return &APIError{Status: resp.StatusCode, Message: message}
}

// drain discards and closes a response body so the underlying connection can
// be reused for the retry.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
