package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoToken indicates that no access token is available in either
	// storage scope. The caller must re-authenticate.
	ErrNoToken = errors.New("no access token available")

	// ErrRefreshTokenExpired indicates the refresh endpoint rejected the
	// refresh credential with HTTP 401. Local auth state has been cleared.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrMissingAccessToken indicates the refresh endpoint answered 2xx but
	// the response carried no access token. Treated as a generic refresh
	// failure: local auth state is left untouched.
	ErrMissingAccessToken = errors.New("no access token in refresh response")
)

// RefreshError reports a failed token refresh that is neither an expired
// refresh credential nor a malformed success response: a transport failure or
// an unexpected status from the refresh endpoint. Status is zero for
// transport failures.
type RefreshError struct {
	Status int
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token refresh failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// APIError is a final non-2xx response from an authenticated endpoint,
// carrying a best-effort message extracted from the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s (HTTP %d)", e.Message, e.Status)
}

// statusMessage is the fallback APIError message when the response body has
// no parseable message field.
func statusMessage(status int) string {
	text := http.StatusText(status)
	if text == "" {
		text = "unexpected status"
	}
	return fmt.Sprintf("HTTP %d %s", status, text)
}
