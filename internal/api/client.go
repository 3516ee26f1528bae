// Package api is the typed client for the dashboard backend. All
// authenticated calls go through the gateway, which owns bearer-token
// injection and the retry-after-refresh flow; this package only maps
// resources to endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/hllvc/dashctl/internal/gateway"
)

// Client performs dashboard CRUD operations against the backend.
type Client struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

// NewClient creates a Client over the given gateway.
func NewClient(gw *gateway.Gateway, logger *slog.Logger) (*Client, error) {
	if gw == nil {
		return nil, fmt.Errorf("missing gateway")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		gw:     gw,
		logger: logger,
	}, nil
}

// Login authenticates with email and password. The minted access token is
// stored in the persistent scope when remember is set, otherwise in the
// session scope; the refresh credential lands in the gateway's cookie jar via
// Set-Cookie. Returns the user's role.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (string, error) {
	req := loginRequest{
		Email:    openapi_types.Email(email),
		Password: password,
		Remember: remember,
	}

	var resp loginResponse
	if err := c.gw.DoPublicJSON(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}

	store := c.gw.Store()
	if err := store.SetLoginToken(ctx, resp.AccessToken, remember); err != nil {
		return "", fmt.Errorf("storing access token: %w", err)
	}
	store.SetRole(resp.Role)

	c.logger.InfoContext(ctx, "logged in", "role", resp.Role, "remember", remember)
	return resp.Role, nil
}

// Logout tells the backend to invalidate the refresh credential and clears
// local auth state. The network call is best-effort: local state is cleared
// even when it fails.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.gw.DoPublicJSON(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		c.logger.WarnContext(ctx, "logout request failed, clearing local state anyway", "error", err)
	}

	if err := c.gw.Store().Clear(ctx); err != nil {
		return fmt.Errorf("clearing auth state: %w", err)
	}
	return nil
}

// Role returns the cached authorization role from the last login.
func (c *Client) Role() string {
	return c.gw.Store().Role()
}

// Needs lists all needs.
func (c *Client) Needs(ctx context.Context) ([]Need, error) {
	var needs []Need
	if err := c.gw.DoJSON(ctx, http.MethodGet, "/needs", nil, &needs); err != nil {
		return nil, err
	}
	return needs, nil
}

// CreateNeed creates a need and returns it with its assigned ID.
func (c *Client) CreateNeed(ctx context.Context, need Need) (Need, error) {
	var created Need
	if err := c.gw.DoJSON(ctx, http.MethodPost, "/needs", need, &created); err != nil {
		return Need{}, err
	}
	return created, nil
}

// UpdateNeed replaces the need with the given ID.
func (c *Client) UpdateNeed(ctx context.Context, need Need) error {
	return c.gw.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/needs/%d", need.ID), need, nil)
}

// DeleteNeed removes the need with the given ID.
func (c *Client) DeleteNeed(ctx context.Context, id int64) error {
	return c.gw.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/needs/%d", id), nil, nil)
}

// Pages lists all CMS pages.
func (c *Client) Pages(ctx context.Context) ([]Page, error) {
	var pages []Page
	if err := c.gw.DoJSON(ctx, http.MethodGet, "/pages", nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// UpdatePage replaces the page with the given ID. Pages cannot be created or
// deleted from the client.
func (c *Client) UpdatePage(ctx context.Context, page Page) error {
	return c.gw.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/pages/%d", page.ID), page, nil)
}

// Statuses lists all workflow statuses.
func (c *Client) Statuses(ctx context.Context) ([]Status, error) {
	var statuses []Status
	if err := c.gw.DoJSON(ctx, http.MethodGet, "/statuses", nil, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// CreateStatus creates a status and returns it with its assigned ID.
func (c *Client) CreateStatus(ctx context.Context, status Status) (Status, error) {
	var created Status
	if err := c.gw.DoJSON(ctx, http.MethodPost, "/statuses", status, &created); err != nil {
		return Status{}, err
	}
	return created, nil
}

// UpdateStatus replaces the status with the given ID.
func (c *Client) UpdateStatus(ctx context.Context, status Status) error {
	return c.gw.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/statuses/%d", status.ID), status, nil)
}

// DeleteStatus removes the status with the given ID.
func (c *Client) DeleteStatus(ctx context.Context, id int64) error {
	return c.gw.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/statuses/%d", id), nil, nil)
}

// Colors lists all display colors.
func (c *Client) Colors(ctx context.Context) ([]Color, error) {
	var colors []Color
	if err := c.gw.DoJSON(ctx, http.MethodGet, "/colors", nil, &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// CreateColor creates a color and returns it with its assigned ID.
func (c *Client) CreateColor(ctx context.Context, color Color) (Color, error) {
	var created Color
	if err := c.gw.DoJSON(ctx, http.MethodPost, "/colors", color, &created); err != nil {
		return Color{}, err
	}
	return created, nil
}

// UpdateColor replaces the color with the given ID.
func (c *Client) UpdateColor(ctx context.Context, color Color) error {
	return c.gw.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/colors/%d", color.ID), color, nil)
}

// DeleteColor removes the color with the given ID.
func (c *Client) DeleteColor(ctx context.Context, id int64) error {
	return c.gw.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/colors/%d", id), nil, nil)
}

// Orders lists all donation orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.gw.DoJSON(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder replaces the order with the given ID. Orders are created by the
// public site, never from the dashboard.
func (c *Client) UpdateOrder(ctx context.Context, order Order) error {
	return c.gw.DoJSON(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), order, nil)
}

// DeleteOrder removes the order with the given ID.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.gw.DoJSON(ctx, http.MethodDelete, fmt.Sprintf("/orders/%d", id), nil, nil)
}
