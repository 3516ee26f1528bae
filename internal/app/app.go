// Package app wires configuration into the client stack: scoped token store,
// refresh-coordinating gateway, and the typed API client.
package app

import (
	"fmt"
	"log/slog"

	"github.com/hllvc/dashctl/internal/api"
	"github.com/hllvc/dashctl/internal/gateway"
	"github.com/hllvc/dashctl/internal/tokenstore"
)

// App holds the assembled client components used by the CLI commands.
type App struct {
	cfg *Config

	Store   *tokenstore.Scoped
	Gateway *gateway.Gateway
	Client  *api.Client
}

// New creates an App from validated configuration. No I/O is performed until
// the first request.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewScopedStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	logger := slog.Default()

	gw, err := gateway.New(cfg.API.BaseURL, store,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithRefreshWaitTimeout(cfg.API.RefreshWait),
		gateway.WithExpiryLeeway(cfg.API.TokenLeeway),
		gateway.WithLoginRequiredHook(func() {
			// The CLI cannot navigate anywhere; the closest thing to the
			// dashboard's login redirect is telling the user what to run.
			logger.Warn("authentication required, run `dashctl login`")
		}),
		gateway.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	client, err := api.NewClient(gw, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &App{
		cfg:     cfg,
		Store:   store,
		Gateway: gw,
		Client:  client,
	}, nil
}
