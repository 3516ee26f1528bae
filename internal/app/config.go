package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hllvc/dashctl/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTel LogFormat = "otel"
)

// LogExporter selects where OTel-formatted logs are shipped.
type LogExporter string

const (
	LogExporterStdout   LogExporter = "stdout"
	LogExporterOTLPHTTP LogExporter = "otlp-http"
	LogExporterOTLPGRPC LogExporter = "otlp-grpc"
)

// TokenStorageType represents the persistent-scope backends for access tokens.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeSession TokenStorageType = "session"
)

// Default configuration values
const (
	DefaultConfigLogFormat   = LogFormatText
	DefaultConfigLogExporter = LogExporterStdout
	DefaultConfigBaseURL     = "http://127.0.0.1:8000/api"
	DefaultConfigTimeout     = 30 * time.Second
	DefaultConfigRefreshWait = 30 * time.Second
	DefaultConfigTokenLeeway = 30 * time.Second
	DefaultConfigAuthStorage = TokenStorageTypeFile
)

// APIConfig holds backend connection configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`

	// Timeout bounds individual HTTP requests.
	Timeout time.Duration `json:"timeout"`

	// RefreshWait bounds how long a request waits for a shared token refresh.
	RefreshWait time.Duration `json:"refresh_wait"`

	// TokenLeeway is how close to expiry a token may get before a pre-emptive
	// refresh.
	TokenLeeway time.Duration `json:"token_leeway"`
}

// AuthConfig describes where the persistent-scope access token lives.
// The session scope is always in-memory.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file keyring env session"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewScopedStore creates the two-scope token store from the authentication
// configuration. The env backend is read-only and only suits short-lived
// static tokens (refresh write-back will fail and surface as an error).
func (a *AuthConfig) NewScopedStore() (*tokenstore.Scoped, error) {
	var (
		persistent tokenstore.TokenStore
		err        error
	)

	switch a.Storage {
	case TokenStorageTypeFile:
		persistent, err = tokenstore.NewFileStore(a.File)
	case TokenStorageTypeKeyring:
		persistent, err = tokenstore.NewKeyringStore("dashctl-token", a.KeyringUser)
	case TokenStorageTypeEnv:
		persistent, err = tokenstore.NewEnvStore(a.EnvKey)
	case TokenStorageTypeSession:
		// "Remember me" has nowhere to live; everything is session-scoped.
		persistent = tokenstore.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
	if err != nil {
		return nil, err
	}

	return tokenstore.NewScoped(persistent, tokenstore.NewMemoryStore())
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level  `json:"log_level"`
	LogFormat   LogFormat   `json:"log_format" validate:"oneof=text json otel"`
	LogExporter LogExporter `json:"log_exporter" validate:"omitempty,oneof=stdout otlp-http otlp-grpc"`
	API         APIConfig   `json:"api"`
	Auth        AuthConfig  `json:"auth"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.LogExporter == "" {
		c.LogExporter = DefaultConfigLogExporter
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigTimeout
	}
	if c.API.RefreshWait == 0 {
		c.API.RefreshWait = DefaultConfigRefreshWait
	}
	if c.API.TokenLeeway == 0 {
		c.API.TokenLeeway = DefaultConfigTokenLeeway
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "dashctl", "token")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv:
		// env_key must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Auth.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}
