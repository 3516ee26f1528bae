package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hllvc/dashctl/internal/app"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, func() []string { return nil })
	require.NoError(t, err)

	assert.Equal(t, app.DefaultConfigBaseURL, cfg.API.BaseURL)
	assert.Equal(t, app.DefaultConfigLogFormat, cfg.LogFormat)
	assert.Equal(t, app.TokenStorageTypeFile, cfg.Auth.Storage)
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"
log_format = "json"

[api]
base_url = "https://dashboard.example.org/api"
timeout = "10s"

[auth]
storage = "session"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	cfg, err := loadConfig(configPath, nil, func() []string { return nil })
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, app.LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, "https://dashboard.example.org/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, app.TokenStorageTypeSession, cfg.Auth.Storage)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://from-file.example.org"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	environ := func() []string {
		return []string{
			"DASHCTL_API__BASE_URL=https://from-env.example.org",
			"DASHCTL_AUTH__STORAGE=session",
		}
	}

	cfg, err := loadConfig(configPath, nil, environ)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.org", cfg.API.BaseURL)
	assert.Equal(t, app.TokenStorageTypeSession, cfg.Auth.Storage)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	environ := func() []string {
		return []string{"DASHCTL_AUTH__STORAGE=redis"}
	}

	_, err := loadConfig("", nil, environ)
	assert.ErrorContains(t, err, "invalid config")
}
