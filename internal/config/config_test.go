package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "0123456789abcdef0123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI.Value())
	assert.Equal(t, "reportd", cfg.Store.Database)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
store:
  database: qa_reports
auth:
  token_secret: 0123456789abcdef0123
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides yaml")
	assert.Equal(t, "qa_reports", cfg.Store.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Auth.TokenSecret = "0123456789abcdef0123"
		applyDefaults(cfg)
		return cfg
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing token secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.TokenSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("short token secret", func(t *testing.T) {
		cfg := base()
		cfg.Auth.TokenSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("partial google config", func(t *testing.T) {
		cfg := base()
		cfg.Auth.GoogleClientID = "client-id"
		assert.Error(t, cfg.Validate())
	})

	t.Run("full google config", func(t *testing.T) {
		cfg := base()
		cfg.Auth.GoogleClientID = "client-id"
		cfg.Auth.GoogleClientSecret = "client-secret"
		cfg.Auth.GoogleRedirectURL = "http://localhost:8080/api/auth/google/callback"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("mail host without from", func(t *testing.T) {
		cfg := base()
		cfg.Mail.Host = "smtp.example.com"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.Log.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2hunter2hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2hunter2hunter2", s.Value())

	out, err := json.Marshal(struct {
		URI Secret `json:"uri"`
	}{URI: s})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
