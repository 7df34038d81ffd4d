// Package config provides configuration loading for reportd.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Auth   AuthConfig   `koanf:"auth"`
	Mail   MailConfig   `koanf:"mail"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	BaseURL         string   `koanf:"base_url"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// StoreConfig controls the MongoDB connection.
type StoreConfig struct {
	URI            Secret   `koanf:"uri"`
	Database       string   `koanf:"database"`
	ConnectTimeout Duration `koanf:"connect_timeout"`
	RetryInterval  Duration `koanf:"retry_interval"`
}

// AuthConfig controls token signing and the Google OAuth client.
type AuthConfig struct {
	TokenSecret        Secret `koanf:"token_secret"`
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret Secret `koanf:"google_client_secret"`
	GoogleRedirectURL  string `koanf:"google_redirect_url"`
	ExposeResetLinks   bool   `koanf:"expose_reset_links"`
}

// MailConfig controls the SMTP sender for password reset mail.
// Leave Host empty to disable outgoing mail.
type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password Secret `koanf:"password"`
	From     string `koanf:"from"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if !cfg.Store.URI.IsSet() {
		cfg.Store.URI = "mongodb://localhost:27017"
	}
	if cfg.Store.Database == "" {
		cfg.Store.Database = "reportd"
	}
	if cfg.Store.ConnectTimeout == 0 {
		cfg.Store.ConnectTimeout = Duration(10 * time.Second)
	}
	if cfg.Store.RetryInterval == 0 {
		cfg.Store.RetryInterval = Duration(5 * time.Second)
	}

	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if !c.Auth.TokenSecret.IsSet() {
		return errors.New("auth token_secret is required")
	}
	if len(c.Auth.TokenSecret.Value()) < 16 {
		return errors.New("auth token_secret must be at least 16 characters")
	}

	googleSet := 0
	if c.Auth.GoogleClientID != "" {
		googleSet++
	}
	if c.Auth.GoogleClientSecret.IsSet() {
		googleSet++
	}
	if c.Auth.GoogleRedirectURL != "" {
		googleSet++
	}
	if googleSet != 0 && googleSet != 3 {
		return errors.New("google oauth needs client id, client secret and redirect url together")
	}

	if c.Mail.Host != "" && c.Mail.From == "" {
		return errors.New("mail from address is required when mail host is set")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
