// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name below.
const EnvPrefix = "RAVERIFY_"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"raverify.db"`
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"https://retroachievements.org/API/"`
	MediaBaseURL   string        `env:"MEDIA_BASE_URL" envDefault:"https://media.retroachievements.org"`
	PublicURL      string        `env:"PUBLIC_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	BackoffBase    time.Duration `env:"BACKOFF_BASE" envDefault:"200ms"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	ItemInterval   time.Duration `env:"ITEM_INTERVAL" envDefault:"1s"`
	LogLevel       slog.Level    `env:"LOG_LEVEL" envDefault:"info"`

	// SecretKeyHex is the raw RAVERIFY_SECRET_KEY value; SecretKey holds the
	// decoded 32-byte AES-256 key, or nil when the variable is absent.
	SecretKeyHex string `env:"SECRET_KEY"`
	SecretKey    []byte `env:"-"`
}

// HasSecretKey reports whether credential persistence is available.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != nil
}

// Load reads configuration from RAVERIFY_* environment variables and returns
// a validated Config. Every variable is optional. Without RAVERIFY_SECRET_KEY
// the credential is never persisted and is asked for on every run.
// RAVERIFY_PUBLIC_URL defaults to the listen address.
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if cfg.SecretKeyHex != "" {
		key, err := hex.DecodeString(cfg.SecretKeyHex)
		if err != nil {
			return nil, fmt.Errorf("%sSECRET_KEY must be hex-encoded: %w", EnvPrefix, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%sSECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", EnvPrefix, len(key))
		}
		cfg.SecretKey = key
	}

	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("%sMAX_ATTEMPTS must be at least 1, got %d", EnvPrefix, cfg.MaxAttempts)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("%sREQUEST_TIMEOUT must be positive, got %s", EnvPrefix, cfg.RequestTimeout)
	}
	if cfg.BackoffBase < 0 || cfg.ItemInterval < 0 {
		return nil, fmt.Errorf("%sBACKOFF_BASE and %sITEM_INTERVAL must not be negative", EnvPrefix, EnvPrefix)
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.ListenAddr + "/"
	}
	for name, raw := range map[string]string{
		"API_BASE_URL":   cfg.APIBaseURL,
		"MEDIA_BASE_URL": cfg.MediaBaseURL,
		"PUBLIC_URL":     cfg.PublicURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%s%s must be an absolute URL, got %q", EnvPrefix, name, raw)
		}
	}

	return &cfg, nil
}
