package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/allisson/go-env"
)

// ClientConfig holds the configuration of the client commands. It is read from an
// optional TOML profile and FILEVAULT_* environment variables override each key.
type ClientConfig struct {
	// APIURL is the base URL of the file API (e.g., "http://localhost:8080/api").
	APIURL string `toml:"api_url"`
	// CustodianURL is the base URL of the key custodian service.
	CustodianURL string `toml:"custodian_url"`
	// ShareOrigin is the public origin share-link URLs are built from.
	ShareOrigin string `toml:"share_origin"`

	// StatePath is the sqlite file holding session tokens and the pending-operations journal.
	StatePath string `toml:"state_path"`

	// RefreshGuardSeconds is how long before expiry an access token is refreshed.
	RefreshGuardSeconds int `toml:"refresh_guard_seconds"`

	// KeyStoreAttempts is the number of attempts to store a key with the custodian.
	KeyStoreAttempts int `toml:"key_store_attempts"`
	// KeyStoreBackoffMs is the pause between key store attempts.
	KeyStoreBackoffMs int `toml:"key_store_backoff_ms"`

	// HTTPTimeoutSeconds bounds every request made by the client transport.
	HTTPTimeoutSeconds int `toml:"http_timeout_seconds"`
	// HTTPMaxRetries is the retry count for idempotent requests.
	HTTPMaxRetries int `toml:"http_max_retries"`

	// ReconcileBatchSize is the number of journal entries processed per batch.
	ReconcileBatchSize int `toml:"reconcile_batch_size"`
	// ReconcileMaxAttempts is the number of attempts before an entry is marked failed.
	ReconcileMaxAttempts int `toml:"reconcile_max_attempts"`

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`
}

// DefaultClientConfig returns the client configuration used when no profile exists.
func DefaultClientConfig() *ClientConfig {
	stateDir := defaultClientDir()
	return &ClientConfig{
		APIURL:               "http://localhost:8080/api",
		CustodianURL:         "http://localhost:9000",
		ShareOrigin:          "http://localhost:8080",
		StatePath:            filepath.Join(stateDir, "state.db"),
		RefreshGuardSeconds:  30,
		KeyStoreAttempts:     2,
		KeyStoreBackoffMs:    500,
		HTTPTimeoutSeconds:   30,
		HTTPMaxRetries:       3,
		ReconcileBatchSize:   50,
		ReconcileMaxAttempts: 5,
		LogLevel:             "warn",
	}
}

// DefaultClientConfigPath returns $HOME/.config/filevault/client.toml.
func DefaultClientConfigPath() string {
	return filepath.Join(defaultClientDir(), "client.toml")
}

// LoadClient reads the profile at path, if present, then applies environment overrides.
// An empty path selects DefaultClientConfigPath.
func LoadClient(path string) (*ClientConfig, error) {
	if path == "" {
		path = DefaultClientConfigPath()
	}

	cfg := DefaultClientConfig()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer func() {
			_ = f.Close()
		}()
		if err := cfg.Read(f); err != nil {
			return nil, fmt.Errorf("reading client config from %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open client config file: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Read decodes a TOML profile on top of the current values.
func (c *ClientConfig) Read(r io.Reader) error {
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return fmt.Errorf("failed to decode client config: %w", err)
	}
	return nil
}

// Write encodes the configuration as TOML.
func (c *ClientConfig) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode client config: %w", err)
	}
	return nil
}

// RefreshGuard returns the refresh guard window.
func (c *ClientConfig) RefreshGuard() time.Duration {
	return time.Duration(c.RefreshGuardSeconds) * time.Second
}

// KeyStoreBackoff returns the pause between key store attempts.
func (c *ClientConfig) KeyStoreBackoff() time.Duration {
	return time.Duration(c.KeyStoreBackoffMs) * time.Millisecond
}

// HTTPTimeout returns the per-request timeout.
func (c *ClientConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *ClientConfig) applyEnv() {
	c.APIURL = env.GetString("FILEVAULT_API_URL", c.APIURL)
	c.CustodianURL = env.GetString("FILEVAULT_CUSTODIAN_URL", c.CustodianURL)
	c.ShareOrigin = env.GetString("FILEVAULT_SHARE_ORIGIN", c.ShareOrigin)
	c.StatePath = env.GetString("FILEVAULT_STATE_PATH", c.StatePath)
	c.RefreshGuardSeconds = env.GetInt("FILEVAULT_REFRESH_GUARD_SECONDS", c.RefreshGuardSeconds)
	c.KeyStoreAttempts = env.GetInt("FILEVAULT_KEY_STORE_ATTEMPTS", c.KeyStoreAttempts)
	c.KeyStoreBackoffMs = env.GetInt("FILEVAULT_KEY_STORE_BACKOFF_MS", c.KeyStoreBackoffMs)
	c.HTTPTimeoutSeconds = env.GetInt("FILEVAULT_HTTP_TIMEOUT_SECONDS", c.HTTPTimeoutSeconds)
	c.HTTPMaxRetries = env.GetInt("FILEVAULT_HTTP_MAX_RETRIES", c.HTTPMaxRetries)
	c.ReconcileBatchSize = env.GetInt("FILEVAULT_RECONCILE_BATCH_SIZE", c.ReconcileBatchSize)
	c.ReconcileMaxAttempts = env.GetInt("FILEVAULT_RECONCILE_MAX_ATTEMPTS", c.ReconcileMaxAttempts)
	c.LogLevel = env.GetString("FILEVAULT_LOG_LEVEL", c.LogLevel)
}

// normalize enforces the floors the client relies on: the key store always gets at least
// one retry.
func (c *ClientConfig) normalize() {
	if c.KeyStoreAttempts < 2 {
		c.KeyStoreAttempts = 2
	}
	if c.RefreshGuardSeconds < 0 {
		c.RefreshGuardSeconds = 0
	}
	if c.HTTPMaxRetries < 0 {
		c.HTTPMaxRetries = 0
	}
	if c.ReconcileBatchSize <= 0 {
		c.ReconcileBatchSize = 50
	}
	if c.ReconcileMaxAttempts <= 0 {
		c.ReconcileMaxAttempts = 5
	}
}

func defaultClientDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".filevault")
	}
	return filepath.Join(home, ".config", "filevault")
}
