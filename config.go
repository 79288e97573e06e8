package siteadmin

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/content/remote"
)

// EnvPrefix is the prefix of every environment variable LoadConfig reads.
const EnvPrefix = "SITEADMIN_"

// Config holds all configuration for a site.
type Config struct {
	Name        string `koanf:"name"`        // Site name (default "Crown Heights Academy")
	URL         string `koanf:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `koanf:"description"` // Site description for RSS and meta tags

	Addr string `koanf:"addr"` // Listen address (default ":3000")

	AdminPassword string `koanf:"admin_password"` // Required: admin login and gallery password
	SessionSecret string `koanf:"session_secret"` // Required: session cookie secret
	CookieSecure  bool   `koanf:"cookie_secure"`  // Set true for HTTPS

	RemoteURL    string `koanf:"remote_url"`    // Redis URL; empty leaves the remote store unconfigured
	RemotePrefix string `koanf:"remote_prefix"` // Redis key prefix (default "crownheights")
	FallbackPath string `koanf:"fallback_path"` // SQLite path of the local fallback store (default "data/fallback.db")

	MaxUploadBytes int64         `koanf:"max_upload_bytes"` // Gallery image ceiling (default 1 MiB)
	CacheTTL       time.Duration `koanf:"cache_ttl"`        // Public page snapshot TTL (default 1m)
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Crown Heights Academy"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.RemotePrefix == "" {
		c.RemotePrefix = remote.DefaultPrefix
	}
	if c.FallbackPath == "" {
		c.FallbackPath = "data/fallback.db"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = content.DefaultMaxImageBytes
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Minute
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("admin_password is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session_secret is required"))
	}
	if c.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("max_upload_bytes must be non-negative"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads the optional YAML file at path, then overlays
// SITEADMIN_* environment variables, then fills defaults.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// SITEADMIN_ADMIN_PASSWORD -> admin_password
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithStores replaces the stores Init would open from the config.
// The caller keeps ownership of both.
func WithStores(remote, local content.Store) Option {
	return func(a *App) {
		a.remote = remote
		a.local = local
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir serves an extra directory of site assets under /static.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLoginLimit overrides the default of 5 failed logins per minute per IP.
func WithLoginLimit(max int, window time.Duration) Option {
	return func(a *App) {
		a.loginMax = max
		a.loginWindow = window
	}
}
