// Package config loads the storefront client configuration: the backend
// origin and the page-injected registry of badge count endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Env var overriding the configured backend URL.
const envBackendURL = "STOREFRONT_BACKEND_URL"

// Config is the resolved client configuration.
type Config struct {
	BackendURL  string
	Badges      map[string]string
	ToastTTL    time.Duration
	HTTPTimeout time.Duration
}

type fileConfig struct {
	BackendURL  string            `yaml:"backend_url"`
	Badges      map[string]string `yaml:"badge_endpoints"`
	ToastTTL    string            `yaml:"toast_ttl"`
	HTTPTimeout string            `yaml:"http_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BackendURL: "http://localhost:8080",
		Badges: map[string]string{
			"cart":     "/orders/cart-count/",
			"wishlist": "/products/wishlist-count/",
		},
		ToastTTL:    5 * time.Second,
		HTTPTimeout: 8 * time.Second,
	}
}

// Load reads a YAML config file and applies environment overrides. An empty
// path yields the defaults (still subject to the env override).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
		if fc.BackendURL != "" {
			cfg.BackendURL = fc.BackendURL
		}
		if len(fc.Badges) > 0 {
			cfg.Badges = fc.Badges
		}
		if fc.ToastTTL != "" {
			d, err := time.ParseDuration(fc.ToastTTL)
			if err != nil {
				return Config{}, fmt.Errorf("config: toast_ttl: %w", err)
			}
			cfg.ToastTTL = d
		}
		if fc.HTTPTimeout != "" {
			d, err := time.ParseDuration(fc.HTTPTimeout)
			if err != nil {
				return Config{}, fmt.Errorf("config: http_timeout: %w", err)
			}
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv(envBackendURL); v != "" {
		cfg.BackendURL = v
	}
	return cfg, nil
}
