// Package app assembles the storefront from configuration.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "digistore/core/config"
	coredatabase "digistore/core/database"
)

// Storage backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
	StoreBackendFile     = "file"
)

// Checkout session backends.
const (
	CheckoutBackendMemory = "memory"
	CheckoutBackendRedis  = "redis"
)

// StoreConfig selects where users, orders, products and stock live.
type StoreConfig struct {
	Backend string `yaml:"backend" envconfig:"STORE_BACKEND"`
	// Path is the snapshot location for the "file" backend.
	Path string `yaml:"path" envconfig:"STORE_PATH"`
}

// PaymentConfig holds the manual payment rail details shown to buyers.
type PaymentConfig struct {
	UPIID string `yaml:"upi_id" envconfig:"PAYMENT_UPI_ID"`
}

// CheckoutConfig selects where in-flight checkout sessions live and how long
// an abandoned one survives. A TTL of zero keeps sessions until they finish.
type CheckoutConfig struct {
	Backend    string `yaml:"backend" envconfig:"CHECKOUT_BACKEND"`
	RedisAddr  string `yaml:"redis_addr" envconfig:"CHECKOUT_REDIS_ADDR"`
	TTLSeconds int    `yaml:"ttl_seconds" envconfig:"CHECKOUT_TTL_SECONDS"`
}

// Config is the full application configuration: the core Telegram settings
// plus the storefront's own sections.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Store    StoreConfig         `yaml:"store"`
	Payment  PaymentConfig       `yaml:"payment"`
	Checkout CheckoutConfig      `yaml:"checkout"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// LoadConfig reads YAML, applies environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeApp(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeApp(cfg *Config) error {
	sb := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if sb == "" {
		sb = StoreBackendPostgres
	}
	switch sb {
	case StoreBackendPostgres:
	case StoreBackendMemory:
	case StoreBackendFile:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return fmt.Errorf("store.path is required when store.backend is 'file'")
		}
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: postgres, memory, file", cfg.Store.Backend)
	}
	cfg.Store.Backend = sb

	if strings.TrimSpace(cfg.Payment.UPIID) == "" {
		return fmt.Errorf("payment.upi_id is required")
	}

	cb := strings.ToLower(strings.TrimSpace(cfg.Checkout.Backend))
	if cb == "" {
		cb = CheckoutBackendMemory
	}
	switch cb {
	case CheckoutBackendMemory:
	case CheckoutBackendRedis:
		if strings.TrimSpace(cfg.Checkout.RedisAddr) == "" {
			return fmt.Errorf("checkout.redis_addr is required when checkout.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid checkout.backend %q; allowed: memory, redis", cfg.Checkout.Backend)
	}
	cfg.Checkout.Backend = cb

	if cfg.Checkout.TTLSeconds < 0 {
		return fmt.Errorf("checkout.ttl_seconds must be >= 0")
	}
	return nil
}
