package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/deck-budget/internal/pricesource"
	"github.com/ramonehamilton/deck-budget/internal/pricing"
	"github.com/ramonehamilton/deck-budget/internal/scryfall"
)

// DirName is the per-user directory holding the config file and databases.
const DirName = ".deck-budget"

// Config represents the application configuration.
type Config struct {
	// Pricing configuration
	Pricing PricingConfig `toml:"pricing"`

	// Price cache and run history configuration
	Cache CacheConfig `toml:"cache"`

	// HTTP API configuration
	Server ServerConfig `toml:"server"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// PricingConfig contains pricing settings.
type PricingConfig struct {
	Mode            string   `toml:"mode"`             // cheapest-ever or market-trend
	Currency        string   `toml:"currency"`         // eur or usd
	Threshold       string   `toml:"threshold"`        // Budget ceiling for commander + deck
	CheckLegality   bool     `toml:"check_legality"`   // Compare deck total to threshold
	MinInterval     string   `toml:"min_interval"`     // Minimum time between lookups (e.g., "100ms")
	ExtendedHeaders bool     `toml:"extended_headers"` // Accept card type headers
	BasicLands      []string `toml:"basic_lands"`      // Names merged by summing quantities
	APIURL          string   `toml:"api_url"`          // Scryfall API base URL
}

// CacheConfig contains price cache settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"` // Enable the price cache
	TTL     string `toml:"ttl"`     // Cache TTL (e.g., "24h")
	Path    string `toml:"path"`    // Database path (empty = default location)
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Pricing: PricingConfig{
			Mode:            string(pricing.ModeCheapestEver),
			Currency:        string(pricesource.EUR),
			Threshold:       "100.00",
			CheckLegality:   true,
			MinInterval:     "100ms",
			ExtendedHeaders: false,
			BasicLands:      append([]string(nil), pricing.DefaultBasicLands...),
			APIURL:          scryfall.DefaultBaseURL,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "24h",
			Path:    "",
		},
		Server: ServerConfig{
			Port:           8550,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the per-user configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Path returns the path to the configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. Returns default config if the
// file doesn't exist. Keys missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := pricing.ParseMode(c.Pricing.Mode); err != nil {
		return err
	}

	if _, err := pricesource.ParseCurrency(c.Pricing.Currency); err != nil {
		return err
	}

	threshold, err := decimal.NewFromString(c.Pricing.Threshold)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", c.Pricing.Threshold, err)
	}
	if threshold.IsNegative() {
		return fmt.Errorf("threshold cannot be negative: %s", c.Pricing.Threshold)
	}

	interval, err := time.ParseDuration(c.Pricing.MinInterval)
	if err != nil {
		return fmt.Errorf("invalid min interval %q: %w", c.Pricing.MinInterval, err)
	}
	if interval < 0 {
		return fmt.Errorf("min interval cannot be negative: %s", c.Pricing.MinInterval)
	}

	for _, name := range c.Pricing.BasicLands {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("basic land names cannot be empty")
		}
	}

	if c.Pricing.APIURL != "" {
		if u, err := url.Parse(c.Pricing.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api url %q", c.Pricing.APIURL)
		}
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	return nil
}

// GetMode returns the pricing mode.
func (c *Config) GetMode() (pricing.Mode, error) {
	return pricing.ParseMode(c.Pricing.Mode)
}

// GetCurrency returns the price currency.
func (c *Config) GetCurrency() (pricesource.Currency, error) {
	return pricesource.ParseCurrency(c.Pricing.Currency)
}

// GetThreshold returns the budget ceiling.
func (c *Config) GetThreshold() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Pricing.Threshold)
}

// GetMinInterval returns the minimum time between lookups.
func (c *Config) GetMinInterval() (time.Duration, error) {
	return time.ParseDuration(c.Pricing.MinInterval)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetCachePath returns the database path, defaulting to prices.db in the
// configuration directory.
func (c *Config) GetCachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prices.db"), nil
}
