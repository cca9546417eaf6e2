// Package config loads service settings with koanf: built-in defaults, then
// an optional YAML file, then LAUNDRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/pricing"
)

const (
	EnvPrefix     = "LAUNDRY_"
	EnvConfigPath = "LAUNDRY_CONFIG"
	defaultFile   = "config.yaml"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App struct {
		Name string `koanf:"name"`
		Env  string `koanf:"env"`
	} `koanf:"app"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		MaxFormBytes    int64         `koanf:"max_form_bytes"`
	} `koanf:"http"`

	Log struct {
		Level string `koanf:"level"`
		File  struct {
			Path       string `koanf:"path"`
			MaxSizeMB  int    `koanf:"max_size_mb"`
			MaxBackups int    `koanf:"max_backups"`
			MaxAgeDays int    `koanf:"max_age_days"`
			Compress   bool   `koanf:"compress"`
		} `koanf:"file"`
	} `koanf:"log"`

	Tracing struct {
		Enabled     bool    `koanf:"enabled"`
		Endpoint    string  `koanf:"endpoint"`
		SampleRatio float64 `koanf:"sample_ratio"`
	} `koanf:"tracing"`

	Store struct {
		Driver       string `koanf:"driver"`
		CodeAttempts int    `koanf:"code_attempts"`
		SQLite       struct {
			Path string `koanf:"path"`
		} `koanf:"sqlite"`
		Postgres struct {
			URL string `koanf:"url"`
		} `koanf:"postgres"`
	} `koanf:"store"`

	Pricing struct {
		Currency string `koanf:"currency"`
		// UnitPrices is keyed by item type (shirt, trousers, suit, bedsheet).
		// Values are decimal strings so env overrides parse the same as YAML.
		UnitPrices map[string]string `koanf:"unit_prices"`
	} `koanf:"pricing"`

	Receipt struct {
		ShopName     string `koanf:"shop_name"`
		ContactPhone string `koanf:"contact_phone"`
		// TimeZone is an IANA name, "Local" or "UTC".
		TimeZone     string `koanf:"time_zone"`
	} `koanf:"receipt"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name": "laundry-service",
		"app.env":  "local",

		"http.addr":             ":8080",
		"http.read_timeout":     "10s",
		"http.write_timeout":    "15s",
		"http.idle_timeout":     "60s",
		"http.shutdown_timeout": "10s",
		"http.max_form_bytes":   1 << 20,

		"log.level":             "info",
		"log.file.max_size_mb":  50,
		"log.file.max_backups":  3,
		"log.file.max_age_days": 7,

		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.sample_ratio": 1.0,

		"store.driver":        DriverSQLite,
		"store.code_attempts": 3,
		"store.sqlite.path":   "laundry.db",

		"pricing.currency":             "KES",
		"pricing.unit_prices.shirt":    "50",
		"pricing.unit_prices.trousers": "70",
		"pricing.unit_prices.suit":     "150",
		"pricing.unit_prices.bedsheet": "100",

		"receipt.shop_name":     "TeamSafi Laundry",
		"receipt.contact_phone": "+254 700 123 456",
		"receipt.time_zone":     "Local",
	}
}

// ResolvePath returns the config file to load: $LAUNDRY_CONFIG when set,
// otherwise config.yaml if it exists in the working directory, otherwise "".
func ResolvePath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(defaultFile); err == nil {
		return defaultFile
	}
	return ""
}

// Load builds the configuration. An empty path skips the file layer; a
// non-empty path must exist.
//
// Environment variables use the LAUNDRY_ prefix and __ for nesting, e.g.
// LAUNDRY_STORE__DRIVER=postgres or LAUNDRY_PRICING__UNIT_PRICES__SHIRT=60.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr required"))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			errs = append(errs, errors.New("store.sqlite.path required"))
		}
	case DriverPostgres:
		if c.Store.Postgres.URL == "" {
			errs = append(errs, errors.New("store.postgres.url required"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.Store.CodeAttempts < 1 {
		errs = append(errs, errors.New("store.code_attempts must be at least 1"))
	}

	if c.Pricing.Currency == "" {
		errs = append(errs, errors.New("pricing.currency required"))
	}
	if _, err := c.PriceTable(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// PriceTable converts the configured unit prices into a pricing.PriceTable.
func (c Config) PriceTable() (pricing.PriceTable, error) {
	table := make(pricing.PriceTable, len(c.Pricing.UnitPrices))
	for key, raw := range c.Pricing.UnitPrices {
		t, ok := entity.ParseItemType(key)
		if !ok {
			return nil, fmt.Errorf("pricing.unit_prices: unknown item type %q", key)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("pricing.unit_prices.%s: %w", key, err)
		}
		table[t] = price
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Location resolves receipt.time_zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Receipt.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("receipt.time_zone: %w", err)
	}
	return loc, nil
}
