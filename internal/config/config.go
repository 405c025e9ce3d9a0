// Package config loads casinod settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

const EnvPrefix = "CASINO_"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	NATS   NATSConfig   `yaml:"nats"`
	Ledger LedgerConfig `yaml:"ledger"`
	Scan   ScanConfig   `yaml:"scan"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite badger memory"`
	Path   string `yaml:"path" validate:"required_unless=Driver memory"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

type NATSConfig struct {
	URL           string `yaml:"url" validate:"omitempty,url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Enabled reports whether audit entries are published to NATS.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

type LedgerConfig struct {
	// OpeningBalances seeds the in-process ledger, account -> decimal amount.
	OpeningBalances map[string]string `yaml:"opening_balances" validate:"dive,keys,required,endkeys,numeric"`
	MaxRetries      uint64            `yaml:"max_retries"`
	RetryBase       time.Duration     `yaml:"retry_base" validate:"gte=0"`
	RetryMax        time.Duration     `yaml:"retry_max" validate:"gte=0"`
}

// Balances parses the opening balances.
func (l LedgerConfig) Balances() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(l.OpeningBalances))
	for account, raw := range l.OpeningBalances {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("opening balance for %s: %w", account, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("opening balance for %s is negative", account)
		}
		out[account] = amount
	}
	return out, nil
}

type ScanConfig struct {
	Workers   int    `yaml:"workers" validate:"gte=0"`
	BatchSize uint64 `yaml:"batch_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{Driver: "sqlite", Path: "casino.db"},
		Log:   LogConfig{Level: "info"},
		NATS:  NATSConfig{SubjectPrefix: "casino.audit"},
		Ledger: LedgerConfig{
			MaxRetries: 3,
			RetryBase:  50 * time.Millisecond,
			RetryMax:   2 * time.Second,
		},
	}
}

// Load reads path over the defaults, applies CASINO_* overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}
	if _, err := cfg.Ledger.Balances(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	set("ADDR", &cfg.Server.Addr)
	set("STORE_DRIVER", &cfg.Store.Driver)
	set("STORE_PATH", &cfg.Store.Path)
	set("LOG_LEVEL", &cfg.Log.Level)
	set("NATS_URL", &cfg.NATS.URL)
}
