// Package config loads runtime configuration from the environment, an
// optional .env file and an optional YAML token list.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the analyzer and its binaries.
type Config struct {
	// Upstreams
	RPCURL        string        `env:"SOLANA_RPC_URL" envDefault:"https://api.mainnet-beta.solana.com"`
	WSURL         string        `env:"SOLANA_WS_URL"`
	RPCTimeout    time.Duration `env:"RPC_TIMEOUT" envDefault:"30s"`
	RPCMaxRetries int           `env:"RPC_MAX_RETRIES" envDefault:"3"`
	PriceAPIURL   string        `env:"PRICE_API_URL" envDefault:"https://api.dexscreener.com"`

	// Optional archive
	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickHouseDSN string `env:"CLICKHOUSE_DSN"`

	// Analysis budget
	AnalysisTimeout    time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"25s"`
	PageSize           int           `env:"PAGE_SIZE" envDefault:"1000"`
	MaxSignatures      int           `env:"MAX_SIGNATURES" envDefault:"5000"`
	PageDelay          time.Duration `env:"PAGE_DELAY" envDefault:"100ms"`
	PageDeadlineMargin time.Duration `env:"PAGE_DEADLINE_MARGIN" envDefault:"5s"`
	TxBatchSize        int           `env:"TX_BATCH_SIZE" envDefault:"25"`
	MetaBatchSize      int           `env:"META_BATCH_SIZE" envDefault:"10"`
	BatchDelay         time.Duration `env:"BATCH_DELAY" envDefault:"100ms"`

	// Positions
	PositionFloorUSD     float64 `env:"POSITION_FLOOR_USD" envDefault:"1"`
	PositionDisplayLimit int     `env:"POSITION_DISPLAY_LIMIT" envDefault:"20"`

	// Caches
	MetadataCacheTTL time.Duration `env:"METADATA_CACHE_TTL" envDefault:"1h"`
	PriceCacheTTL    time.Duration `env:"PRICE_CACHE_TTL" envDefault:"60s"`

	// Binaries
	MetricsAddr   string        `env:"METRICS_ADDR" envDefault:":9090"`
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"10s"`
	TokensFile    string        `env:"TOKENS_FILE"`
}

// Load reads envFile (".env" when empty) if it exists, then parses the
// environment. A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return parse(env.Options{})
}

// FromMap parses configuration from vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the analyzer cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	positive := []struct {
		name  string
		value int
	}{
		{"PAGE_SIZE", c.PageSize},
		{"MAX_SIGNATURES", c.MaxSignatures},
		{"TX_BATCH_SIZE", c.TxBatchSize},
		{"META_BATCH_SIZE", c.MetaBatchSize},
		{"POSITION_DISPLAY_LIMIT", c.PositionDisplayLimit},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must not exceed 1000, got %d", c.PageSize))
	}
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ANALYSIS_TIMEOUT must be positive, got %s", c.AnalysisTimeout))
	}
	if c.PageDeadlineMargin >= c.AnalysisTimeout {
		errs = append(errs, fmt.Errorf("PAGE_DEADLINE_MARGIN (%s) must be less than ANALYSIS_TIMEOUT (%s)", c.PageDeadlineMargin, c.AnalysisTimeout))
	}
	if c.PositionFloorUSD < 0 {
		errs = append(errs, fmt.Errorf("POSITION_FLOOR_USD must not be negative, got %g", c.PositionFloorUSD))
	}
	return errors.Join(errs...)
}
