// Package config provides environment-driven configuration for the service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the full application configuration. Everything external (API
// credentials, file locations, timeouts, the active policy) is injected from
// here; components hold no process-wide state of their own.
type Config struct {
	Port      int    `envconfig:"PORT" default:"8001"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	Binance struct {
		APIKey     string        `envconfig:"BINANCE_API_KEY" required:"true"`
		SecretKey  string        `envconfig:"BINANCE_API_SECRET" required:"true"`
		UseTestnet bool          `envconfig:"BINANCE_USE_TESTNET" default:"true"`
		Timeout    time.Duration `envconfig:"BINANCE_TIMEOUT" default:"10s"`
	}

	CoinGecko struct {
		BaseURL string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
		Timeout time.Duration `envconfig:"COINGECKO_TIMEOUT" default:"10s"`
	}

	Trading struct {
		// PolicyName selects the active policy document, matching the
		// policy_<name>.json files under PolicyDir.
		PolicyName string `envconfig:"TRADING_STRATEGY" default:"aggressive"`
		PolicyDir  string `envconfig:"POLICY_DIR" default:"configs/policies"`

		// QuotePairSuffix is appended to asset symbols to form exchange
		// trading pairs (btc -> BTCUSDT).
		QuotePairSuffix string `envconfig:"QUOTE_PAIR_SUFFIX" default:"USDT"`

		// StableAsset is the USD-pegged reference asset priced at exactly 1.0
		// during valuation.
		StableAsset string `envconfig:"STABLE_ASSET" default:"USDT"`

		TradeLogPath string `envconfig:"TRADE_LOG_PATH" default:"data/trade_log.txt"`
	}

	// KnownAssets maps exchange asset symbols to their CoinGecko coin IDs.
	// Balances outside this set are ignored during valuation.
	KnownAssets map[string]string `envconfig:"KNOWN_ASSETS" default:"BTC:bitcoin,ETH:ethereum,SOL:solana,BNB:binancecoin,XRP:ripple,ADA:cardano,DOGE:dogecoin,USDT:tether"`
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration consistency beyond what struct tags cover.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	if c.Trading.QuotePairSuffix == "" {
		return fmt.Errorf("QUOTE_PAIR_SUFFIX must not be empty")
	}

	if c.Trading.PolicyName == "" {
		return fmt.Errorf("TRADING_STRATEGY must not be empty")
	}

	if len(c.KnownAssets) == 0 {
		return fmt.Errorf("KNOWN_ASSETS must list at least one asset")
	}

	stable := strings.ToUpper(c.Trading.StableAsset)
	found := false
	for symbol := range c.KnownAssets {
		if strings.ToUpper(symbol) == stable {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("STABLE_ASSET %q must appear in KNOWN_ASSETS", c.Trading.StableAsset)
	}

	return nil
}
