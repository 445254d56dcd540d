package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for pricing a swap against a live pool.
type QuoteConfig struct {
	RPCURL       string
	Pool         string
	AssetIn      string
	AssetOut     string
	Amount       string
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		RPCURL:       v.GetString("rpc"),
		Pool:         v.GetString("pool"),
		AssetIn:      v.GetString("asset-in"),
		AssetOut:     v.GetString("asset-out"),
		Amount:       v.GetString("amount"),
		Block:        v.GetUint64("block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
