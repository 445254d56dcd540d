package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/liquidity"
)

const (
	envPrefix        = "DEX"
	DefaultStateFile = "./data/dex_state.json"
	maxDecimals      = 36
)

// Config holds simulator settings loaded from flags, env, or config file.
type Config struct {
	// StateFile is empty when the state lives in Postgres under StateName.
	StateFile     string
	StateName     string
	PGDSN         string
	EventsOut     string
	LogLevel      string
	Decimals      uint8
	LiquidityMode liquidity.Mode
	Rounding      arith.Rounding
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"state-name":     "default",
		"events-out":     "./data/events.jsonl",
		"log-level":      "info",
		"decimals":       6,
		"liquidity-mode": "shared",
		"rounding":       "down",
	})
	if err != nil {
		return Config{}, err
	}

	mode, err := liquidity.ParseMode(v.GetString("liquidity-mode"))
	if err != nil {
		return Config{}, err
	}
	rounding, err := arith.ParseRounding(v.GetString("rounding"))
	if err != nil {
		return Config{}, err
	}
	decimals := v.GetUint("decimals")
	if decimals > maxDecimals {
		return Config{}, fmt.Errorf("decimals out of range: %d", decimals)
	}

	cfg := Config{
		StateFile:     v.GetString("state-file"),
		StateName:     v.GetString("state-name"),
		PGDSN:         v.GetString("pg-dsn"),
		EventsOut:     v.GetString("events-out"),
		LogLevel:      v.GetString("log-level"),
		Decimals:      uint8(decimals),
		LiquidityMode: mode,
		Rounding:      rounding,
	}
	if cfg.StateFile == "" && cfg.PGDSN == "" {
		cfg.StateFile = DefaultStateFile
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
