package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dex",
		Short:        "Constant-product exchange simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newTokenCmd(), newPoolCmd(), newQuoteCmd(), newAggregateCmd())
	return root
}

// addSimulationFlags registers the flags read by config.Load.
func addSimulationFlags(flags *pflag.FlagSet) {
	flags.String("state-file", "", "simulator state file (default ./data/dex_state.json unless pg-dsn is set)")
	flags.String("state-name", "default", "simulator state name when stored in Postgres")
	flags.String("pg-dsn", "", "Postgres DSN for state and events")
	flags.String("events-out", "./data/events.jsonl", "pool events JSONL path, empty to disable")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Uint("decimals", 6, "decimals of newly created tokens")
	flags.String("liquidity-mode", "shared", "liquidity accounting (shared, per-asset)")
	flags.String("rounding", "down", "withdrawal rounding (down, nearest)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func parseAddress(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%s is required", name)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, value)
	}
	return common.HexToAddress(value), nil
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	return parseAddress(name, value)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
