package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/amm"
	"github.com/SupremaLex/DummyDEX/internal/chain"
	"github.com/SupremaLex/DummyDEX/internal/config"
	"github.com/SupremaLex/DummyDEX/internal/units"
)

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against the token balances of an on-chain pool",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	quoteCmd.Flags().String("pool", "", "pool address holding the reserves")
	quoteCmd.Flags().String("asset-in", "", "token sold")
	quoteCmd.Flags().String("asset-out", "", "token bought")
	quoteCmd.Flags().String("amount", "", "amount sold in token units")
	quoteCmd.Flags().Uint64("block", 0, "block height to read, 0 means latest")
	quoteCmd.Flags().Int("max-retries", 3, "maximum retry attempts per call")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return quoteCmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	pool, err := parseAddress("pool", cfg.Pool)
	if err != nil {
		return err
	}
	assetIn, err := parseAddress("asset-in", cfg.AssetIn)
	if err != nil {
		return err
	}
	assetOut, err := parseAddress("asset-out", cfg.AssetOut)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := chain.NewTokenReader(chainClient, chain.ReaderConfig{
		Block:        cfg.Block,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger)

	metaIn, err := reader.TokenMeta(ctx, assetIn)
	if err != nil {
		return fmt.Errorf("token %s: %w", assetIn.Hex(), err)
	}
	metaOut, err := reader.TokenMeta(ctx, assetOut)
	if err != nil {
		return fmt.Errorf("token %s: %w", assetOut.Hex(), err)
	}

	amountIn, err := units.ParseAmount(cfg.Amount, metaIn.Decimals)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}

	out, err := amm.QuoteAt(ctx, reader, pool, assetIn, assetOut, amountIn)
	if err != nil {
		return err
	}

	logger.Info("quote",
		zap.String("pool", pool.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("amount_in", cfg.Amount),
		zap.Uint64("block", cfg.Block),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s %s\n",
		units.FormatAmount(amountIn, metaIn.Decimals), symbolOr(metaIn.Symbol, assetIn.Hex()),
		units.FormatAmount(out, metaOut.Decimals), symbolOr(metaOut.Symbol, assetOut.Hex()))
	return nil
}

func symbolOr(symbol, fallback string) string {
	if symbol == "" {
		return fallback
	}
	return symbol
}
