package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/amm"
	"github.com/SupremaLex/DummyDEX/internal/config"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/state"
	"github.com/SupremaLex/DummyDEX/internal/storage"
	"github.com/SupremaLex/DummyDEX/internal/storage/postgres"
	"github.com/SupremaLex/DummyDEX/internal/units"
)

// simulation is a ledger and pool loaded from the state store for one
// command invocation.
type simulation struct {
	cfg    config.Config
	logger *zap.Logger
	store  *postgres.Store
	states state.Store
	ledger *ledger.Memory
	pool   *amm.Pool
	events *storage.Buffer
}

func openSimulation(ctx context.Context, cmd *cobra.Command) (*simulation, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sim := &simulation{cfg: cfg, logger: logger, ledger: ledger.NewMemory()}

	var sinks storage.MultiSink
	if cfg.EventsOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.EventsOut))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sim.store = store
		sinks = append(sinks, store)
	}

	if cfg.StateFile != "" {
		sim.states = &state.FileStore{Path: cfg.StateFile}
	} else {
		sim.states = &state.DBStore{Store: sim.store, Name: cfg.StateName}
	}

	var sink storage.EventSink
	if len(sinks) > 0 {
		sink = sinks
	}
	sim.events = storage.NewBuffer(sink)
	sim.pool = amm.NewPool(amm.Config{Mode: cfg.LiquidityMode, Rounding: cfg.Rounding}, sim.ledger, sim.events, logger)

	snap, ok, err := sim.states.Load(ctx)
	if err != nil {
		sim.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	if ok {
		if err := snap.Apply(sim.ledger, sim.pool); err != nil {
			sim.Close()
			return nil, err
		}
	}

	logger.Debug("simulation loaded",
		zap.String("state_file", cfg.StateFile),
		zap.String("state_name", cfg.StateName),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("resumed", ok),
	)
	return sim, nil
}

func (s *simulation) Save(ctx context.Context) error {
	if err := s.states.Save(ctx, state.Capture(s.ledger, s.pool)); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *simulation) Close() {
	if s.store != nil {
		s.store.Close()
	}
	_ = s.logger.Sync()
}

// amount converts a decimal string to base units of asset. Unknown assets
// use the configured decimals.
func (s *simulation) amount(ctx context.Context, asset common.Address, input string) (*uint256.Int, error) {
	decimals, err := s.ledger.Decimals(ctx, asset)
	if err != nil {
		decimals = s.cfg.Decimals
	}
	v, err := units.ParseAmount(input, decimals)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", input, err)
	}
	return v, nil
}

func (s *simulation) format(ctx context.Context, asset common.Address, v *uint256.Int) string {
	decimals, err := s.ledger.Decimals(ctx, asset)
	if err != nil {
		decimals = s.cfg.Decimals
	}
	return units.FormatAmount(v, decimals)
}

// mutate runs fn against the loaded simulation and persists the result when
// fn succeeds.
func mutate(cmd *cobra.Command, fn func(ctx context.Context, sim *simulation) error) error {
	ctx, stop := signalContext()
	defer stop()

	sim, err := openSimulation(ctx, cmd)
	if err != nil {
		return err
	}
	defer sim.Close()

	return sim.apply(ctx, fn)
}

// apply runs fn and saves the result. Events produced by fn are written only
// after the save succeeds.
func (s *simulation) apply(ctx context.Context, fn func(ctx context.Context, sim *simulation) error) error {
	if err := fn(ctx, s); err != nil {
		s.events.Discard()
		return err
	}
	if err := s.Save(ctx); err != nil {
		s.events.Discard()
		return err
	}
	if err := s.events.Flush(ctx); err != nil {
		s.logger.Warn("publish events", zap.Error(err))
	}
	return nil
}

// inspect runs fn against the loaded simulation without saving.
func inspect(cmd *cobra.Command, fn func(ctx context.Context, sim *simulation) error) error {
	ctx, stop := signalContext()
	defer stop()

	sim, err := openSimulation(ctx, cmd)
	if err != nil {
		return err
	}
	defer sim.Close()

	return fn(ctx, sim)
}
