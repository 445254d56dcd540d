package postgres

import "context"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pool_events (
		pool_address TEXT NOT NULL,
		sequence BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		event_ts BIGINT NOT NULL,
		decoded JSONB NOT NULL,
		pool_meta JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pool_address, sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		pool_address TEXT PRIMARY KEY,
		asset_a TEXT NOT NULL,
		asset_b TEXT NOT NULL,
		liquidity_mode TEXT NOT NULL,
		first_seen_seq BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pool_window_metrics (
		pool_address TEXT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts TIMESTAMPTZ NOT NULL,
		window_end_ts TIMESTAMPTZ NOT NULL,
		swap_count BIGINT NOT NULL,
		deposit_count BIGINT NOT NULL,
		withdraw_count BIGINT NOT NULL,
		volume_a NUMERIC NOT NULL,
		volume_b NUMERIC NOT NULL,
		fee_a NUMERIC NOT NULL,
		fee_b NUMERIC NOT NULL,
		shares_minted NUMERIC NOT NULL,
		shares_burned NUMERIC NOT NULL,
		fee_rate_a NUMERIC,
		fee_rate_b NUMERIC,
		reserve_a NUMERIC,
		reserve_b NUMERIC,
		apr NUMERIC,
		reserve_method TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS aggregate_state (
		name TEXT PRIMARY KEY,
		last_processed_ts BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS dex_state (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables used by the store when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
