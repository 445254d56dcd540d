package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Amounts are
// decimal strings in token units.
type PoolWindowMetrics struct {
	PoolAddress    string    `json:"pool_address"`
	WindowSizeSecs int64     `json:"window_size_secs"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	DepositCount   uint64    `json:"deposit_count"`
	WithdrawCount  uint64    `json:"withdraw_count"`
	VolumeA        string    `json:"volume_a"`
	VolumeB        string    `json:"volume_b"`
	FeeA           string    `json:"fee_a"`
	FeeB           string    `json:"fee_b"`
	SharesMinted   string    `json:"shares_minted"`
	SharesBurned   string    `json:"shares_burned"`
	FeeRateA       *string   `json:"fee_rate_a,omitempty"`
	FeeRateB       *string   `json:"fee_rate_b,omitempty"`
	ReserveA       *string   `json:"reserve_a,omitempty"`
	ReserveB       *string   `json:"reserve_b,omitempty"`
	APR            *string   `json:"apr,omitempty"`
	ReserveMethod  string    `json:"reserve_method"`
}
