package model

// PoolMeta captures pool identity and the state after an operation.
type PoolMeta struct {
	AssetA        string `json:"asset_a"`
	AssetB        string `json:"asset_b"`
	DecimalsA     uint8  `json:"decimals_a"`
	DecimalsB     uint8  `json:"decimals_b"`
	LiquidityMode string `json:"liquidity_mode,omitempty"`
	ReserveA      string `json:"reserve_a,omitempty"`
	ReserveB      string `json:"reserve_b,omitempty"`
	TotalShares   string `json:"total_shares,omitempty"`
}
