package model

// Pool is a pool record for storage.
type Pool struct {
	Address       string `json:"address"`
	AssetA        string `json:"asset_a"`
	AssetB        string `json:"asset_b"`
	LiquidityMode string `json:"liquidity_mode"`
	FirstSeenSeq  uint64 `json:"first_seen_seq"`
}
