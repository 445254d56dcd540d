package model

// Event names emitted by a pool.
const (
	EventInitialized = "Initialized"
	EventTokenBought = "TokenBought"
	EventDeposited   = "Deposited"
	EventWithdrawn   = "Withdrawn"
)

// PoolEvent is a committed pool operation enriched with the pool state it
// left behind.
type PoolEvent struct {
	Pool      string      `json:"pool"`
	Sequence  uint64      `json:"sequence"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
	PoolMeta  PoolMeta    `json:"pool_meta"`
}
