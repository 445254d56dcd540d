package model

import "encoding/json"

// PoolEventRecord is the JSON representation used for aggregation.
type PoolEventRecord struct {
	Pool      string          `json:"pool"`
	Sequence  uint64          `json:"sequence"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
	PoolMeta  PoolMeta        `json:"pool_meta"`
}
