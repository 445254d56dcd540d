package model

// InitializedEventData is the payload of the Initialized event.
type InitializedEventData struct {
	Caller  string `json:"caller"`
	AssetA  string `json:"asset_a"`
	AmountA string `json:"amount_a"`
	AssetB  string `json:"asset_b"`
	AmountB string `json:"amount_b"`
	Shares  string `json:"shares"`
}

// TokenBoughtEventData is the payload of the TokenBought event. Fee is the
// part of AmountIn kept by the pool.
type TokenBoughtEventData struct {
	Caller    string `json:"caller"`
	AssetIn   string `json:"asset_in"`
	AmountIn  string `json:"amount_in"`
	AssetOut  string `json:"asset_out"`
	AmountOut string `json:"amount_out"`
	Fee       string `json:"fee"`
}

// DepositedEventData is the payload of the Deposited event. For single-sided
// deposits AmountIn is the whole amount pulled from the caller, Swapped is the
// part of it sold to the pool, Fee is what that sale left in the pool and the
// refunds are what was sent back.
type DepositedEventData struct {
	Caller    string `json:"caller"`
	AssetIn   string `json:"asset_in"`
	AmountIn  string `json:"amount_in"`
	AssetOut  string `json:"asset_out"`
	AmountOut string `json:"amount_out"`
	Shares    string `json:"shares"`
	Single    bool   `json:"single,omitempty"`
	Swapped   string `json:"swapped,omitempty"`
	Fee       string `json:"fee,omitempty"`
	RefundIn  string `json:"refund_in,omitempty"`
	RefundOut string `json:"refund_out,omitempty"`
}

// WithdrawnEventData is the payload of the Withdrawn event. AssetOut, Swapped,
// Bought and Fee are set for single-sided withdrawals, where AmountA/AmountB
// are the proportional amounts before the unwanted leg (Swapped) was sold back
// to the pool.
type WithdrawnEventData struct {
	Caller   string `json:"caller"`
	Percent  uint32 `json:"percent"`
	AmountA  string `json:"amount_a"`
	AmountB  string `json:"amount_b"`
	Shares   string `json:"shares"`
	AssetOut string `json:"asset_out,omitempty"`
	Swapped  string `json:"swapped,omitempty"`
	Bought   string `json:"bought,omitempty"`
	Fee      string `json:"fee,omitempty"`
}
