package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SupremaLex/DummyDEX/internal/liquidity"
)

// State is the serializable form of a pool. Reserves are not part of it:
// they live on the ledger.
type State struct {
	Initialized bool            `json:"initialized"`
	Address     common.Address  `json:"address"`
	AssetA      common.Address  `json:"asset_a"`
	AssetB      common.Address  `json:"asset_b"`
	Sequence    uint64          `json:"sequence"`
	Liquidity   liquidity.State `json:"liquidity"`
}

func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Initialized: p.initialized,
		Address:     p.address,
		AssetA:      p.assetA,
		AssetB:      p.assetB,
		Sequence:    p.seq,
		Liquidity:   p.shares.Export(),
	}
}

// Restore replaces the pool state with st. The share book must have been
// written in the pool's configured liquidity mode.
func (p *Pool) Restore(st State) error {
	if st.Liquidity.Mode == "" {
		st.Liquidity.Mode = p.cfg.Mode.String()
	}
	book, err := liquidity.Import(st.Liquidity)
	if err != nil {
		return fmt.Errorf("restore pool: %w", err)
	}
	if book.Mode() != p.cfg.Mode {
		return fmt.Errorf("restore pool: %w: stored %s, configured %s", ErrModeMismatch, book.Mode(), p.cfg.Mode)
	}
	if !st.Initialized && !book.TotalShares().IsZero() {
		return fmt.Errorf("restore pool: %w: shares without initialization", ErrUninitialized)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = st.Initialized
	p.address = st.Address
	p.assetA = st.AssetA
	p.assetB = st.AssetB
	p.seq = st.Sequence
	p.shares = book
	return nil
}
