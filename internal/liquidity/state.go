package liquidity

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

// State is the serializable share book. Asset is the zero address for
// shared-mode entries.
type State struct {
	Mode   string       `json:"mode"`
	Shares []ShareState `json:"shares"`
}

type ShareState struct {
	Owner  common.Address `json:"owner"`
	Asset  common.Address `json:"asset"`
	Amount string         `json:"amount"`
}

func (a *Accountant) Export() State {
	out := State{Mode: a.mode.String(), Shares: make([]ShareState, 0, len(a.shares))}
	for k, v := range a.shares {
		out.Shares = append(out.Shares, ShareState{Owner: k.owner, Asset: k.asset, Amount: arith.String(v)})
	}
	sort.Slice(out.Shares, func(i, j int) bool {
		x, y := out.Shares[i], out.Shares[j]
		if x.Owner != y.Owner {
			return x.Owner.Cmp(y.Owner) < 0
		}
		return x.Asset.Cmp(y.Asset) < 0
	})
	return out
}

// Import rebuilds an accountant from st. Totals are recomputed from the
// provider entries.
func Import(st State) (*Accountant, error) {
	mode, err := ParseMode(st.Mode)
	if err != nil {
		return nil, err
	}
	a := NewAccountant(mode)
	for _, s := range st.Shares {
		v, err := arith.Parse(s.Amount)
		if err != nil {
			return nil, fmt.Errorf("import shares of %s: %w", s.Owner.Hex(), err)
		}
		if mode == ModeShared && s.Asset != (common.Address{}) {
			return nil, fmt.Errorf("import shares of %s: asset key %s in shared mode", s.Owner.Hex(), s.Asset.Hex())
		}
		if err := a.Mint(s.Owner, s.Asset, v); err != nil {
			return nil, fmt.Errorf("import shares of %s: %w", s.Owner.Hex(), err)
		}
	}
	return a, nil
}
