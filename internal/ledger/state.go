package ledger

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

// State is the serializable form of a Memory ledger. Amounts are base-10
// strings.
type State struct {
	Tokens []TokenState `json:"tokens"`
}

type TokenState struct {
	Asset      common.Address            `json:"asset"`
	Decimals   uint8                     `json:"decimals"`
	Supply     string                    `json:"supply"`
	Balances   map[common.Address]string `json:"balances"`
	Allowances []AllowanceState          `json:"allowances,omitempty"`
}

type AllowanceState struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  string         `json:"amount"`
}

// Export returns a copy of the ledger contents. Zero balances and allowances
// are omitted.
func (m *Memory) Export() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := State{Tokens: make([]TokenState, 0, len(m.tokens))}
	for asset, t := range m.tokens {
		ts := TokenState{
			Asset:    asset,
			Decimals: t.decimals,
			Supply:   arith.String(t.supply),
			Balances: make(map[common.Address]string, len(t.balances)),
		}
		for account, v := range t.balances {
			if !v.IsZero() {
				ts.Balances[account] = arith.String(v)
			}
		}
		for k, v := range t.allowances {
			if v.IsZero() {
				continue
			}
			ts.Allowances = append(ts.Allowances, AllowanceState{Owner: k.owner, Spender: k.spender, Amount: arith.String(v)})
		}
		sort.Slice(ts.Allowances, func(i, j int) bool {
			a, b := ts.Allowances[i], ts.Allowances[j]
			if a.Owner != b.Owner {
				return a.Owner.Cmp(b.Owner) < 0
			}
			return a.Spender.Cmp(b.Spender) < 0
		})
		out.Tokens = append(out.Tokens, ts)
	}
	sort.Slice(out.Tokens, func(i, j int) bool {
		return out.Tokens[i].Asset.Cmp(out.Tokens[j].Asset) < 0
	})
	return out
}

// Import replaces the ledger contents with st.
func (m *Memory) Import(st State) error {
	tokens := make(map[common.Address]*token, len(st.Tokens))
	for _, ts := range st.Tokens {
		if _, dup := tokens[ts.Asset]; dup {
			return fmt.Errorf("import token %s: %w", ts.Asset.Hex(), ErrAlreadyInitialized)
		}
		supply, err := arith.Parse(ts.Supply)
		if err != nil {
			return fmt.Errorf("import token %s supply: %w", ts.Asset.Hex(), err)
		}
		if supply.IsZero() {
			return fmt.Errorf("import token %s: %w", ts.Asset.Hex(), ErrWrongInitialization)
		}
		t := &token{
			supply:     supply,
			decimals:   ts.Decimals,
			balances:   make(map[common.Address]*uint256.Int, len(ts.Balances)),
			allowances: make(map[allowanceKey]*uint256.Int, len(ts.Allowances)),
		}
		for account, raw := range ts.Balances {
			v, err := arith.Parse(raw)
			if err != nil {
				return fmt.Errorf("import balance %s/%s: %w", ts.Asset.Hex(), account.Hex(), err)
			}
			t.balances[account] = v
		}
		for _, a := range ts.Allowances {
			v, err := arith.Parse(a.Amount)
			if err != nil {
				return fmt.Errorf("import allowance %s/%s: %w", ts.Asset.Hex(), a.Owner.Hex(), err)
			}
			t.allowances[allowanceKey{owner: a.Owner, spender: a.Spender}] = v
		}
		tokens[ts.Asset] = t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	return nil
}
