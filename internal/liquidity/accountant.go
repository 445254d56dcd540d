// Package liquidity keeps the liquidity share book of a pool: how many shares
// each provider holds and how many exist in total.
package liquidity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

// Mode selects how shares are keyed.
type Mode int

const (
	// ModeShared keeps one share balance per provider.
	ModeShared Mode = iota
	// ModePerAsset keeps a share balance per provider and per pool asset.
	ModePerAsset
)

func ParseMode(input string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "shared":
		return ModeShared, nil
	case "per-asset", "per_asset", "perasset":
		return ModePerAsset, nil
	default:
		return ModeShared, fmt.Errorf("unsupported liquidity mode: %s", input)
	}
}

func (m Mode) String() string {
	if m == ModePerAsset {
		return "per-asset"
	}
	return "shared"
}

type key struct {
	owner common.Address
	asset common.Address
}

// Accountant is not safe for concurrent use; the pool serializes access.
//
// The grand total always equals the sum of the per-asset totals and the sum
// of the per-owner balances.
type Accountant struct {
	mode   Mode
	total  *uint256.Int
	totals map[common.Address]*uint256.Int
	owners map[common.Address]*uint256.Int
	shares map[key]*uint256.Int
}

func NewAccountant(mode Mode) *Accountant {
	return &Accountant{
		mode:   mode,
		total:  new(uint256.Int),
		totals: make(map[common.Address]*uint256.Int),
		owners: make(map[common.Address]*uint256.Int),
		shares: make(map[key]*uint256.Int),
	}
}

func (a *Accountant) Mode() Mode {
	return a.mode
}

// assetKey folds every asset onto the zero address in shared mode.
func (a *Accountant) assetKey(asset common.Address) common.Address {
	if a.mode == ModeShared {
		return common.Address{}
	}
	return asset
}

func get(m map[common.Address]*uint256.Int, k common.Address) *uint256.Int {
	if v, ok := m[k]; ok {
		return v
	}
	return new(uint256.Int)
}

func (a *Accountant) share(k key) *uint256.Int {
	if v, ok := a.shares[k]; ok {
		return v
	}
	return new(uint256.Int)
}

// Mint credits amount shares to owner. In shared mode asset is ignored.
// Nothing changes when any counter would overflow.
func (a *Accountant) Mint(owner, asset common.Address, amount *uint256.Int) error {
	k := key{owner: owner, asset: a.assetKey(asset)}
	total, err := arith.Add(a.total, amount)
	if err != nil {
		return fmt.Errorf("mint total shares: %w", err)
	}
	assetTotal, err := arith.Add(get(a.totals, k.asset), amount)
	if err != nil {
		return fmt.Errorf("mint asset shares: %w", err)
	}
	ownerTotal, err := arith.Add(get(a.owners, owner), amount)
	if err != nil {
		return fmt.Errorf("mint provider shares: %w", err)
	}
	share, err := arith.Add(a.share(k), amount)
	if err != nil {
		return fmt.Errorf("mint provider shares: %w", err)
	}
	a.total = total
	a.totals[k.asset] = assetTotal
	a.owners[owner] = ownerTotal
	a.shares[k] = share
	return nil
}

// Burn removes amount shares from owner. Burning more than the owner holds
// reports arith.ErrOverflow and changes nothing.
func (a *Accountant) Burn(owner, asset common.Address, amount *uint256.Int) error {
	k := key{owner: owner, asset: a.assetKey(asset)}
	share, err := arith.Sub(a.share(k), amount)
	if err != nil {
		return fmt.Errorf("burn provider shares: %w", err)
	}
	ownerTotal, err := arith.Sub(get(a.owners, owner), amount)
	if err != nil {
		return fmt.Errorf("burn provider shares: %w", err)
	}
	assetTotal, err := arith.Sub(get(a.totals, k.asset), amount)
	if err != nil {
		return fmt.Errorf("burn asset shares: %w", err)
	}
	total, err := arith.Sub(a.total, amount)
	if err != nil {
		return fmt.Errorf("burn total shares: %w", err)
	}
	a.total = total
	a.totals[k.asset] = assetTotal
	a.owners[owner] = ownerTotal
	a.shares[k] = share
	return nil
}

// TotalShares is the number of outstanding shares over all assets.
func (a *Accountant) TotalShares() *uint256.Int {
	return a.total.Clone()
}

// Total is the number of outstanding shares backing asset. In shared mode it
// equals TotalShares.
func (a *Accountant) Total(asset common.Address) *uint256.Int {
	return get(a.totals, a.assetKey(asset)).Clone()
}

// LiquidityOf is owner's share balance over all assets.
func (a *Accountant) LiquidityOf(owner common.Address) *uint256.Int {
	return get(a.owners, owner).Clone()
}

// LiquidityOfAsset is owner's share balance backing asset.
func (a *Accountant) LiquidityOfAsset(owner, asset common.Address) *uint256.Int {
	return a.share(key{owner: owner, asset: a.assetKey(asset)}).Clone()
}

// PoolShare is owner's fraction of all outstanding shares.
func (a *Accountant) PoolShare(owner common.Address) arith.Perbill {
	return arith.PerbillFromRational(get(a.owners, owner), a.total)
}

// AssetShare is owner's fraction of the shares backing asset.
func (a *Accountant) AssetShare(owner, asset common.Address) arith.Perbill {
	k := a.assetKey(asset)
	return arith.PerbillFromRational(a.share(key{owner: owner, asset: k}), get(a.totals, k))
}

// Providers lists every account that has ever held shares, in address order.
func (a *Accountant) Providers() []common.Address {
	out := make([]common.Address, 0, len(a.owners))
	for owner := range a.owners {
		out = append(out, owner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func (a *Accountant) Clone() *Accountant {
	out := NewAccountant(a.mode)
	out.total = a.total.Clone()
	for k, v := range a.totals {
		out.totals[k] = v.Clone()
	}
	for k, v := range a.owners {
		out.owners[k] = v.Clone()
	}
	for k, v := range a.shares {
		out.shares[k] = v.Clone()
	}
	return out
}

// Check verifies that the counters agree with each other.
func (a *Accountant) Check() error {
	byAsset := make(map[common.Address]*uint256.Int)
	byOwner := make(map[common.Address]*uint256.Int)
	for k, v := range a.shares {
		var err error
		if byAsset[k.asset], err = arith.Add(get(byAsset, k.asset), v); err != nil {
			return err
		}
		if byOwner[k.owner], err = arith.Add(get(byOwner, k.owner), v); err != nil {
			return err
		}
	}
	sum := new(uint256.Int)
	for asset, v := range a.totals {
		if !v.Eq(get(byAsset, asset)) {
			return fmt.Errorf("asset %s: total %s != provider sum %s", asset.Hex(), arith.String(v), arith.String(get(byAsset, asset)))
		}
		var err error
		if sum, err = arith.Add(sum, v); err != nil {
			return err
		}
	}
	if !sum.Eq(a.total) {
		return fmt.Errorf("total shares %s != asset sum %s", arith.String(a.total), arith.String(sum))
	}
	for owner, v := range a.owners {
		if !v.Eq(get(byOwner, owner)) {
			return fmt.Errorf("provider %s: balance %s != asset sum %s", owner.Hex(), arith.String(v), arith.String(get(byOwner, owner)))
		}
	}
	return nil
}
