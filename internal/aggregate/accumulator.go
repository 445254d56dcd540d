package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress   string
	PoolMeta      model.PoolMeta
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	VolumeA       *big.Int
	VolumeB       *big.Int
	FeeA          *big.Int
	FeeB          *big.Int
	SharesMinted  *big.Int
	SharesBurned  *big.Int
	FirstSeq      uint64
	LastSeq       uint64
	LastTS        uint64
}

func NewAccumulator(record model.PoolEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress:  record.Pool,
		PoolMeta:     record.PoolMeta,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		VolumeA:      big.NewInt(0),
		VolumeB:      big.NewInt(0),
		FeeA:         big.NewInt(0),
		FeeB:         big.NewInt(0),
		SharesMinted: big.NewInt(0),
		SharesBurned: big.NewInt(0),
		FirstSeq:     record.Sequence,
		LastSeq:      record.Sequence,
		LastTS:       record.Timestamp,
	}
}

// AddEvent folds one event into the window. The pool meta of the latest
// event wins, so reserves reflect the state at the end of the window.
func (a *Accumulator) AddEvent(record model.PoolEventRecord) error {
	if record.Sequence >= a.LastSeq {
		a.LastSeq = record.Sequence
		a.LastTS = record.Timestamp
		if record.PoolMeta.AssetA != "" {
			a.PoolMeta = record.PoolMeta
		}
	}
	if a.FirstSeq == 0 || record.Sequence < a.FirstSeq {
		a.FirstSeq = record.Sequence
	}

	switch record.EventName {
	case model.EventTokenBought:
		var swap model.TokenBoughtEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventInitialized:
		var initData model.InitializedEventData
		if err := json.Unmarshal(record.Decoded, &initData); err != nil {
			return fmt.Errorf("decode init: %w", err)
		}
		a.DepositCount++
		return addParsed(a.SharesMinted, initData.Shares)
	case model.EventDeposited:
		var dep model.DepositedEventData
		if err := json.Unmarshal(record.Decoded, &dep); err != nil {
			return fmt.Errorf("decode deposit: %w", err)
		}
		a.DepositCount++
		if dep.Single {
			if err := a.applyInternalSwap(dep.AssetIn, dep.Swapped, dep.Fee); err != nil {
				return err
			}
		}
		return addParsed(a.SharesMinted, dep.Shares)
	case model.EventWithdrawn:
		var wd model.WithdrawnEventData
		if err := json.Unmarshal(record.Decoded, &wd); err != nil {
			return fmt.Errorf("decode withdraw: %w", err)
		}
		a.WithdrawCount++
		if wd.AssetOut != "" {
			sold, err := a.otherAsset(wd.AssetOut)
			if err != nil {
				return err
			}
			if err := a.applyInternalSwap(sold, wd.Swapped, wd.Fee); err != nil {
				return err
			}
		}
		return addParsed(a.SharesBurned, wd.Shares)
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.TokenBoughtEventData) error {
	if err := a.addVolume(swap.AssetIn, swap.AmountIn, swap.Fee); err != nil {
		return err
	}
	a.SwapCount++
	return nil
}

// applyInternalSwap books the sale made inside a single-sided deposit or
// withdrawal. It adds volume and fee but is not counted as a swap.
func (a *Accumulator) applyInternalSwap(assetIn, amountIn, fee string) error {
	if amountIn == "" {
		return nil
	}
	return a.addVolume(assetIn, amountIn, fee)
}

func (a *Accumulator) addVolume(assetIn, rawAmount, rawFee string) error {
	amountIn, err := parseBigInt(rawAmount)
	if err != nil {
		return err
	}
	fee, err := parseBigInt(rawFee)
	if err != nil {
		return err
	}

	switch {
	case strings.EqualFold(assetIn, a.PoolMeta.AssetA):
		a.VolumeA.Add(a.VolumeA, amountIn)
		a.FeeA.Add(a.FeeA, fee)
	case strings.EqualFold(assetIn, a.PoolMeta.AssetB):
		a.VolumeB.Add(a.VolumeB, amountIn)
		a.FeeB.Add(a.FeeB, fee)
	default:
		return fmt.Errorf("swap asset %s not in pool", assetIn)
	}
	return nil
}

func (a *Accumulator) otherAsset(asset string) (string, error) {
	switch {
	case strings.EqualFold(asset, a.PoolMeta.AssetA):
		return a.PoolMeta.AssetB, nil
	case strings.EqualFold(asset, a.PoolMeta.AssetB):
		return a.PoolMeta.AssetA, nil
	default:
		return "", fmt.Errorf("withdraw asset %s not in pool", asset)
	}
}

func addParsed(target *big.Int, value string) error {
	v, err := parseBigInt(value)
	if err != nil {
		return err
	}
	target.Add(target, v)
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
