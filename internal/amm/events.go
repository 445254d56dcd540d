package amm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/model"
)

type decimalsReader interface {
	Decimals(ctx context.Context, asset common.Address) (uint8, error)
}

// publish hands a committed operation to the sink. Failures are logged and
// never undo the operation.
func (p *Pool) publish(ctx context.Context, name string, payload interface{}) {
	p.seq++
	if p.sink == nil {
		return
	}
	event := model.PoolEvent{
		Pool:      p.address.Hex(),
		Sequence:  p.seq,
		EventName: name,
		Timestamp: uint64(p.cfg.Now().Unix()),
		Decoded:   payload,
		PoolMeta:  p.meta(ctx),
	}
	if err := p.sink.PutEvents(ctx, []model.PoolEvent{event}); err != nil {
		p.logger.Warn("publish event", zap.String("event", name), zap.Uint64("sequence", p.seq), zap.Error(err))
	}
}

func (p *Pool) meta(ctx context.Context) model.PoolMeta {
	meta := model.PoolMeta{
		AssetA:        p.assetA.Hex(),
		AssetB:        p.assetB.Hex(),
		LiquidityMode: p.shares.Mode().String(),
		TotalShares:   arith.String(p.shares.TotalShares()),
	}
	if reader, ok := p.ledger.(decimalsReader); ok {
		if d, err := reader.Decimals(ctx, p.assetA); err == nil {
			meta.DecimalsA = d
		}
		if d, err := reader.Decimals(ctx, p.assetB); err == nil {
			meta.DecimalsB = d
		}
	}
	reserveA, reserveB, err := p.reserves(ctx)
	if err != nil {
		p.logger.Warn("read reserves for event", zap.Error(err))
		return meta
	}
	meta.ReserveA = arith.String(reserveA)
	meta.ReserveB = arith.String(reserveB)
	return meta
}
