package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/model"
)

const erc20ABIStringJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens return bytes32 for symbol and name.
const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
)

func erc20StringABI() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20Bytes32ABI() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// ReaderConfig controls how a TokenReader talks to the chain.
type ReaderConfig struct {
	// Block pins reads to a block height. Zero reads the latest state.
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// TokenReader reads ERC20 balances and metadata. It satisfies the balance
// reader a pool quote needs, so live pools can be priced with the same
// engine as simulated ones.
type TokenReader struct {
	client *Client
	cfg    ReaderConfig
	logger *zap.Logger

	mu       sync.RWMutex
	decimals map[common.Address]uint8
	meta     map[common.Address]model.TokenMeta
}

func NewTokenReader(client *Client, cfg ReaderConfig, logger *zap.Logger) *TokenReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenReader{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		decimals: make(map[common.Address]uint8),
		meta:     make(map[common.Address]model.TokenMeta),
	}
}

func (r *TokenReader) block() *big.Int {
	if r.cfg.Block == 0 {
		return nil
	}
	return new(big.Int).SetUint64(r.cfg.Block)
}

func (r *TokenReader) call(ctx context.Context, token common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}

	var resp []byte
	err = withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = r.client.CallContract(ctx, msg, r.block())
		if callErr != nil {
			r.logger.Debug("eth_call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}

// BalanceOf returns the token balance of account.
func (r *TokenReader) BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	parsed, err := erc20StringABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, token, parsed, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf unexpected type %T", values[0])
	}
	return arith.FromBig(bal)
}

// Decimals returns the token decimals, cached after the first read.
func (r *TokenReader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	r.mu.RLock()
	cached, ok := r.decimals[token]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	parsed, err := erc20StringABI()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := r.call(ctx, token, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals unexpected type %T", values[0])
	}

	r.mu.Lock()
	r.decimals[token] = decimals
	r.mu.Unlock()
	return decimals, nil
}

// TokenMeta loads decimals, symbol and name. Symbol and name are best effort.
func (r *TokenReader) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	r.mu.RLock()
	cached, ok := r.meta[token]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	meta := model.TokenMeta{Address: token.Hex()}
	decimals, err := r.Decimals(ctx, token)
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals
	meta.Symbol = r.text(ctx, token, "symbol")
	meta.Name = r.text(ctx, token, "name")

	r.mu.Lock()
	r.meta[token] = meta
	r.mu.Unlock()
	return meta, nil
}

func (r *TokenReader) text(ctx context.Context, token common.Address, method string) string {
	stringABI, err := erc20StringABI()
	if err != nil {
		return ""
	}
	if values, err := r.call(ctx, token, stringABI, method); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}

	bytes32ABI, err := erc20Bytes32ABI()
	if err != nil {
		return ""
	}
	values, err := r.call(ctx, token, bytes32ABI, method)
	if err != nil {
		r.logger.Debug("token text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
		return ""
	}
	if s, ok := bytes32ToString(values[0]); ok {
		return s
	}
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
