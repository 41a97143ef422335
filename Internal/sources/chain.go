package sources

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ImplementationSlot is the ERC-1967 implementation storage slot.
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

const tokenABI = `[
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"getOwner","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"paused","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

var parsedTokenABI = mustParseABI(tokenABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid token ABI: %v", err))
	}
	return parsed
}

// ContractCaller is the subset of ethclient.Client the reader needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

type ChainReader struct {
	caller  ContractCaller
	timeout time.Duration
}

func NewChainReader(caller ContractCaller, timeout time.Duration) *ChainReader {
	return &ChainReader{caller: caller, timeout: timeout}
}

// ReadContract calls a view function of the token ABI and returns its outputs.
func (r *ChainReader) ReadContract(ctx context.Context, address common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := parsedTokenABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.caller.CallContract(callCtx, ethereum.CallMsg{To: &address, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsedTokenABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func (r *ChainReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Fetch reads metadata, owner, pause state and the proxy implementation slot
// concurrently, all within twice the per-call timeout (owner may need two
// calls). The record is OK when at least one read succeeded.
func (r *ChainReader) Fetch(ctx context.Context, address string) ChainRecord {
	if r == nil || r.caller == nil {
		return ChainRecord{Status: skipped("no RPC endpoint configured"), Owner: zeroAddress}
	}

	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*r.timeout)
		defer cancel()
	}

	addr := common.HexToAddress(address)
	rec := ChainRecord{Status: Status{Attempted: true}, Owner: zeroAddress}

	// each read writes its own record fields and its own slot in results
	reads := []func() (bool, error){
		func() (bool, error) {
			v, err := r.ReadContract(ctx, addr, "name")
			if err != nil {
				return false, err
			}
			s, ok := v[0].(string)
			rec.Name = s
			return ok, nil
		},
		func() (bool, error) {
			v, err := r.ReadContract(ctx, addr, "symbol")
			if err != nil {
				return false, err
			}
			s, ok := v[0].(string)
			rec.Symbol = s
			return ok, nil
		},
		func() (bool, error) {
			v, err := r.ReadContract(ctx, addr, "decimals")
			if err != nil {
				return false, err
			}
			d, ok := v[0].(uint8)
			if ok {
				rec.Decimals = &d
			}
			return ok, nil
		},
		func() (bool, error) {
			v, err := r.ReadContract(ctx, addr, "totalSupply")
			if err != nil {
				return false, err
			}
			supply, ok := v[0].(*big.Int)
			if ok {
				rec.TotalSupply = supply
			}
			return ok, nil
		},
		func() (bool, error) {
			owner, ok := r.readOwner(ctx, addr)
			if ok {
				rec.Owner = owner
				rec.OwnerKnown = true
			}
			return ok, nil
		},
		func() (bool, error) {
			// pause state is informational and does not count as a read
			if v, err := r.ReadContract(ctx, addr, "paused"); err == nil {
				if p, ok := v[0].(bool); ok {
					rec.Paused = &p
				}
			}
			return false, nil
		},
		func() (bool, error) {
			impl, err := r.readImplementation(ctx, addr)
			if err != nil {
				return false, err
			}
			rec.ProxyChecked = true
			rec.Implementation = impl
			return true, nil
		},
	}

	type outcome struct {
		ok  bool
		err error
	}
	results := make([]outcome, len(reads))
	var wg sync.WaitGroup
	for i, read := range reads {
		wg.Add(1)
		go func(i int, read func() (bool, error)) {
			defer wg.Done()
			ok, err := read()
			results[i] = outcome{ok: ok, err: err}
		}(i, read)
	}
	wg.Wait()

	var firstErr error
	for _, res := range results {
		if res.ok {
			rec.OK = true
		}
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
	}
	if !rec.OK && firstErr != nil {
		rec.Error = firstErr.Error()
	}
	rec.MS = time.Since(start).Milliseconds()
	return rec
}

// readOwner tries owner(), then getOwner().
func (r *ChainReader) readOwner(ctx context.Context, addr common.Address) (string, bool) {
	for _, method := range []string{"owner", "getOwner"} {
		v, err := r.ReadContract(ctx, addr, method)
		if err != nil {
			continue
		}
		if owner, ok := v[0].(common.Address); ok {
			return strings.ToLower(owner.Hex()), true
		}
	}
	return "", false
}

// readImplementation returns the lowercased implementation address, or "" when
// the slot is empty.
func (r *ChainReader) readImplementation(ctx context.Context, addr common.Address) (string, error) {
	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.caller.StorageAt(callCtx, addr, ImplementationSlot, nil)
	if err != nil {
		return "", fmt.Errorf("read implementation slot: %w", err)
	}
	impl := common.BytesToAddress(raw)
	if impl == (common.Address{}) {
		return "", nil
	}
	return strings.ToLower(impl.Hex()), nil
}

const zeroAddress = "0x0000000000000000000000000000000000000000"
