// Package rpcfetch batches ERC-20 metadata calls through Multicall3,
// falling back to individual per-token calls when the aggregator
// itself is unreachable or misbehaving.
package rpcfetch

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/accounts/abi/bind"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/ethclient"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// batchSize caps how many token addresses go into one multicall
	// round-trip, matching the original's MULTICALL_BATCH_SIZE.
	batchSize = 20

	// maxRetries bounds multicall attempts before falling back to
	// individual calls.
	maxRetries = 3

	// retryBaseDelay is the exponential-backoff base: attempt n waits
	// retryBaseDelay * 2^n.
	retryBaseDelay = 100 * time.Millisecond

	// callTimeout bounds any single RPC round-trip (multicall batch or
	// individual fallback call).
	callTimeout = 30 * time.Second

	// maxDecimals rejects tokens reporting an implausible decimals
	// value (spec.md §4.B).
	maxDecimals = 24

	// individualFetchConcurrency bounds how many single-token fallback
	// calls run concurrently.
	individualFetchConcurrency = 8
)

// TokenMetadata is one fetched (or attempted) token's on-chain
// metadata. Ok is false when the token could not be resolved at all —
// missing/invalid decimals is the only hard failure; name/symbol may
// be empty strings.
type TokenMetadata struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
	Ok       bool
}

// Fetcher resolves ERC-20 token metadata from chain state via
// Multicall3, with a per-address fallback path.
type Fetcher struct {
	client   *ethclient.Client
	contract *bind.BoundContract
}

// New builds a Fetcher against an already-dialed client.
func New(client *ethclient.Client) *Fetcher {
	return &Fetcher{
		client:   client,
		contract: bind.NewBoundContract(multicall3Address, multicall3ABI, client, client, client),
	}
}

// FetchBatch resolves metadata for every address, chunking into
// Multicall3-sized batches and returning results in request order.
func (f *Fetcher) FetchBatch(ctx context.Context, addresses []string) []TokenMetadata {
	results := make([]TokenMetadata, 0, len(addresses))
	for start := 0; start < len(addresses); start += batchSize {
		end := start + batchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		results = append(results, f.fetchChunkWithRetry(ctx, addresses[start:end])...)
	}
	return results
}

func (f *Fetcher) fetchChunkWithRetry(ctx context.Context, addresses []string) []TokenMetadata {
	for attempt := 0; attempt < maxRetries; attempt++ {
		tokens, err := f.fetchChunk(ctx, addresses)
		if err == nil {
			return tokens
		}
		if attempt < maxRetries-1 {
			delay := retryBaseDelay * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return f.fetchIndividually(ctx, addresses)
			case <-time.After(delay):
			}
		}
	}
	return f.fetchIndividually(ctx, addresses)
}

// fetchChunk packs three sub-calls (name, symbol, decimals) per
// address into one Multicall3 aggregate3 call.
func (f *Fetcher) fetchChunk(ctx context.Context, addresses []string) ([]TokenMetadata, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	calls := make([]call3, 0, len(addresses)*3)
	for _, addr := range addresses {
		target := common.HexToAddress(addr)
		nameData, err := erc20ABI.Pack("name")
		if err != nil {
			return nil, fmt.Errorf("pack name call for %s: %w", addr, err)
		}
		symbolData, err := erc20ABI.Pack("symbol")
		if err != nil {
			return nil, fmt.Errorf("pack symbol call for %s: %w", addr, err)
		}
		decimalsData, err := erc20ABI.Pack("decimals")
		if err != nil {
			return nil, fmt.Errorf("pack decimals call for %s: %w", addr, err)
		}
		calls = append(calls,
			call3{Target: target, AllowFailure: true, CallData: nameData},
			call3{Target: target, AllowFailure: true, CallData: symbolData},
			call3{Target: target, AllowFailure: true, CallData: decimalsData},
		)
	}

	var out []interface{}
	if err := f.contract.Call(&bind.CallOpts{Context: callCtx}, &out, "aggregate3", calls); err != nil {
		return nil, fmt.Errorf("multicall aggregate3: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("multicall aggregate3: unexpected output shape")
	}
	// abi.Unpack returns results.Into an internally-generated anonymous
	// struct type for tuple outputs; abi.ConvertType reflects field-by-
	// field into our named type, the same pattern abigen-generated
	// bindings use for struct/array return values.
	rawResults, ok := abi.ConvertType(out[0], new([]call3Result)).(*[]call3Result)
	if !ok || rawResults == nil {
		return nil, fmt.Errorf("multicall aggregate3: unexpected return type")
	}

	results := *rawResults
	tokens := make([]TokenMetadata, len(addresses))
	for i, addr := range addresses {
		base := i * 3
		if base+2 >= len(results) {
			tokens[i] = TokenMetadata{Address: addr, Ok: false}
			continue
		}
		tokens[i] = decodeAggregateResult(addr, results[base], results[base+1], results[base+2])
	}
	return tokens, nil
}

func decodeAggregateResult(addr string, nameRes, symbolRes, decimalsRes call3Result) TokenMetadata {
	if !decimalsRes.Success {
		return TokenMetadata{Address: addr, Ok: false}
	}
	decVals, err := erc20ABI.Unpack("decimals", decimalsRes.ReturnData)
	if err != nil || len(decVals) != 1 {
		return TokenMetadata{Address: addr, Ok: false}
	}
	decimals, ok := decVals[0].(uint8)
	if !ok || decimals > maxDecimals {
		return TokenMetadata{Address: addr, Ok: false}
	}

	name := decodeOptionalString("name", nameRes)
	symbol := decodeOptionalString("symbol", symbolRes)

	return TokenMetadata{
		Address:  addr,
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
		Ok:       true,
	}
}

func decodeOptionalString(method string, res call3Result) string {
	if !res.Success {
		return ""
	}
	vals, err := erc20ABI.Unpack(method, res.ReturnData)
	if err != nil || len(vals) != 1 {
		return ""
	}
	s, _ := vals[0].(string)
	return s
}

// fetchIndividually is the last-resort fallback when multicall itself
// is failing: one direct call per address, bounded concurrency.
func (f *Fetcher) fetchIndividually(ctx context.Context, addresses []string) []TokenMetadata {
	results := make([]TokenMetadata, len(addresses))
	sem := semaphore.NewWeighted(individualFetchConcurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for i, addr := range addresses {
		i, addr := i, addr
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				results[i] = TokenMetadata{Address: addr, Ok: false}
				return nil
			}
			defer sem.Release(1)
			results[i] = f.fetchSingle(groupCtx, addr)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (f *Fetcher) fetchSingle(ctx context.Context, addr string) TokenMetadata {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	target := common.HexToAddress(addr)
	tokenContract := bind.NewBoundContract(target, erc20ABI, f.client, f.client, f.client)

	var decimalsOut []interface{}
	if err := tokenContract.Call(&bind.CallOpts{Context: callCtx}, &decimalsOut, "decimals"); err != nil || len(decimalsOut) != 1 {
		return TokenMetadata{Address: addr, Ok: false}
	}
	decimals, ok := decimalsOut[0].(uint8)
	if !ok || decimals > maxDecimals {
		return TokenMetadata{Address: addr, Ok: false}
	}

	var nameOut []interface{}
	name := ""
	if err := tokenContract.Call(&bind.CallOpts{Context: callCtx}, &nameOut, "name"); err == nil && len(nameOut) == 1 {
		name, _ = nameOut[0].(string)
	}

	var symbolOut []interface{}
	symbol := ""
	if err := tokenContract.Call(&bind.CallOpts{Context: callCtx}, &symbolOut, "symbol"); err == nil && len(symbolOut) == 1 {
		symbol, _ = symbolOut[0].(string)
	}

	return TokenMetadata{Address: addr, Name: name, Symbol: symbol, Decimals: decimals, Ok: true}
}
