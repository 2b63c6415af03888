// Package tokens resolves ERC-20 metadata for addresses seen in a
// batch, layering an in-memory negative cache over the persistent
// store over a remote multicall fetch (spec.md §4.B).
package tokens

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/rpcfetch"
	"github.com/luxfi/dexindexer/internal/store"
)

const (
	negativeCacheSize = 10_000
	negativeCacheTTL  = time.Hour

	// upsertBatchSize caps how many newly-resolved tokens are written
	// in one store call.
	upsertBatchSize = 300
)

// metadataFetcher is the remote-fetch layer's contract, satisfied by
// *rpcfetch.Fetcher; narrowed to an interface so tests can substitute
// a fake without dialing real RPC.
type metadataFetcher interface {
	FetchBatch(ctx context.Context, addresses []string) []rpcfetch.TokenMetadata
}

// Resolver resolves token metadata for a batch of addresses, caching
// known-bad addresses so repeated failures don't re-trigger RPC calls.
type Resolver struct {
	chainID       models.ChainID
	store         store.TokenStore
	fetcher       metadataFetcher
	negativeCache *lru.LRU[string, struct{}]
}

// New builds a Resolver for one chain.
func New(chainID models.ChainID, tokenStore store.TokenStore, fetcher metadataFetcher) *Resolver {
	return &Resolver{
		chainID:       chainID,
		store:         tokenStore,
		fetcher:       fetcher,
		negativeCache: lru.NewLRU[string, struct{}](negativeCacheSize, nil, negativeCacheTTL),
	}
}

// Resolve returns a map of lowercased address -> Token for every
// address that could be resolved, via the negative cache, the
// persistent store, and finally a remote multicall fetch, in that
// order. Newly-fetched tokens are upserted before returning; addresses
// that fail resolution are recorded in the negative cache.
func (r *Resolver) Resolve(ctx context.Context, addresses []string) (map[string]models.Token, error) {
	result := make(map[string]models.Token)

	valid := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.ToLower(addr)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		if _, bad := r.negativeCache.Get(addr); bad {
			continue
		}
		valid = append(valid, addr)
	}
	if len(valid) == 0 {
		return result, nil
	}

	existing, err := r.store.GetTokens(ctx, r.chainID, valid)
	if err != nil {
		return nil, err
	}
	for addr, tok := range existing {
		result[addr] = tok
	}

	missing := make([]string, 0, len(valid))
	for _, addr := range valid {
		if _, ok := existing[addr]; !ok {
			missing = append(missing, addr)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched := r.fetcher.FetchBatch(ctx, missing)
	newTokens := make([]models.Token, 0, len(fetched))
	for _, meta := range fetched {
		if !meta.Ok {
			r.negativeCache.Add(meta.Address, struct{}{})
			continue
		}
		tok := models.NewToken(r.chainID, meta.Address, meta.Symbol, meta.Name, meta.Decimals)
		result[meta.Address] = tok
		newTokens = append(newTokens, tok)
	}

	for start := 0; start < len(newTokens); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(newTokens) {
			end = len(newTokens)
		}
		if err := r.store.UpsertTokens(ctx, newTokens[start:end]); err != nil {
			return result, err
		}
	}

	return result, nil
}

// SeedWrappedNative ensures the chain's wrapped-native token exists
// before the first batch runs, synthesizing a fallback row from the
// chain config if it cannot be resolved any other way (spec.md §4.B
// startup seed).
func (r *Resolver) SeedWrappedNative(ctx context.Context, chain models.ChainConfig) error {
	addr := strings.ToLower(chain.NativeTokenAddress)
	resolved, err := r.Resolve(ctx, []string{addr})
	if err != nil {
		return err
	}
	if _, ok := resolved[addr]; ok {
		return nil
	}

	fallback := models.NewToken(r.chainID, addr, chain.NativeTokenSymbol, chain.NativeTokenName, chain.NativeTokenDecimals)
	return r.store.UpsertTokens(ctx, []models.Token{fallback})
}
