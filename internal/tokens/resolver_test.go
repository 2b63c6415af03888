package tokens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/rpcfetch"
)

type fakeStore struct {
	tokens  map[string]models.Token
	upserts []models.Token
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: make(map[string]models.Token)}
}

func (f *fakeStore) GetTokens(_ context.Context, _ models.ChainID, addresses []string) (map[string]models.Token, error) {
	out := make(map[string]models.Token)
	for _, a := range addresses {
		if t, ok := f.tokens[a]; ok {
			out[a] = t
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertTokens(_ context.Context, tokens []models.Token) error {
	f.upserts = append(f.upserts, tokens...)
	for _, t := range tokens {
		f.tokens[t.Address] = t
	}
	return nil
}

type fakeFetcher struct {
	byAddress map[string]rpcfetch.TokenMetadata
}

func (f *fakeFetcher) FetchBatch(_ context.Context, addresses []string) []rpcfetch.TokenMetadata {
	out := make([]rpcfetch.TokenMetadata, len(addresses))
	for i, a := range addresses {
		if meta, ok := f.byAddress[a]; ok {
			out[i] = meta
		} else {
			out[i] = rpcfetch.TokenMetadata{Address: a, Ok: false}
		}
	}
	return out
}

func TestResolverPrefersStoreOverFetch(t *testing.T) {
	st := newFakeStore()
	st.tokens["0xabc"] = models.NewToken(1, "0xabc", "ABC", "Abc Token", 18)
	fetcher := &fakeFetcher{byAddress: map[string]rpcfetch.TokenMetadata{}}

	r := New(1, st, fetcher)
	result, err := r.Resolve(context.Background(), []string{"0xabc"})
	require.NoError(t, err)
	require.Contains(t, result, "0xabc")
	assert.Equal(t, "ABC", result["0xabc"].Symbol)
	assert.Empty(t, st.upserts, "a store hit should not trigger any fetch/upsert")
}

func TestResolverFetchesMissingAndUpserts(t *testing.T) {
	st := newFakeStore()
	fetcher := &fakeFetcher{byAddress: map[string]rpcfetch.TokenMetadata{
		"0xdef": {Address: "0xdef", Name: "Def Token", Symbol: "DEF", Decimals: 6, Ok: true},
	}}

	r := New(1, st, fetcher)
	result, err := r.Resolve(context.Background(), []string{"0xdef"})
	require.NoError(t, err)
	require.Contains(t, result, "0xdef")
	assert.Equal(t, uint8(6), result["0xdef"].Decimals)
	assert.Len(t, st.upserts, 1)
}

func TestResolverNegativeCacheSkipsRepeatedFailures(t *testing.T) {
	st := newFakeStore()
	calls := 0
	fetcher := &countingFetcher{fn: func(addresses []string) []rpcfetch.TokenMetadata {
		calls++
		out := make([]rpcfetch.TokenMetadata, len(addresses))
		for i, a := range addresses {
			out[i] = rpcfetch.TokenMetadata{Address: a, Ok: false}
		}
		return out
	}}

	r := New(1, st, fetcher)
	_, err := r.Resolve(context.Background(), []string{"0xbad"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), []string{"0xbad"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second resolve should be served entirely from the negative cache")
}

type countingFetcher struct {
	fn func([]string) []rpcfetch.TokenMetadata
}

func (c *countingFetcher) FetchBatch(_ context.Context, addresses []string) []rpcfetch.TokenMetadata {
	return c.fn(addresses)
}

func TestResolverDeduplicatesRequestedAddresses(t *testing.T) {
	st := newFakeStore()
	fetcher := &fakeFetcher{byAddress: map[string]rpcfetch.TokenMetadata{
		"0xabc": {Address: "0xabc", Symbol: "ABC", Decimals: 18, Ok: true},
	}}
	r := New(1, st, fetcher)
	result, err := r.Resolve(context.Background(), []string{"0xabc", "0xABC", "0xabc"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}
