package fleet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/ingest"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/streamclient"
)

type fakeChainConfigStore struct {
	mu      sync.Mutex
	configs []models.ChainConfig
}

func (f *fakeChainConfigStore) set(configs []models.ChainConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = configs
}

func (f *fakeChainConfigStore) ListChainConfigs(ctx context.Context) ([]models.ChainConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ChainConfig, len(f.configs))
	copy(out, f.configs)
	return out, nil
}

type fakeDialer struct{}

func (fakeDialer) Dial(ctx context.Context, streamURL string, fromBlock uint64, topics []common.Hash) (streamclient.Stream, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeCheckpoints struct{}

func (fakeCheckpoints) GetCheckpoint(ctx context.Context, chainID models.ChainID) (models.SyncCheckpoint, error) {
	return models.SyncCheckpoint{ChainID: chainID}, nil
}
func (fakeCheckpoints) SetCheckpoint(ctx context.Context, cp models.SyncCheckpoint) error { return nil }

type fakePools struct{}

func (fakePools) GetPools(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Pool, error) {
	return nil, nil
}
func (fakePools) UpsertPools(ctx context.Context, pools []models.Pool) error { return nil }

type fakeTokens struct{}

func (fakeTokens) GetTokens(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Token, error) {
	out := make(map[string]models.Token, len(addresses))
	for _, addr := range addresses {
		out[addr] = models.Token{ChainID: chainID, Address: addr, Symbol: "TOK", Decimals: 18}
	}
	return out, nil
}
func (fakeTokens) UpsertTokens(ctx context.Context, tokens []models.Token) error { return nil }

type fakeNativePrices struct{}

func (fakeNativePrices) GetNativePrice(ctx context.Context, chainID models.ChainID) (models.NativeTokenPrice, error) {
	return models.NativeTokenPrice{}, nil
}
func (fakeNativePrices) SetNativePrice(ctx context.Context, price models.NativeTokenPrice) error {
	return nil
}

func newTestDeps(store *fakeChainConfigStore) Deps {
	historical := make(chan ingest.Batch, 1)
	live := make(chan ingest.Batch, 1)
	return Deps{
		ChainConfigs:    store,
		Pools:           fakePools{},
		Tokens:          fakeTokens{},
		Checkpoints:     fakeCheckpoints{},
		NativePrices:    fakeNativePrices{},
		StreamDialer:    fakeDialer{},
		HistoricalOut:   historical,
		LiveOut:         live,
		TipPollInterval: 5 * time.Millisecond,
	}
}

func TestRefreshStartsEnabledChains(t *testing.T) {
	store := &fakeChainConfigStore{}
	store.set([]models.ChainConfig{{ChainID: 1, Name: "chain-one", Enabled: true}})

	m := New(newTestDeps(store))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.refresh(ctx)

	m.mu.Lock()
	_, running := m.running[1]
	m.mu.Unlock()
	require.True(t, running)
}

func TestRefreshStopsDisabledChains(t *testing.T) {
	store := &fakeChainConfigStore{}
	store.set([]models.ChainConfig{{ChainID: 1, Name: "chain-one", Enabled: true}})

	m := New(newTestDeps(store))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.refresh(ctx)
	store.set(nil)
	m.refresh(ctx)

	m.mu.Lock()
	_, running := m.running[1]
	m.mu.Unlock()
	assert.False(t, running)
}

func TestRefreshRestartsChainOnConfigChange(t *testing.T) {
	store := &fakeChainConfigStore{}
	store.set([]models.ChainConfig{{ChainID: 1, Name: "chain-one", Enabled: true, RPCURL: "http://a"}})

	m := New(newTestDeps(store))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.refresh(ctx)
	m.mu.Lock()
	before := m.running[1]
	m.mu.Unlock()
	require.NotNil(t, before)

	store.set([]models.ChainConfig{{ChainID: 1, Name: "chain-one", Enabled: true, RPCURL: "http://b"}})
	m.refresh(ctx)

	m.mu.Lock()
	after := m.running[1]
	m.mu.Unlock()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
}
