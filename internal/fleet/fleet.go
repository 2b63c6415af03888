// Package fleet runs and supervises one chainworker.Worker per enabled
// chain, polling the chain configuration table for changes and
// starting/stopping workers to match — grounded on
// original_source/src/worker/chains.rs's ChainManager.
package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/luxfi/dexindexer/internal/chainworker"
	"github.com/luxfi/dexindexer/internal/ingest"
	"github.com/luxfi/dexindexer/internal/metrics"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/observability"
	"github.com/luxfi/dexindexer/internal/store"
	"github.com/luxfi/dexindexer/internal/streamclient"
)

const (
	// refreshInterval is how often the fleet re-reads chain
	// configuration to pick up newly enabled/disabled/changed chains.
	refreshInterval = 30 * time.Second

	// pollInterval is how often the run loop wakes to check whether
	// refreshInterval has elapsed, kept short so cancellation is never
	// stuck behind a long sleep.
	pollInterval = 10 * time.Second

	// stopTimeout bounds how long Manager waits for a worker to exit
	// after its context is canceled before giving up and moving on —
	// a wedged worker must never block the rest of the fleet from
	// restarting or the process from shutting down.
	stopTimeout = 10 * time.Second
)

// RPCDialer opens an RPC client for a chain's token-metadata fetcher.
// Satisfied by a thin wrapper around ethclient.Dial; kept as an
// interface so tests can substitute a fake.
type RPCDialer interface {
	Dial(ctx context.Context, rpcURL string) (chainworker.TokenFetcher, error)
}

// Deps bundles the dependencies every chain worker needs, shared
// across the whole fleet.
type Deps struct {
	ChainConfigs store.ChainConfigStore
	Pools        store.PoolStore
	Tokens       store.TokenStore
	Checkpoints  store.CheckpointStore
	NativePrices store.NativePriceStore

	StreamDialer streamclient.Dialer
	RPCDialer    RPCDialer

	HistoricalOut chan<- ingest.Batch
	LiveOut       chan<- ingest.Batch

	Metrics *metrics.Registry

	TipPollInterval time.Duration
}

type runningChain struct {
	cancel context.CancelFunc
	done   chan struct{}
	config models.ChainConfig
}

// Manager owns the set of currently-running chain workers and keeps it
// in sync with the chain_configs table.
type Manager struct {
	deps Deps
	log  observability.Logger

	mu      sync.Mutex
	running map[models.ChainID]*runningChain
}

// New builds a Manager. Call Run to start the supervision loop.
func New(deps Deps) *Manager {
	return &Manager{
		deps:    deps,
		log:     observability.New("fleet"),
		running: make(map[models.ChainID]*runningChain),
	}
}

// Run refreshes the fleet immediately, then again every
// refreshInterval, until ctx is canceled — at which point every
// running worker is stopped before Run returns.
func (m *Manager) Run(ctx context.Context) error {
	m.refresh(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastRefresh := time.Now()
	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			return ctx.Err()
		case <-ticker.C:
			if time.Since(lastRefresh) >= refreshInterval {
				m.refresh(ctx)
				lastRefresh = time.Now()
			}
		}
	}
}

func (m *Manager) refresh(ctx context.Context) {
	configs, err := m.deps.ChainConfigs.ListChainConfigs(ctx)
	if err != nil {
		m.log.Error("refresh: list chain configs failed", "err", err)
		return
	}

	wanted := make(map[models.ChainID]models.ChainConfig, len(configs))
	for _, c := range configs {
		if c.Enabled {
			c.Normalize()
			wanted[c.ChainID] = c
		}
	}

	m.mu.Lock()
	toStop := make([]models.ChainID, 0)
	for chainID, rc := range m.running {
		cfg, stillWanted := wanted[chainID]
		if !stillWanted || !cfg.Equal(&rc.config) {
			toStop = append(toStop, chainID)
		}
	}
	m.mu.Unlock()

	for _, chainID := range toStop {
		m.stopChain(chainID)
	}

	for chainID, cfg := range wanted {
		m.mu.Lock()
		_, running := m.running[chainID]
		m.mu.Unlock()
		if !running {
			m.startChain(ctx, cfg)
		}
	}
}

func (m *Manager) startChain(parentCtx context.Context, cfg models.ChainConfig) {
	m.mu.Lock()
	if _, exists := m.running[cfg.ChainID]; exists {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(parentCtx)
	done := make(chan struct{})

	var fetcher chainworker.TokenFetcher
	if m.deps.RPCDialer != nil {
		var err error
		fetcher, err = m.deps.RPCDialer.Dial(ctx, cfg.RPCURL)
		if err != nil {
			m.log.Error("start chain: dial RPC failed", "chain_id", cfg.ChainID, "err", err)
			cancel()
			return
		}
	}

	worker := chainworker.New(chainworker.Config{
		Chain:           cfg,
		Dialer:          m.deps.StreamDialer,
		Pools:           m.deps.Pools,
		Tokens:          m.deps.Tokens,
		Checkpoints:     m.deps.Checkpoints,
		NativePrices:    m.deps.NativePrices,
		TokenFetcher:    fetcher,
		HistoricalOut:   m.deps.HistoricalOut,
		LiveOut:         m.deps.LiveOut,
		TipPollInterval: m.deps.TipPollInterval,
	})

	m.mu.Lock()
	m.running[cfg.ChainID] = &runningChain{cancel: cancel, done: done, config: cfg}
	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveWorkers.Set(float64(len(m.running)))
	}
	m.mu.Unlock()

	m.log.Info("starting chain worker", "chain_id", cfg.ChainID, "chain_name", cfg.Name)

	go func() {
		defer close(done)
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			m.log.Error("chain worker exited with error", "chain_id", cfg.ChainID, "err", err)
		}
	}()
}

func (m *Manager) stopChain(chainID models.ChainID) {
	m.mu.Lock()
	rc, ok := m.running[chainID]
	if ok {
		delete(m.running, chainID)
		if m.deps.Metrics != nil {
			m.deps.Metrics.ActiveWorkers.Set(float64(len(m.running)))
		}
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.log.Info("stopping chain worker", "chain_id", chainID)
	rc.cancel()

	select {
	case <-rc.done:
	case <-time.After(stopTimeout):
		m.log.Warn("chain worker did not stop within timeout, continuing", "chain_id", chainID)
	}
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	chainIDs := make([]models.ChainID, 0, len(m.running))
	for chainID := range m.running {
		chainIDs = append(chainIDs, chainID)
	}
	m.mu.Unlock()

	for _, chainID := range chainIDs {
		m.stopChain(chainID)
	}
}
