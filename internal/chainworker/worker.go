// Package chainworker drives one chain's continuous indexing loop:
// pull a batch of logs from the stream, decode it, resolve tokens,
// apply it to pool state, price it, persist it, and advance the
// chain's checkpoint — grounded on original_source/src/worker/worker.rs.
package chainworker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/dexindexer/internal/classify"
	"github.com/luxfi/dexindexer/internal/ingest"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/observability"
	"github.com/luxfi/dexindexer/internal/parser"
	"github.com/luxfi/dexindexer/internal/rpcfetch"
	"github.com/luxfi/dexindexer/internal/store"
	"github.com/luxfi/dexindexer/internal/streamclient"
	"github.com/luxfi/dexindexer/internal/tokens"
)

// TokenFetcher is the remote-metadata layer a Worker's token resolver
// falls back to for addresses the store doesn't already know.
// Satisfied by *rpcfetch.Fetcher.
type TokenFetcher interface {
	FetchBatch(ctx context.Context, addresses []string) []rpcfetch.TokenMetadata
}

const (
	// streamRecvTimeout bounds how long the worker waits for the next
	// batch before treating the stream as dead and reconnecting.
	streamRecvTimeout = 300 * time.Second

	// tipThreshold is how close a batch's freshest block timestamp must
	// be to wall-clock time to be routed to the live ingestor instead
	// of the historical one.
	tipThreshold = 60 * time.Second

	// progressLogInterval throttles in-stream progress logging.
	progressLogInterval = 10 * time.Second

	// pricingCacheBytes sizes the per-batch pricing engine's token
	// price cache.
	pricingCacheBytes = 4 << 20
)

// ErrCheckpointWriteFailed signals that a batch was durably written to
// the stores but the checkpoint advance failed — the worker must stop
// rather than risk re-processing (and double-counting) the same
// blocks on restart with a stale checkpoint pointed earlier.
var ErrCheckpointWriteFailed = errors.New("chainworker: checkpoint write failed, stopping to prevent data loss")

// Config wires a Worker's dependencies for one chain.
type Config struct {
	Chain   models.ChainConfig
	Dialer  streamclient.Dialer
	Pools   store.PoolStore
	Tokens  store.TokenStore
	Checkpoints store.CheckpointStore
	NativePrices store.NativePriceStore
	TokenFetcher TokenFetcher

	HistoricalOut chan<- ingest.Batch
	LiveOut       chan<- ingest.Batch

	TipPollInterval time.Duration
}

// Worker runs the batch loop for a single chain until its context is
// canceled.
type Worker struct {
	chain        models.ChainConfig
	chainTokens  *classify.ChainTokens
	dialer       streamclient.Dialer
	pools        store.PoolStore
	tokenStore   store.TokenStore
	checkpoints  store.CheckpointStore
	nativePrices store.NativePriceStore
	resolver     *tokens.Resolver

	historicalOut chan<- ingest.Batch
	liveOut       chan<- ingest.Batch

	tipPollInterval time.Duration
	log             observability.Logger

	lastProgressLog time.Time
}

// New builds a Worker for one chain. Chain addresses are normalized
// (lowercased) before being used to build the classifier.
func New(cfg Config) *Worker {
	chain := cfg.Chain
	chain.Normalize()

	chainTokens := classify.New(
		chain.NativeTokenAddress,
		chain.StableTokenAddress,
		chain.MajorTokens,
		chain.Stablecoins,
		chain.StablePoolAddress,
	)

	tipPoll := cfg.TipPollInterval
	if tipPoll <= 0 {
		tipPoll = 200 * time.Millisecond
	}

	return &Worker{
		chain:           chain,
		chainTokens:     chainTokens,
		dialer:          cfg.Dialer,
		pools:           cfg.Pools,
		tokenStore:      cfg.Tokens,
		checkpoints:     cfg.Checkpoints,
		nativePrices:    cfg.NativePrices,
		resolver:        tokens.New(chain.ChainID, cfg.Tokens, cfg.TokenFetcher),
		historicalOut:   cfg.HistoricalOut,
		liveOut:         cfg.LiveOut,
		tipPollInterval: tipPoll,
		log:             observability.New("chainworker").With("chain_id", chain.ChainID, "chain_name", chain.Name),
	}
}

// Run seeds the chain's wrapped-native token and then loops opening a
// stream from the last checkpoint, processing batches until the
// stream errors (triggering a reconnect) or ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.resolver.SeedWrappedNative(ctx, w.chain); err != nil {
		w.log.Warn("seed wrapped-native token failed", "err", err)
	}

	topics := parser.EventTopics()

	for ctx.Err() == nil {
		fromBlock := w.readCheckpoint(ctx)

		stream, err := w.dialer.Dial(ctx, w.chain.StreamURL, fromBlock, topics)
		if err != nil {
			w.log.Error("dial stream failed", "err", err)
			if !sleepOrDone(ctx, w.tipPollInterval) {
				return ctx.Err()
			}
			continue
		}

		lastBlock, streamErr := w.drainStream(ctx, stream, fromBlock)
		stream.Close()

		if streamErr != nil {
			if errors.Is(streamErr, ErrCheckpointWriteFailed) {
				return streamErr
			}
			w.log.Warn("stream ended, reconnecting", "err", streamErr)
		} else {
			// Stream ended cleanly (rare). Write a heartbeat checkpoint
			// at the same block with a fresh timestamp so lag dashboards
			// don't false-positive during a quiet period.
			w.writeHeartbeat(ctx, lastBlock)
		}

		if !sleepOrDone(ctx, w.tipPollInterval) {
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (w *Worker) readCheckpoint(ctx context.Context) uint64 {
	cp, err := w.checkpoints.GetCheckpoint(ctx, w.chain.ChainID)
	if err != nil {
		w.log.Warn("read checkpoint failed, starting from block 0", "err", err)
		return 0
	}
	return cp.LastIndexedBlock
}

func (w *Worker) writeHeartbeat(ctx context.Context, block uint64) {
	err := w.checkpoints.SetCheckpoint(ctx, models.SyncCheckpoint{
		ChainID:          w.chain.ChainID,
		LastIndexedBlock: block,
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		w.log.Warn("heartbeat checkpoint write failed", "err", err)
	}
}

// drainStream reads batches from stream until it errors or ctx is
// canceled, processing each one in turn. It returns the last block
// number successfully committed, for the heartbeat checkpoint.
func (w *Worker) drainStream(ctx context.Context, stream streamclient.Stream, fromBlock uint64) (uint64, error) {
	lastBlock := fromBlock
	w.lastProgressLog = time.Now()

	for {
		if ctx.Err() != nil {
			return lastBlock, ctx.Err()
		}

		recvCtx, cancel := context.WithTimeout(ctx, streamRecvTimeout)
		batch, err := stream.Next(recvCtx)
		cancel()
		if err != nil {
			return lastBlock, fmt.Errorf("stream recv: %w", err)
		}
		if batch == nil {
			return lastBlock, nil
		}

		if err := w.processBatch(ctx, batch); err != nil {
			return lastBlock, err
		}
		if batch.NextBlock > lastBlock {
			lastBlock = batch.NextBlock
		}

		if time.Since(w.lastProgressLog) >= progressLogInterval {
			w.log.Info("progress", "block", lastBlock)
			w.lastProgressLog = time.Now()
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func sortDedup(addrs []string) []string {
	if len(addrs) == 0 {
		return addrs
	}
	sort.Strings(addrs)
	out := addrs[:1]
	for _, a := range addrs[1:] {
		if a != out[len(out)-1] {
			out = append(out, a)
		}
	}
	return out
}

// batchState carries the mutable, in-progress state for one call to
// processBatch: the native-token price observed so far (updated live
// as the stable pool is touched) and the pool/token working sets.
type batchState struct {
	nativeTokenPriceUSD float64
	pools               map[string]models.Pool
	tokens              map[string]models.Token
}

func (w *Worker) processBatch(ctx context.Context, raw *streamclient.Batch) error {
	blockTimestamps := make(map[uint64]uint64, len(raw.Blocks))
	for _, b := range raw.Blocks {
		blockTimestamps[b.Number] = b.Timestamp
	}

	parsed, err := parser.ParseLogs(raw.Logs, blockTimestamps, w.chainTokens)
	if err != nil {
		return fmt.Errorf("parse logs: %w", err)
	}
	if len(parsed.ParsedLogs) == 0 {
		return nil
	}

	modifiedPools := sortDedup(parsed.ModifiedPoolAddresses)
	tokenAddresses := append([]string{}, parsed.TokenAddresses...)

	existingPools, err := w.pools.GetPools(ctx, w.chain.ChainID, modifiedPools)
	if err != nil {
		return fmt.Errorf("load pools: %w", err)
	}
	for _, p := range existingPools {
		tokenAddresses = append(tokenAddresses, p.Token0, p.Token1)
	}
	tokenAddresses = sortDedup(tokenAddresses)

	resolvedTokens, err := w.resolver.Resolve(ctx, tokenAddresses)
	if err != nil {
		return fmt.Errorf("resolve tokens: %w", err)
	}

	state := &batchState{
		nativeTokenPriceUSD: w.lastKnownNativePrice(ctx),
		pools:               existingPools,
		tokens:              resolvedTokens,
	}

	newPools, supplyEvents, events := w.applyParsedLogs(parsed.ParsedLogs, state)

	w.priceBatch(events, newPools, state)

	if err := w.persistBatch(ctx, state, events, supplyEvents, newPools); err != nil {
		return err
	}

	w.routeToIngestor(raw, events, supplyEvents, newPools)

	lastBlock := fromBlockOf(raw)
	if err := w.checkpoints.SetCheckpoint(ctx, models.SyncCheckpoint{
		ChainID:          w.chain.ChainID,
		LastIndexedBlock: lastBlock,
		UpdatedAt:        time.Now().UTC(),
	}); err != nil {
		w.log.Error("checkpoint write failed after successful persist", "err", err)
		return ErrCheckpointWriteFailed
	}

	w.persistNativePrice(ctx, state.nativeTokenPriceUSD)

	return nil
}

func fromBlockOf(raw *streamclient.Batch) uint64 {
	if raw.NextBlock > 0 {
		return raw.NextBlock
	}
	max := uint64(0)
	for _, b := range raw.Blocks {
		if b.Number > max {
			max = b.Number
		}
	}
	return max
}

func (w *Worker) lastKnownNativePrice(ctx context.Context) float64 {
	price, err := w.nativePrices.GetNativePrice(ctx, w.chain.ChainID)
	if err != nil {
		return 0
	}
	return price.PriceUSD
}

func (w *Worker) persistNativePrice(ctx context.Context, priceUSD float64) {
	if priceUSD <= 0 {
		return
	}
	err := w.nativePrices.SetNativePrice(ctx, models.NativeTokenPrice{
		ChainID:   w.chain.ChainID,
		PriceUSD:  priceUSD,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		w.log.Warn("native price persist failed", "err", err)
	}
}

// persistBatch writes priced pools and tokens to their relational
// stores in parallel, mirroring the teacher's tokio::join! pairing.
func (w *Worker) persistBatch(ctx context.Context, state *batchState, events []models.Event, supplyEvents []models.SupplyEvent, newPools []models.NewPool) error {
	pools := make([]models.Pool, 0, len(state.pools))
	for _, p := range state.pools {
		pools = append(pools, p)
	}
	toks := make([]models.Token, 0, len(state.tokens))
	for _, tk := range state.tokens {
		toks = append(toks, tk)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(pools) == 0 {
			return nil
		}
		return w.pools.UpsertPools(gctx, pools)
	})
	g.Go(func() error {
		if len(toks) == 0 {
			return nil
		}
		return w.tokenStore.UpsertTokens(gctx, toks)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("persist batch: %w", err)
	}
	return nil
}

func (w *Worker) routeToIngestor(raw *streamclient.Batch, events []models.Event, supplyEvents []models.SupplyEvent, newPools []models.NewPool) {
	if len(events) == 0 && len(supplyEvents) == 0 && len(newPools) == 0 {
		return
	}

	batch := ingest.Batch{
		ChainID:      w.chain.ChainID,
		Events:       events,
		SupplyEvents: supplyEvents,
		NewPools:     newPools,
	}

	out := w.historicalOut
	if w.isTip(raw) {
		out = w.liveOut
	}
	if out == nil {
		return
	}
	out <- batch
}

func (w *Worker) isTip(raw *streamclient.Batch) bool {
	var maxTimestamp uint64
	for _, b := range raw.Blocks {
		if b.Timestamp > maxTimestamp {
			maxTimestamp = b.Timestamp
		}
	}
	if maxTimestamp == 0 {
		return false
	}
	age := time.Since(time.Unix(int64(maxTimestamp), 0))
	return age < tipThreshold
}

// zeroAddress is the sentinel address creation events must never carry
// as their new pool/pair address — a zero address there indicates a
// malformed or spoofed log.
const zeroAddress = "0x0000000000000000000000000000000000000000"
