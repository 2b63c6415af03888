// Package ingest buffers priced events, supply events and new-pool
// discoveries in memory and flushes them to ClickHouse in bulk,
// mirroring original_source/src/db/clickhouse/{client,ops}.rs's
// inserter model: one accumulator per append-only table, each with its
// own row-count/byte/period flush threshold, run under two distinct
// rate profiles (historical backfill vs. live tip).
//
// The teacher model also batched `transfers` and `token_search`
// tables; this indexer has no token_search equivalent, and transfer
// rows are carried as models.SupplyEvent instead.
package ingest

import (
	"context"
	"math"
	"time"

	"github.com/luxfi/dexindexer/internal/config"
	"github.com/luxfi/dexindexer/internal/metrics"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/observability"
	"github.com/luxfi/dexindexer/internal/pubsub"
	"github.com/luxfi/dexindexer/internal/store"
)

// Batch is one chain worker's processed output, routed to either the
// historical or live ingestor depending on how close its freshest
// block is to wall-clock time.
type Batch struct {
	ChainID      models.ChainID
	Events       []models.Event
	SupplyEvents []models.SupplyEvent
	NewPools     []models.NewPool
}

// Rate names an ingestor's throughput/latency profile, used as a
// metrics label.
type Rate string

const (
	RateHistorical Rate = "historical"
	RateLive       Rate = "live"
)

// ThresholdConfig bounds how long an accumulator holds rows before
// flushing: whichever of row count, estimated byte size, or elapsed
// time is hit first.
type ThresholdConfig struct {
	MaxRows  int
	MaxBytes int
	Period   time.Duration
}

// HistoricalConfig builds the high-throughput, high-latency profile
// used for backfill: large batches, infrequent flushes.
func HistoricalConfig(cfg config.ClickHouseSettings) ThresholdConfig {
	return ThresholdConfig{
		MaxRows:  cfg.HistoricalBatchSize,
		MaxBytes: 256 << 20,
		Period:   time.Duration(cfg.HistoricalMaxWaitSeconds) * time.Second,
	}
}

// LiveConfig builds the low-latency profile used for tip data: small
// batches, frequent flushes.
func LiveConfig(cfg config.ClickHouseSettings) ThresholdConfig {
	return ThresholdConfig{
		MaxRows:  cfg.LiveBatchSize,
		MaxBytes: 16 << 20,
		Period:   time.Duration(cfg.LiveMaxWaitMilliseconds) * time.Millisecond,
	}
}

// tableFlusher is the rate-agnostic interface every typed accumulator
// satisfies, letting Ingestor hold a uniform slice of tables.
type tableFlusher interface {
	tableName() string
	due(now time.Time) bool
	commit(ctx context.Context) (int, error)
	timeLeft(now time.Time) time.Duration
}

// tableAccumulator buffers rows of one type until a threshold is hit.
type tableAccumulator[T any] struct {
	name      string
	rows      []T
	rowBytes  int
	cfg       ThresholdConfig
	lastFlush time.Time
	flush     func(ctx context.Context, rows []T) error
}

func newTableAccumulator[T any](name string, rowBytes int, cfg ThresholdConfig, staggerFraction float64, flush func(context.Context, []T) error) *tableAccumulator[T] {
	return &tableAccumulator[T]{
		name:      name,
		rowBytes:  rowBytes,
		cfg:       cfg,
		lastFlush: time.Now().Add(-time.Duration(float64(cfg.Period) * staggerFraction)),
		flush:     flush,
	}
}

func (t *tableAccumulator[T]) add(rows ...T) {
	t.rows = append(t.rows, rows...)
}

func (t *tableAccumulator[T]) tableName() string { return t.name }

func (t *tableAccumulator[T]) due(now time.Time) bool {
	n := len(t.rows)
	if n == 0 {
		return false
	}
	if t.cfg.MaxRows > 0 && n >= t.cfg.MaxRows {
		return true
	}
	if t.cfg.MaxBytes > 0 && n*t.rowBytes >= t.cfg.MaxBytes {
		return true
	}
	return now.Sub(t.lastFlush) >= t.cfg.Period
}

func (t *tableAccumulator[T]) commit(ctx context.Context) (int, error) {
	if len(t.rows) == 0 {
		return 0, nil
	}
	n := len(t.rows)
	if err := t.flush(ctx, t.rows); err != nil {
		return 0, err
	}
	t.rows = t.rows[:0]
	t.lastFlush = time.Now()
	return n, nil
}

func (t *tableAccumulator[T]) timeLeft(now time.Time) time.Duration {
	if len(t.rows) == 0 {
		return time.Hour
	}
	if t.cfg.MaxRows > 0 && len(t.rows) >= t.cfg.MaxRows {
		return 0
	}
	left := t.cfg.Period - now.Sub(t.lastFlush)
	if left < 0 {
		return 0
	}
	return left
}

const (
	avgEventBytes       = 320
	avgSupplyEventBytes = 160
	avgNewPoolBytes     = 220
)

// Ingestor owns one rate profile's per-table accumulators and drains a
// channel of Batch values fed by the chain worker fleet.
type Ingestor struct {
	rate    Rate
	sink    store.EventSink
	pub     *pubsub.Publisher
	metrics *metrics.Registry
	log     observability.Logger

	events       *tableAccumulator[models.Event]
	supplyEvents *tableAccumulator[models.SupplyEvent]
	newPools     *tableAccumulator[models.NewPool]
	tables       []tableFlusher
}

// New builds an Ingestor for one rate profile. pub may be nil: only
// the live ingestor publishes to the tip broker.
func New(rate Rate, sink store.EventSink, pub *pubsub.Publisher, m *metrics.Registry, cfg ThresholdConfig) *Ingestor {
	g := &Ingestor{
		rate:    rate,
		sink:    sink,
		pub:     pub,
		metrics: m,
		log:     observability.New("ingest").With("rate", string(rate)),
	}

	g.events = newTableAccumulator("events", avgEventBytes, cfg, 0, sink.WriteEvents)
	g.supplyEvents = newTableAccumulator("supply_events", avgSupplyEventBytes, cfg, 0.1, sink.WriteSupplyEvents)
	g.newPools = newTableAccumulator("new_pools", avgNewPoolBytes, cfg, 0.2, sink.WriteNewPools)
	g.tables = []tableFlusher{g.events, g.supplyEvents, g.newPools}

	return g
}

func (g *Ingestor) absorb(b Batch) {
	if len(b.Events) > 0 {
		g.events.add(b.Events...)
	}
	if len(b.SupplyEvents) > 0 {
		g.supplyEvents.add(b.SupplyEvents...)
	}
	if len(b.NewPools) > 0 {
		g.newPools.add(b.NewPools...)
	}
}

func (g *Ingestor) publish(ctx context.Context, b Batch) {
	if g.pub == nil {
		return
	}
	for i := range b.Events {
		g.pub.Publish(ctx, pubsub.TopicEvents, b.ChainID, b.Events[i].PoolAddress, &b.Events[i])
	}
	for i := range b.NewPools {
		g.pub.Publish(ctx, pubsub.TopicNewPools, b.ChainID, b.NewPools[i].PoolAddress, &b.NewPools[i])
	}
}

// minTimeLeft reports how long until the soonest accumulator becomes
// due, so Run can sleep exactly that long instead of busy-polling.
func (g *Ingestor) minTimeLeft() time.Duration {
	now := time.Now()
	min := time.Duration(math.MaxInt64)
	for _, t := range g.tables {
		if left := t.timeLeft(now); left < min {
			min = left
		}
	}
	if min < 0 {
		min = 0
	}
	return min
}

// commitAll flushes every accumulator that has crossed its row, byte,
// or period threshold.
func (g *Ingestor) commitAll(ctx context.Context) {
	now := time.Now()
	totalRows, flushedTables := 0, 0
	for _, t := range g.tables {
		if !t.due(now) {
			continue
		}
		n, err := t.commit(ctx)
		if err != nil {
			g.log.Error("flush failed", "table", t.tableName(), "err", err)
			if g.metrics != nil {
				g.metrics.IngestFlushErrors.WithLabelValues(string(g.rate), t.tableName()).Inc()
			}
			continue
		}
		if n > 0 {
			totalRows += n
			flushedTables++
			if g.metrics != nil {
				g.metrics.IngestRowsFlushed.WithLabelValues(string(g.rate), t.tableName()).Add(float64(n))
			}
		}
	}
	if flushedTables > 0 {
		g.log.Info("flushed", "tables", flushedTables, "rows", totalRows)
	}
}

// endAll force-flushes every accumulator regardless of threshold,
// used on shutdown so no buffered rows are lost.
func (g *Ingestor) endAll(ctx context.Context) {
	for _, t := range g.tables {
		if _, err := t.commit(ctx); err != nil {
			g.log.Error("force flush failed", "table", t.tableName(), "err", err)
		}
	}
}

// Run drains in until it closes or ctx is canceled, absorbing every
// batch and periodically committing whichever accumulators are due.
// Cancellation is checked ahead of both the channel receive and the
// flush timer so a shutdown is never delayed behind a slow batch.
func (g *Ingestor) Run(ctx context.Context, in <-chan Batch) error {
	timer := time.NewTimer(g.minTimeLeft())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			g.endAll(context.Background())
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			g.endAll(context.Background())
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				g.endAll(context.Background())
				return nil
			}
			g.absorb(batch)
			g.publish(ctx, batch)
			g.commitAll(ctx)
		case <-timer.C:
			g.commitAll(ctx)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(g.minTimeLeft())
	}
}
