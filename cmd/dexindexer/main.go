// dexindexer is the multi-chain DEX event indexer: it runs one
// streaming worker per configured chain, prices and persists decoded
// pool events, and runs the periodic analytics jobs that roll
// ClickHouse aggregates back into PostgreSQL — grounded on
// original_source/bin/runic.rs's run_indexer.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/luxfi/dexindexer/internal/chainworker"
	"github.com/luxfi/dexindexer/internal/config"
	"github.com/luxfi/dexindexer/internal/cron"
	"github.com/luxfi/dexindexer/internal/fleet"
	"github.com/luxfi/dexindexer/internal/ingest"
	"github.com/luxfi/dexindexer/internal/metrics"
	"github.com/luxfi/dexindexer/internal/observability"
	"github.com/luxfi/dexindexer/internal/pubsub"
	"github.com/luxfi/dexindexer/internal/rpcfetch"
	"github.com/luxfi/dexindexer/internal/shutdown"
	"github.com/luxfi/dexindexer/internal/store/clickhouse"
	"github.com/luxfi/dexindexer/internal/store/postgres"
	"github.com/luxfi/dexindexer/internal/streamclient"
)

const clientIdentifier = "dexindexer"

var app = &cli.App{
	Name:    clientIdentifier,
	Usage:   "multi-chain DEX event indexer",
	Version: "1.0.0",
	Action:  run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(*cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := observability.ValidateLevel(cfg.Observability.Level); err != nil {
		return err
	}

	log := observability.New("main")
	audit := observability.NewAuditLog(observability.RotationConfig{
		Path:       cfg.Observability.FilePath,
		MaxSizeMB:  cfg.Observability.MaxSizeMB,
		MaxBackups: cfg.Observability.MaxBackups,
		MaxAgeDays: cfg.Observability.MaxAgeDays,
	})
	defer audit.Close()

	ctx, cancel := shutdown.NotifyContext(context.Background())
	defer cancel()

	m := metrics.New()

	pg, err := postgres.New(ctx, postgres.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		PoolSize: cfg.Postgres.PoolSize,
	})
	if err != nil {
		audit.Record("startup_failed", map[string]any{"component": "postgres", "err": err.Error()})
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	ch, err := clickhouse.New(ctx, clickhouse.Config{
		Addr:     cfg.ClickHouse.URL,
		Database: cfg.ClickHouse.Database,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
	})
	if err != nil {
		audit.Record("startup_failed", map[string]any{"component": "clickhouse", "err": err.Error()})
		return fmt.Errorf("connect clickhouse: %w", err)
	}
	defer ch.Close()

	pub := pubsub.New(pubsub.Config{
		Enabled:     cfg.Redpanda.Enabled,
		Brokers:     cfg.Redpanda.Brokers,
		TopicPrefix: cfg.Redpanda.TopicPrefix,
	}, m)
	defer pub.Close()

	// Bounded at 128 batches each: when an ingestor falls behind, a
	// chain worker's send blocks until there is room again, which is the
	// backpressure from the ingestors to the fleet.
	historicalCh := make(chan ingest.Batch, 128)
	liveCh := make(chan ingest.Batch, 128)

	historicalIngestor := ingest.New(ingest.RateHistorical, ch, nil, m, ingest.HistoricalConfig(cfg.ClickHouse))
	liveIngestor := ingest.New(ingest.RateLive, ch, pub, m, ingest.LiveConfig(cfg.ClickHouse))

	fleetMgr := fleet.New(fleet.Deps{
		ChainConfigs:    pg,
		Pools:           pg,
		Tokens:          pg,
		Checkpoints:     pg,
		NativePrices:    pg,
		StreamDialer:    streamclient.NewHTTPDialer(cfg.Indexer.HypersyncBearerToken),
		RPCDialer:       rpcDialer{rpcfetch.NewDialer()},
		HistoricalOut:   historicalCh,
		LiveOut:         liveCh,
		Metrics:         m,
		TipPollInterval: time.Duration(cfg.Indexer.TipPollIntervalMilliseconds) * time.Millisecond,
	})

	scheduler := cron.New(ch, pg, pg, ch, m, cron.Settings{
		UpdateStatsIntervalSeconds:   cfg.Cron.UpdateStatsIntervalSeconds,
		RefreshMVIntervalSeconds:     cfg.Cron.RefreshMVIntervalSeconds,
		PoolSnapshotIntervalSeconds:  cfg.Cron.PoolSnapshotIntervalSeconds,
		TokenSnapshotIntervalSeconds: cfg.Cron.TokenSnapshotIntervalSeconds,
	})

	metricsErrCh := make(chan error, 1)
	go func() { metricsErrCh <- m.Serve(ctx, cfg.Metrics.ListenAddr) }()

	coordinator := shutdown.New()
	log.Info("dexindexer starting", "metrics_addr", cfg.Metrics.ListenAddr)

	// The ingestors consume historicalCh/liveCh for the whole run. Each
	// Run loop force-flushes and returns once its channel is closed.
	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		coordinator.WaitGroup(context.Background(),
			shutdown.Component{Name: "historical-ingestor", Run: func(ctx context.Context) error { return historicalIngestor.Run(ctx, historicalCh) }},
			shutdown.Component{Name: "live-ingestor", Run: func(ctx context.Context) error { return liveIngestor.Run(ctx, liveCh) }},
		)
	}()

	// Phase 1: run the chain fleet and cron scheduler until shutdown is
	// requested. Both watch ctx and return once stopped; only after
	// both have fully stopped is it safe to close the ingest channels
	// they write to.
	coordinator.WaitGroup(ctx,
		shutdown.Component{Name: "fleet", Run: fleetMgr.Run},
		shutdown.Component{Name: "cron", Run: scheduler.Run},
	)
	close(historicalCh)
	close(liveCh)

	// Phase 2: wait for the ingestors to drain and flush whatever the
	// fleet had buffered, for at most shutdown.StopTimeout.
	select {
	case <-ingestDone:
	case <-time.After(shutdown.StopTimeout):
		log.Warn("ingestors did not finish flushing within the stop timeout")
	}

	if err := <-metricsErrCh; err != nil {
		log.Warn("metrics server exited with error", "err", err)
	}

	log.Info("dexindexer stopped")
	return nil
}

// rpcDialer adapts *rpcfetch.Dialer to fleet.RPCDialer: Go interface
// satisfaction needs the exact chainworker.TokenFetcher return type,
// which rpcfetch can't name directly without an import cycle back
// through chainworker.
type rpcDialer struct {
	d *rpcfetch.Dialer
}

func (r rpcDialer) Dial(ctx context.Context, rpcURL string) (chainworker.TokenFetcher, error) {
	return r.d.Dial(ctx, rpcURL)
}
