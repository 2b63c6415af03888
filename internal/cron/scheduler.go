// Package cron runs the indexer's periodic maintenance jobs: rolling
// 24h stats, 24h/7d price changes, materialized view refreshes, and
// pool/token snapshots — grounded on
// original_source/src/cron/scheduler.rs's CronScheduler, reimplemented
// over github.com/robfig/cron/v3 in place of tokio_cron_scheduler.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/luxfi/dexindexer/internal/metrics"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/observability"
)

// AnalyticsSource reads ClickHouse aggregates the stats/price-change
// jobs need. Satisfied by store/clickhouse.Store.
type AnalyticsSource interface {
	QueryPool24hStats(ctx context.Context) ([]models.PoolStatUpdate, error)
	QueryToken24hStats(ctx context.Context) ([]models.TokenStatUpdate, error)
	QueryPoolPriceChanges(ctx context.Context) ([]models.PoolPriceChangeUpdate, error)
	QueryTokenPriceChanges(ctx context.Context) ([]models.TokenPriceChangeUpdate, error)
}

// AnalyticsSink applies aggregated stats to PostgreSQL and refreshes
// its materialized views. Satisfied by store/postgres.Store.
type AnalyticsSink interface {
	UpdatePool24hStats(ctx context.Context, rows []models.PoolStatUpdate) error
	UpdateToken24hStats(ctx context.Context, rows []models.TokenStatUpdate) error
	UpdatePoolPriceChanges(ctx context.Context, rows []models.PoolPriceChangeUpdate) (int, error)
	UpdateTokenPriceChanges(ctx context.Context, rows []models.TokenPriceChangeUpdate) (int, error)
	RefreshMaterializedViews(ctx context.Context) error
	QueryPoolsForSnapshot(ctx context.Context, since time.Time) ([]models.PoolSnapshotSource, error)
	QueryTokensForSnapshot(ctx context.Context, since time.Time) ([]models.TokenSnapshotSource, error)
}

// CheckpointStore scopes the snapshot jobs' read window to "rows
// touched since the job's last successful run."
type CheckpointStore interface {
	GetCronCheckpoint(ctx context.Context, jobName string) (models.CronCheckpoint, error)
	SetCronCheckpoint(ctx context.Context, checkpoint models.CronCheckpoint) error
}

// SnapshotSink is the append-only write path for the two snapshot
// jobs.
type SnapshotSink interface {
	WritePoolSnapshots(ctx context.Context, snapshots []models.PoolSnapshot) error
	WriteTokenSnapshots(ctx context.Context, snapshots []models.TokenSnapshot) error
}

const (
	jobUpdate24hStats   = "update_24h_stats"
	jobUpdatePriceChanges = "update_price_changes"
	jobRefreshMV        = "refresh_materialized_views"
	jobPoolSnapshots    = "pool_snapshots"
	jobTokenSnapshots   = "token_snapshots"
)

// Settings mirrors config.CronSettings, kept as a narrow struct so
// this package doesn't need to import internal/config.
type Settings struct {
	UpdateStatsIntervalSeconds    int
	RefreshMVIntervalSeconds      int
	PoolSnapshotIntervalSeconds   int
	TokenSnapshotIntervalSeconds int
}

// Scheduler owns the cron.Cron instance and every registered job.
type Scheduler struct {
	clickhouse  AnalyticsSource
	postgres    AnalyticsSink
	checkpoints CheckpointStore
	sink        SnapshotSink
	metrics     *metrics.Registry
	settings    Settings
	log         observability.Logger

	c *cron.Cron
}

// New builds a Scheduler. Call Run to register jobs and block until
// ctx is canceled.
func New(clickhouse AnalyticsSource, postgres AnalyticsSink, checkpoints CheckpointStore, sink SnapshotSink, m *metrics.Registry, settings Settings) *Scheduler {
	return &Scheduler{
		clickhouse:  clickhouse,
		postgres:    postgres,
		checkpoints: checkpoints,
		sink:        sink,
		metrics:     m,
		settings:    settings,
		log:         observability.New("cron"),
		c:           cron.New(),
	}
}

// Run registers every job at its configured interval and blocks until
// ctx is canceled, at which point it stops the scheduler and waits for
// any in-flight job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.register(ctx); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}

	s.c.Start()
	s.log.Info("cron scheduler started", "jobs", 5)

	<-ctx.Done()
	s.log.Info("cron scheduler shutting down")
	stopCtx := s.c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

func (s *Scheduler) register(ctx context.Context) error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{jobUpdate24hStats, s.intervalOrDefault(s.settings.UpdateStatsIntervalSeconds, 900), s.runUpdate24hStats},
		{jobUpdatePriceChanges, s.intervalOrDefault(s.settings.UpdateStatsIntervalSeconds, 900), s.runUpdatePriceChanges},
		{jobRefreshMV, s.intervalOrDefault(s.settings.RefreshMVIntervalSeconds, 300), s.runRefreshMaterializedViews},
		{jobPoolSnapshots, s.intervalOrDefault(s.settings.PoolSnapshotIntervalSeconds, 3600), s.runPoolSnapshots},
		{jobTokenSnapshots, s.intervalOrDefault(s.settings.TokenSnapshotIntervalSeconds, 3600), s.runTokenSnapshots},
	}

	for _, j := range jobs {
		job := j
		spec := fmt.Sprintf("@every %s", job.interval)
		_, err := s.c.AddFunc(spec, func() {
			s.runJob(ctx, job.name, job.run)
		})
		if err != nil {
			return fmt.Errorf("schedule job %q: %w", job.name, err)
		}
		s.log.Info("registered cron job", "job", job.name, "interval", job.interval)
	}
	return nil
}

func (s *Scheduler) intervalOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func (s *Scheduler) runJob(ctx context.Context, name string, run func(context.Context) error) {
	start := time.Now()
	err := run(ctx)
	if s.metrics != nil {
		s.metrics.CronJobRuns.WithLabelValues(name).Inc()
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.CronJobErrors.WithLabelValues(name).Inc()
		}
		s.log.Error("cron job failed", "job", name, "err", err, "elapsed", time.Since(start))
		return
	}
	s.log.Info("cron job completed", "job", name, "elapsed", time.Since(start))
}
