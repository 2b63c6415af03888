package cron

import (
	"context"
	"time"

	"github.com/luxfi/dexindexer/internal/models"
)

// runUpdate24hStats folds ClickHouse's trailing-24h swap aggregates
// into PostgreSQL's pools/tokens tables. Grounded on
// original_source/src/cron/jobs/update_24h_stats.rs.
func (s *Scheduler) runUpdate24hStats(ctx context.Context) error {
	poolStats, err := s.clickhouse.QueryPool24hStats(ctx)
	if err != nil {
		return err
	}
	if len(poolStats) > 0 {
		if err := s.postgres.UpdatePool24hStats(ctx, poolStats); err != nil {
			return err
		}
	}

	tokenStats, err := s.clickhouse.QueryToken24hStats(ctx)
	if err != nil {
		return err
	}
	if len(tokenStats) > 0 {
		if err := s.postgres.UpdateToken24hStats(ctx, tokenStats); err != nil {
			return err
		}
	}

	s.log.Info("update_24h_stats applied", "pools", len(poolStats), "tokens", len(tokenStats))
	return nil
}

// runUpdatePriceChanges folds ClickHouse candle-derived price changes
// into PostgreSQL. Grounded on
// original_source/src/cron/jobs/update_price_changes.rs.
func (s *Scheduler) runUpdatePriceChanges(ctx context.Context) error {
	poolChanges, err := s.clickhouse.QueryPoolPriceChanges(ctx)
	if err != nil {
		return err
	}
	poolsUpdated := 0
	if len(poolChanges) > 0 {
		poolsUpdated, err = s.postgres.UpdatePoolPriceChanges(ctx, poolChanges)
		if err != nil {
			return err
		}
	}

	tokenChanges, err := s.clickhouse.QueryTokenPriceChanges(ctx)
	if err != nil {
		return err
	}
	tokensUpdated := 0
	if len(tokenChanges) > 0 {
		tokensUpdated, err = s.postgres.UpdateTokenPriceChanges(ctx, tokenChanges)
		if err != nil {
			return err
		}
	}

	s.log.Info("update_price_changes applied", "pools", poolsUpdated, "tokens", tokensUpdated)
	return nil
}

// runRefreshMaterializedViews refreshes mv_pool_summary and
// mv_token_summary. Grounded on
// original_source/src/cron/jobs/refresh_materialized_views.rs.
func (s *Scheduler) runRefreshMaterializedViews(ctx context.Context) error {
	return s.postgres.RefreshMaterializedViews(ctx)
}

// runPoolSnapshots snapshots every pool with activity since its last
// run into ClickHouse's pool_snapshots table. Grounded on
// original_source/src/cron/jobs/pool_snapshots.rs.
func (s *Scheduler) runPoolSnapshots(ctx context.Context) error {
	since, err := s.lastRunOrDefault(ctx, jobPoolSnapshots, time.Hour)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	rows, err := s.postgres.QueryPoolsForSnapshot(ctx, since)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		s.log.Info("no pools to snapshot", "since", since)
		return s.checkpoints.SetCronCheckpoint(ctx, models.CronCheckpoint{JobName: jobPoolSnapshots, LastRunAt: now})
	}

	snapshots := make([]models.PoolSnapshot, len(rows))
	for i, r := range rows {
		fee := r.Fee
		snapshots[i] = models.PoolSnapshot{
			ChainID:     r.ChainID,
			PoolAddress: r.PoolAddress,
			Time:        now,
			Price:       r.Price,
			PriceUSD:    r.PriceUSD,
			TVLUSD:      r.TVLUSD,
			Reserve0:    r.Reserve0,
			Reserve1:    r.Reserve1,
			Liquidity:   r.Liquidity,
			Volume24h:   r.Volume24h,
			Swaps24h:    r.Swaps24h,
			Fees24h:     r.Volume24h * (float64(fee) / 1_000_000),
		}
	}
	if err := s.sink.WritePoolSnapshots(ctx, snapshots); err != nil {
		return err
	}

	s.log.Info("pool_snapshots written", "count", len(snapshots))
	return s.checkpoints.SetCronCheckpoint(ctx, models.CronCheckpoint{JobName: jobPoolSnapshots, LastRunAt: now})
}

// runTokenSnapshots is runPoolSnapshots's token-side counterpart.
// Grounded on original_source/src/cron/jobs/token_snapshots.rs.
func (s *Scheduler) runTokenSnapshots(ctx context.Context) error {
	since, err := s.lastRunOrDefault(ctx, jobTokenSnapshots, 24*time.Hour)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	rows, err := s.postgres.QueryTokensForSnapshot(ctx, since)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		s.log.Info("no tokens to snapshot", "since", since)
		return s.checkpoints.SetCronCheckpoint(ctx, models.CronCheckpoint{JobName: jobTokenSnapshots, LastRunAt: now})
	}

	snapshots := make([]models.TokenSnapshot, len(rows))
	for i, r := range rows {
		snapshots[i] = models.TokenSnapshot{
			ChainID:           r.ChainID,
			TokenAddress:      r.TokenAddress,
			Time:              now,
			PriceUSD:          r.PriceUSD,
			PriceOpen:         r.PriceUSD,
			PriceHigh:         r.PriceUSD,
			PriceLow:          r.PriceUSD,
			MarketCapUSD:      r.MarketCapUSD,
			CirculatingSupply: r.CirculatingSupply,
			VolumeUSD:         r.Volume24h,
			SwapCount:         r.Swaps24h,
			PoolCount:         uint32(r.PoolCount),
		}
	}
	if err := s.sink.WriteTokenSnapshots(ctx, snapshots); err != nil {
		return err
	}

	s.log.Info("token_snapshots written", "count", len(snapshots))
	return s.checkpoints.SetCronCheckpoint(ctx, models.CronCheckpoint{JobName: jobTokenSnapshots, LastRunAt: now})
}

func (s *Scheduler) lastRunOrDefault(ctx context.Context, jobName string, fallback time.Duration) (time.Time, error) {
	cp, err := s.checkpoints.GetCronCheckpoint(ctx, jobName)
	if err != nil {
		return time.Time{}, err
	}
	if cp.LastRunAt.IsZero() {
		return time.Now().UTC().Add(-fallback), nil
	}
	return cp.LastRunAt, nil
}
