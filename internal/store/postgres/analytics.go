package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/dexindexer/internal/models"
)

// UpdatePool24hStats bulk-applies volume_24h/swaps_24h/last_swap_at for
// every pool ClickHouse reports activity for in the trailing window,
// via a single UNNEST-joined UPDATE. Grounded on
// original_source/src/cron/jobs/update_24h_stats.rs's
// update_pool_stats.
func (s *Store) UpdatePool24hStats(ctx context.Context, rows []models.PoolStatUpdate) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]int64, len(rows))
	addresses := make([]string, len(rows))
	volumes := make([]float64, len(rows))
	swaps := make([]int64, len(rows))
	lastSwaps := make([]interface{}, len(rows))
	for i, r := range rows {
		chainIDs[i] = int64(r.ChainID)
		addresses[i] = r.PoolAddress
		volumes[i] = r.Volume24h
		swaps[i] = int64(r.Swaps24h)
		lastSwaps[i] = r.LastSwapAt
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE indexer.pools p
		SET volume_24h = data.volume_24h,
		    swaps_24h = data.swaps_24h,
		    last_swap_at = data.last_swap_at,
		    updated_at = NOW()
		FROM (
			SELECT * FROM UNNEST($1::bigint[], $2::text[], $3::float8[], $4::bigint[], $5::timestamptz[])
			AS t(chain_id, address, volume_24h, swaps_24h, last_swap_at)
		) AS data
		WHERE p.chain_id = data.chain_id AND p.address = data.address`,
		chainIDs, addresses, volumes, swaps, lastSwaps,
	)
	if err != nil {
		return fmt.Errorf("update pool 24h stats: %w", err)
	}
	return nil
}

// UpdateToken24hStats is UpdatePool24hStats's token-side counterpart.
func (s *Store) UpdateToken24hStats(ctx context.Context, rows []models.TokenStatUpdate) error {
	if len(rows) == 0 {
		return nil
	}
	chainIDs := make([]int64, len(rows))
	addresses := make([]string, len(rows))
	volumes := make([]float64, len(rows))
	swaps := make([]int64, len(rows))
	for i, r := range rows {
		chainIDs[i] = int64(r.ChainID)
		addresses[i] = r.TokenAddress
		volumes[i] = r.Volume24h
		swaps[i] = int64(r.Swaps24h)
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE indexer.tokens t
		SET volume_24h = data.volume_24h,
		    swaps_24h = data.swaps_24h,
		    updated_at = NOW()
		FROM (
			SELECT * FROM UNNEST($1::bigint[], $2::text[], $3::float8[], $4::bigint[])
			AS t(chain_id, address, volume_24h, swaps_24h)
		) AS data
		WHERE t.chain_id = data.chain_id AND t.address = data.address`,
		chainIDs, addresses, volumes, swaps,
	)
	if err != nil {
		return fmt.Errorf("update token 24h stats: %w", err)
	}
	return nil
}

// UpdatePoolPriceChanges applies each pool's freshly-computed 24h/7d
// price change percentages, one statement per row since the original
// does the same (prepared, looped) rather than a bulk UNNEST.
func (s *Store) UpdatePoolPriceChanges(ctx context.Context, rows []models.PoolPriceChangeUpdate) (int, error) {
	updated := 0
	for _, r := range rows {
		tag, err := s.pool.Exec(ctx, `
			UPDATE indexer.pools
			SET price_change_24h = $3, price_change_7d = $4, updated_at = NOW()
			WHERE chain_id = $1 AND address = $2`,
			int64(r.ChainID), r.PoolAddress, r.PriceChange24h, r.PriceChange7d,
		)
		if err != nil {
			continue
		}
		updated += int(tag.RowsAffected())
	}
	return updated, nil
}

// UpdateTokenPriceChanges is UpdatePoolPriceChanges's token-side
// counterpart, also folding in circulating supply and market cap.
func (s *Store) UpdateTokenPriceChanges(ctx context.Context, rows []models.TokenPriceChangeUpdate) (int, error) {
	updated := 0
	for _, r := range rows {
		tag, err := s.pool.Exec(ctx, `
			UPDATE indexer.tokens
			SET price_change_24h = $3, price_change_7d = $4,
			    circulating_supply = $5, market_cap_usd = $6, updated_at = NOW()
			WHERE chain_id = $1 AND address = $2`,
			int64(r.ChainID), r.TokenAddress, r.PriceChange24h, r.PriceChange7d,
			r.CirculatingSupply, r.MarketCapUSD,
		)
		if err != nil {
			continue
		}
		updated += int(tag.RowsAffected())
	}
	return updated, nil
}

// RefreshMaterializedViews calls the schema's refresh_summary_views()
// function, which refreshes mv_pool_summary and mv_token_summary.
func (s *Store) RefreshMaterializedViews(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `SELECT indexer.refresh_summary_views()`)
	if err != nil {
		return fmt.Errorf("refresh materialized views: %w", err)
	}
	return nil
}

// QueryPoolsForSnapshot returns every pool with activity that has been
// touched since the given time, the source rows for the pool_snapshots
// cron job.
func (s *Store) QueryPoolsForSnapshot(ctx context.Context, since time.Time) ([]models.PoolSnapshotSource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, address, COALESCE(price, 0), COALESCE(price_usd, 0), COALESCE(tvl_usd, 0),
		       reserve0_adjusted, reserve1_adjusted, liquidity,
		       COALESCE(volume_24h, 0), COALESCE(swaps_24h, 0), fee
		FROM indexer.pools
		WHERE updated_at > $1 AND (COALESCE(tvl_usd, 0) > 0 OR COALESCE(volume_24h, 0) > 0)`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("select pools for snapshot: %w", err)
	}
	defer rows.Close()

	var out []models.PoolSnapshotSource
	for rows.Next() {
		var r models.PoolSnapshotSource
		var chainID int64
		var fee int64
		if err := rows.Scan(&chainID, &r.PoolAddress, &r.Price, &r.PriceUSD, &r.TVLUSD,
			&r.Reserve0, &r.Reserve1, &r.Liquidity, &r.Volume24h, &r.Swaps24h, &fee); err != nil {
			return nil, fmt.Errorf("scan pool snapshot source row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		r.Fee = uint32(fee)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryTokensForSnapshot is QueryPoolsForSnapshot's token-side
// counterpart, for the token_snapshots cron job.
func (s *Store) QueryTokensForSnapshot(ctx context.Context, since time.Time) ([]models.TokenSnapshotSource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, address, COALESCE(price_usd, 0), COALESCE(market_cap_usd, 0),
		       COALESCE(circulating_supply, 0), COALESCE(volume_24h, 0), COALESCE(swaps_24h, 0),
		       COALESCE(pool_count, 0)
		FROM indexer.tokens
		WHERE updated_at > $1 AND (COALESCE(price_usd, 0) > 0 OR COALESCE(volume_24h, 0) > 0)`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("select tokens for snapshot: %w", err)
	}
	defer rows.Close()

	var out []models.TokenSnapshotSource
	for rows.Next() {
		var r models.TokenSnapshotSource
		var chainID int64
		if err := rows.Scan(&chainID, &r.TokenAddress, &r.PriceUSD, &r.MarketCapUSD,
			&r.CirculatingSupply, &r.Volume24h, &r.Swaps24h, &r.PoolCount); err != nil {
			return nil, fmt.Errorf("scan token snapshot source row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		out = append(out, r)
	}
	return out, rows.Err()
}
