package clickhouse

import (
	"context"
	"fmt"

	"github.com/luxfi/dexindexer/internal/models"
)

// QueryPool24hStats aggregates swap volume/count per pool over the
// trailing 24 hours, feeding the update_24h_stats cron job. Grounded
// on original_source/src/cron/jobs/update_24h_stats.rs's
// update_pool_stats query.
func (s *Store) QueryPool24hStats(ctx context.Context) ([]models.PoolStatUpdate, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT chain_id, pool_address, sum(volume_usd) AS volume_24h,
		       count() AS swaps_24h, max(timestamp) AS last_swap_at
		FROM events
		WHERE timestamp >= now() - INTERVAL 24 HOUR AND event_type = 'swap'
		GROUP BY chain_id, pool_address`)
	if err != nil {
		return nil, fmt.Errorf("query pool 24h stats: %w", err)
	}
	defer rows.Close()

	var out []models.PoolStatUpdate
	for rows.Next() {
		var r models.PoolStatUpdate
		var chainID uint64
		var swaps uint64
		if err := rows.Scan(&chainID, &r.PoolAddress, &r.Volume24h, &swaps, &r.LastSwapAt); err != nil {
			return nil, fmt.Errorf("scan pool 24h stat row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		r.Swaps24h = swaps
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryToken24hStats splits each swap's volume evenly across its two
// legs before aggregating per token, matching update_token_stats.
func (s *Store) QueryToken24hStats(ctx context.Context) ([]models.TokenStatUpdate, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT chain_id, token_address, sum(volume_usd) AS volume_24h, count() AS swaps_24h
		FROM (
			SELECT chain_id, token0 AS token_address, volume_usd / 2 AS volume_usd
			FROM events WHERE timestamp >= now() - INTERVAL 24 HOUR AND event_type = 'swap'
			UNION ALL
			SELECT chain_id, token1 AS token_address, volume_usd / 2 AS volume_usd
			FROM events WHERE timestamp >= now() - INTERVAL 24 HOUR AND event_type = 'swap'
		)
		GROUP BY chain_id, token_address`)
	if err != nil {
		return nil, fmt.Errorf("query token 24h stats: %w", err)
	}
	defer rows.Close()

	var out []models.TokenStatUpdate
	for rows.Next() {
		var r models.TokenStatUpdate
		var chainID uint64
		var swaps uint64
		if err := rows.Scan(&chainID, &r.TokenAddress, &r.Volume24h, &swaps); err != nil {
			return nil, fmt.Errorf("scan token 24h stat row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		r.Swaps24h = swaps
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryPoolPriceChanges derives 24h/7d pool price changes from hourly
// candles materialized in ClickHouse (pool_snapshots standing in for
// the original's candles_1h table, since this module doesn't maintain
// a separate candle aggregation).
func (s *Store) QueryPoolPriceChanges(ctx context.Context) ([]models.PoolPriceChangeUpdate, error) {
	rows, err := s.conn.Query(ctx, `
		WITH current_prices AS (
			SELECT chain_id, pool_address, argMax(price_usd, time) AS current_price
			FROM pool_snapshots GROUP BY chain_id, pool_address
		),
		prices_24h AS (
			SELECT chain_id, pool_address, argMax(price_usd, time) AS price_24h_ago
			FROM pool_snapshots
			WHERE time >= now() - INTERVAL 25 HOUR AND time <= now() - INTERVAL 23 HOUR
			GROUP BY chain_id, pool_address
		),
		prices_7d AS (
			SELECT chain_id, pool_address, argMax(price_usd, time) AS price_7d_ago
			FROM pool_snapshots
			WHERE time >= now() - INTERVAL 169 HOUR AND time <= now() - INTERVAL 167 HOUR
			GROUP BY chain_id, pool_address
		)
		SELECT c.chain_id, c.pool_address,
		       if(p24.price_24h_ago > 0, (c.current_price - p24.price_24h_ago) / p24.price_24h_ago * 100, 0) AS price_change_24h,
		       if(p7d.price_7d_ago > 0, (c.current_price - p7d.price_7d_ago) / p7d.price_7d_ago * 100, 0) AS price_change_7d
		FROM current_prices c
		LEFT JOIN prices_24h p24 ON c.chain_id = p24.chain_id AND c.pool_address = p24.pool_address
		LEFT JOIN prices_7d p7d ON c.chain_id = p7d.chain_id AND c.pool_address = p7d.pool_address
		WHERE c.current_price > 0`)
	if err != nil {
		return nil, fmt.Errorf("query pool price changes: %w", err)
	}
	defer rows.Close()

	var out []models.PoolPriceChangeUpdate
	for rows.Next() {
		var r models.PoolPriceChangeUpdate
		var chainID uint64
		if err := rows.Scan(&chainID, &r.PoolAddress, &r.PriceChange24h, &r.PriceChange7d); err != nil {
			return nil, fmt.Errorf("scan pool price change row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryTokenPriceChanges is QueryPoolPriceChanges's token-side
// counterpart, additionally deriving circulating supply from
// supply_events and market cap from price*supply.
func (s *Store) QueryTokenPriceChanges(ctx context.Context) ([]models.TokenPriceChangeUpdate, error) {
	rows, err := s.conn.Query(ctx, `
		WITH current_prices AS (
			SELECT chain_id, token_address, argMax(price_usd, time) AS current_price
			FROM token_snapshots GROUP BY chain_id, token_address
		),
		prices_24h AS (
			SELECT chain_id, token_address, argMax(price_usd, time) AS price_24h_ago
			FROM token_snapshots
			WHERE time >= now() - INTERVAL 25 HOUR AND time <= now() - INTERVAL 23 HOUR
			GROUP BY chain_id, token_address
		),
		prices_7d AS (
			SELECT chain_id, token_address, argMax(price_usd, time) AS price_7d_ago
			FROM token_snapshots
			WHERE time >= now() - INTERVAL 169 HOUR AND time <= now() - INTERVAL 167 HOUR
			GROUP BY chain_id, token_address
		),
		supplies AS (
			SELECT chain_id, token_address,
			       sumIf(amount_adjusted, event_type = 'mint') - sumIf(amount_adjusted, event_type = 'burn') AS circulating_supply
			FROM supply_events GROUP BY chain_id, token_address
		)
		SELECT c.chain_id, c.token_address,
		       if(p24.price_24h_ago > 0, (c.current_price - p24.price_24h_ago) / p24.price_24h_ago * 100, 0) AS price_change_24h,
		       if(p7d.price_7d_ago > 0, (c.current_price - p7d.price_7d_ago) / p7d.price_7d_ago * 100, 0) AS price_change_7d,
		       COALESCE(s.circulating_supply, 0) AS circulating_supply,
		       COALESCE(s.circulating_supply, 0) * c.current_price AS market_cap_usd
		FROM current_prices c
		LEFT JOIN prices_24h p24 ON c.chain_id = p24.chain_id AND c.token_address = p24.token_address
		LEFT JOIN prices_7d p7d ON c.chain_id = p7d.chain_id AND c.token_address = p7d.token_address
		LEFT JOIN supplies s ON c.chain_id = s.chain_id AND c.token_address = s.token_address
		WHERE c.current_price > 0`)
	if err != nil {
		return nil, fmt.Errorf("query token price changes: %w", err)
	}
	defer rows.Close()

	var out []models.TokenPriceChangeUpdate
	for rows.Next() {
		var r models.TokenPriceChangeUpdate
		var chainID uint64
		if err := rows.Scan(&chainID, &r.TokenAddress, &r.PriceChange24h, &r.PriceChange7d,
			&r.CirculatingSupply, &r.MarketCapUSD); err != nil {
			return nil, fmt.Errorf("scan token price change row: %w", err)
		}
		r.ChainID = models.ChainID(chainID)
		out = append(out, r)
	}
	return out, rows.Err()
}
