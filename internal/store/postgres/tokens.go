package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/luxfi/dexindexer/internal/models"
)

// tokenUpsertBatchSize caps rows per pgx.Batch round-trip; tokens carry
// 25 columns, matching the original's BATCH_SIZE=300 (kept deliberately
// conservative to avoid oversized wire messages).
const tokenUpsertBatchSize = 300

const selectTokensQuery = `
SELECT chain_id, address, symbol, name, decimals,
       price_usd, price_updated_at, price_change_24h, price_change_7d,
       logo_url, banner_url, website, twitter, telegram, discord,
       volume_24h, swaps_24h, total_swaps, total_volume_usd, pool_count,
       circulating_supply, market_cap_usd, first_seen_block, last_activity_at, updated_at
FROM indexer.tokens
WHERE chain_id = $1 AND address = ANY($2)`

// GetTokens implements store.TokenStore.
func (s *Store) GetTokens(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Token, error) {
	result := make(map[string]models.Token, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, selectTokensQuery, int64(chainID), addresses)
	if err != nil {
		return nil, fmt.Errorf("select tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		result[tok.Address] = tok
	}
	return result, rows.Err()
}

func scanToken(rows pgx.Rows) (models.Token, error) {
	var t models.Token
	var chainID int64
	var decimals int16
	err := rows.Scan(
		&chainID, &t.Address, &t.Symbol, &t.Name, &decimals,
		&t.PriceUSD, &t.PriceUpdatedAt, &t.PriceChange24h, &t.PriceChange7d,
		&t.LogoURL, &t.BannerURL, &t.Website, &t.Twitter, &t.Telegram, &t.Discord,
		&t.Volume24h, &t.Swaps24h, &t.TotalSwaps, &t.TotalVolumeUSD, &t.PoolCount,
		&t.CirculatingSupply, &t.MarketCapUSD, &t.FirstSeenBlock, &t.LastActivityAt, &t.UpdatedAt,
	)
	t.ChainID = models.ChainID(chainID)
	t.Decimals = uint8(decimals)
	return t, err
}

const upsertTokenQuery = `
INSERT INTO indexer.tokens (
    chain_id, address, symbol, name, decimals,
    price_usd, price_updated_at, price_change_24h, price_change_7d,
    logo_url, banner_url, website, twitter, telegram, discord,
    volume_24h, swaps_24h, total_swaps, total_volume_usd, pool_count,
    circulating_supply, market_cap_usd, first_seen_block, last_activity_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
ON CONFLICT (chain_id, address) DO UPDATE SET
    symbol = EXCLUDED.symbol,
    name = EXCLUDED.name,
    decimals = EXCLUDED.decimals,
    price_usd = EXCLUDED.price_usd,
    price_updated_at = EXCLUDED.price_updated_at,
    price_change_24h = EXCLUDED.price_change_24h,
    price_change_7d = EXCLUDED.price_change_7d,
    logo_url = EXCLUDED.logo_url,
    banner_url = EXCLUDED.banner_url,
    website = EXCLUDED.website,
    twitter = EXCLUDED.twitter,
    telegram = EXCLUDED.telegram,
    discord = EXCLUDED.discord,
    volume_24h = EXCLUDED.volume_24h,
    swaps_24h = EXCLUDED.swaps_24h,
    total_swaps = EXCLUDED.total_swaps,
    total_volume_usd = EXCLUDED.total_volume_usd,
    pool_count = EXCLUDED.pool_count,
    circulating_supply = EXCLUDED.circulating_supply,
    market_cap_usd = EXCLUDED.market_cap_usd,
    first_seen_block = EXCLUDED.first_seen_block,
    last_activity_at = EXCLUDED.last_activity_at,
    updated_at = EXCLUDED.updated_at`

// UpsertTokens implements store.TokenStore. Symbol/Name are the only
// immutable fields in the original schema's intent but are re-sent
// unconditionally here since the token fetcher is their sole writer
// and always supplies the current on-chain value.
func (s *Store) UpsertTokens(ctx context.Context, tokens []models.Token) error {
	for _, b := range chunkBounds(len(tokens), tokenUpsertBatchSize) {
		if err := s.upsertTokenChunk(ctx, tokens[b[0]:b[1]]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertTokenChunk(ctx context.Context, chunk []models.Token) error {
	batch := &pgx.Batch{}
	for _, t := range chunk {
		batch.Queue(upsertTokenQuery,
			int64(t.ChainID), t.Address, sanitizeString(t.Symbol), sanitizeString(t.Name), int16(t.Decimals),
			t.PriceUSD, t.PriceUpdatedAt, t.PriceChange24h, t.PriceChange7d,
			t.LogoURL, t.BannerURL, t.Website, t.Twitter, t.Telegram, t.Discord,
			t.Volume24h, t.Swaps24h, t.TotalSwaps, t.TotalVolumeUSD, t.PoolCount,
			t.CirculatingSupply, t.MarketCapUSD, t.FirstSeenBlock, t.LastActivityAt, t.UpdatedAt,
		)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert token %d/%d: %w", i+1, batch.Len(), err)
		}
	}
	return nil
}
