package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/luxfi/dexindexer/internal/models"
)

// poolUpsertBatchSize mirrors tokenUpsertBatchSize's reasoning; pools
// carry more columns per row so the same conservative chunk size
// keeps individual batch messages well under wire limits.
const poolUpsertBatchSize = 300

const selectPoolsQuery = `
SELECT chain_id, address, token0, token1, token0_decimals, token1_decimals,
       token0_symbol, token1_symbol, base_token, quote_token, is_inverted,
       quote_token_priority, protocol_version, factory, initial_fee,
       hook_address, created_at, block_number,
       fee, tx_hash, reserve0, reserve1, reserve0_adjusted, reserve1_adjusted,
       sqrt_price_x96, tick, tick_spacing, liquidity,
       price, token0_price, token1_price, price_usd,
       tvl_usd, total_swaps, total_volume, last_swap_at, updated_at,
       volume_24h, swaps_24h, price_change_24h, price_change_7d
FROM indexer.pools
WHERE chain_id = $1 AND address = ANY($2)`

// GetPools implements store.PoolStore.
func (s *Store) GetPools(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Pool, error) {
	result := make(map[string]models.Pool, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, selectPoolsQuery, int64(chainID), addresses)
	if err != nil {
		return nil, fmt.Errorf("select pools: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		result[p.Address] = p
	}
	return result, rows.Err()
}

func scanPool(rows pgx.Rows) (models.Pool, error) {
	var p models.Pool
	var chainID int64
	var token0Decimals, token1Decimals int16
	var quoteTokenPriority int32
	var protocolVersion string
	err := rows.Scan(
		&chainID, &p.Address, &p.Token0, &p.Token1, &token0Decimals, &token1Decimals,
		&p.Token0Symbol, &p.Token1Symbol, &p.BaseToken, &p.QuoteToken, &p.IsInverted,
		&quoteTokenPriority, &protocolVersion, &p.Factory, &p.InitialFee,
		&p.HookAddress, &p.CreatedAt, &p.BlockNumber,
		&p.Fee, &p.TxHash, &p.Reserve0, &p.Reserve1, &p.Reserve0Adjusted, &p.Reserve1Adjusted,
		&p.SqrtPriceX96, &p.Tick, &p.TickSpacing, &p.Liquidity,
		&p.Price, &p.Token0Price, &p.Token1Price, &p.PriceUSD,
		&p.TVLUSD, &p.TotalSwaps, &p.TotalVolume, &p.LastSwapAt, &p.UpdatedAt,
		&p.Volume24h, &p.Swaps24h, &p.PriceChange24h, &p.PriceChange7d,
	)
	p.ChainID = models.ChainID(chainID)
	p.Token0Decimals = uint8(token0Decimals)
	p.Token1Decimals = uint8(token1Decimals)
	p.QuoteTokenPriority = models.QuoteTokenPriority(quoteTokenPriority)
	p.ProtocolVersion = models.ProtocolVersion(protocolVersion)
	return p, err
}

const upsertPoolQuery = `
INSERT INTO indexer.pools (
    chain_id, address, token0, token1, token0_decimals, token1_decimals,
    token0_symbol, token1_symbol, base_token, quote_token, is_inverted,
    quote_token_priority, protocol_version, factory, initial_fee,
    hook_address, created_at, block_number,
    fee, tx_hash, reserve0, reserve1, reserve0_adjusted, reserve1_adjusted,
    sqrt_price_x96, tick, tick_spacing, liquidity,
    price, token0_price, token1_price, price_usd,
    tvl_usd, total_swaps, total_volume, last_swap_at, updated_at,
    volume_24h, swaps_24h, price_change_24h, price_change_7d
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
          $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,
          $38,$39,$40,$41)
ON CONFLICT (chain_id, address) DO UPDATE SET
    -- Immutable fields (token0, token1, decimals, symbols, base_token,
    -- quote_token, is_inverted, quote_token_priority, protocol_version,
    -- factory, initial_fee, hook_address, created_at) are deliberately
    -- absent from this SET clause: anti-spoofing guard against a forged
    -- PoolCreated event for an address the store already knows.
    fee = EXCLUDED.fee,
    tx_hash = EXCLUDED.tx_hash,
    block_number = EXCLUDED.block_number,
    reserve0 = EXCLUDED.reserve0,
    reserve1 = EXCLUDED.reserve1,
    reserve0_adjusted = EXCLUDED.reserve0_adjusted,
    reserve1_adjusted = EXCLUDED.reserve1_adjusted,
    sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
    tick = EXCLUDED.tick,
    tick_spacing = EXCLUDED.tick_spacing,
    liquidity = EXCLUDED.liquidity,
    price = EXCLUDED.price,
    token0_price = EXCLUDED.token0_price,
    token1_price = EXCLUDED.token1_price,
    price_usd = EXCLUDED.price_usd,
    tvl_usd = EXCLUDED.tvl_usd,
    total_swaps = EXCLUDED.total_swaps,
    total_volume = EXCLUDED.total_volume,
    last_swap_at = EXCLUDED.last_swap_at,
    updated_at = EXCLUDED.updated_at,
    volume_24h = EXCLUDED.volume_24h,
    swaps_24h = EXCLUDED.swaps_24h,
    price_change_24h = EXCLUDED.price_change_24h,
    price_change_7d = EXCLUDED.price_change_7d`

// UpsertPools implements store.PoolStore. block_number is listed among
// the mutable columns above even though it tracks creation for new
// rows, since an existing row's conflict branch folds it in as "most
// recently observed at block N" rather than "created at block N" —
// created_at carries the true immutable creation marker.
func (s *Store) UpsertPools(ctx context.Context, pools []models.Pool) error {
	for _, b := range chunkBounds(len(pools), poolUpsertBatchSize) {
		if err := s.upsertPoolChunk(ctx, pools[b[0]:b[1]]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertPoolChunk(ctx context.Context, chunk []models.Pool) error {
	batch := &pgx.Batch{}
	for _, p := range chunk {
		batch.Queue(upsertPoolQuery,
			int64(p.ChainID), p.Address, p.Token0, p.Token1, int16(p.Token0Decimals), int16(p.Token1Decimals),
			sanitizeString(p.Token0Symbol), sanitizeString(p.Token1Symbol), p.BaseToken, p.QuoteToken, p.IsInverted,
			int32(p.QuoteTokenPriority), string(p.ProtocolVersion), p.Factory, p.InitialFee,
			p.HookAddress, p.CreatedAt, int64(p.BlockNumber),
			p.Fee, p.TxHash, p.Reserve0, p.Reserve1, p.Reserve0Adjusted, p.Reserve1Adjusted,
			p.SqrtPriceX96, p.Tick, p.TickSpacing, p.Liquidity,
			p.Price, p.Token0Price, p.Token1Price, p.PriceUSD,
			p.TVLUSD, int64(p.TotalSwaps), p.TotalVolume, p.LastSwapAt, p.UpdatedAt,
			p.Volume24h, p.Swaps24h, p.PriceChange24h, p.PriceChange7d,
		)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert pool %d/%d: %w", i+1, batch.Len(), err)
		}
	}
	return nil
}
