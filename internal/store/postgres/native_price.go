package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/luxfi/dexindexer/internal/models"
)

// GetNativePrice implements store.NativePriceStore. A chain with no
// prior observation gets a zero-value price, letting the caller fall
// back to deriving one fresh from the canonical stable pool.
func (s *Store) GetNativePrice(ctx context.Context, chainID models.ChainID) (models.NativeTokenPrice, error) {
	var p models.NativeTokenPrice
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT chain_id, price_usd, updated_at FROM indexer.native_token_prices WHERE chain_id = $1`,
		int64(chainID),
	).Scan(&id, &p.PriceUSD, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		p.ChainID = chainID
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("select native token price: %w", err)
	}
	p.ChainID = models.ChainID(id)
	return p, nil
}

// SetNativePrice implements store.NativePriceStore.
func (s *Store) SetNativePrice(ctx context.Context, price models.NativeTokenPrice) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer.native_token_prices (chain_id, price_usd, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id) DO UPDATE SET
		    price_usd = EXCLUDED.price_usd,
		    updated_at = EXCLUDED.updated_at`,
		int64(price.ChainID), price.PriceUSD, price.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert native token price for chain %d: %w", price.ChainID, err)
	}
	return nil
}
