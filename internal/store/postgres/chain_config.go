package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/luxfi/dexindexer/internal/models"
)

const selectChainConfigsQuery = `
SELECT chain_id, name, rpc_url, stream_url, enabled,
       native_token_address, native_token_decimals, native_token_name, native_token_symbol,
       stable_token_address, stable_token_decimals, stable_pool_address,
       major_tokens, stablecoins, factories, updated_at
FROM indexer.chains`

// ListChainConfigs implements store.ChainConfigStore. The fleet manager
// polls this every 30s (spec.md §2) to discover chains to start, stop,
// or restart on config change; there is no corresponding write path in
// this module's scope, since nothing here mutates the chains table.
func (s *Store) ListChainConfigs(ctx context.Context) ([]models.ChainConfig, error) {
	rows, err := s.pool.Query(ctx, selectChainConfigsQuery)
	if err != nil {
		return nil, fmt.Errorf("select chain configs: %w", err)
	}
	defer rows.Close()

	var configs []models.ChainConfig
	for rows.Next() {
		cfg, err := scanChainConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chain config row: %w", err)
		}
		cfg.Normalize()
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func scanChainConfig(rows pgx.Rows) (models.ChainConfig, error) {
	var c models.ChainConfig
	var chainID int64
	var nativeDecimals, stableDecimals int16
	err := rows.Scan(
		&chainID, &c.Name, &c.RPCURL, &c.StreamURL, &c.Enabled,
		&c.NativeTokenAddress, &nativeDecimals, &c.NativeTokenName, &c.NativeTokenSymbol,
		&c.StableTokenAddress, &stableDecimals, &c.StablePoolAddress,
		&c.MajorTokens, &c.Stablecoins, &c.Factories, &c.UpdatedAt,
	)
	c.ChainID = models.ChainID(chainID)
	c.NativeTokenDecimals = uint8(nativeDecimals)
	c.StableTokenDecimals = uint8(stableDecimals)
	return c, err
}
