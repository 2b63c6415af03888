// Package store defines the persistence interfaces the rest of the
// indexer depends on. Concrete implementations live in store/postgres
// (relational, mutable state) and store/clickhouse (append-only
// time-series tables).
package store

import (
	"context"

	"github.com/luxfi/dexindexer/internal/models"
)

// TokenStore resolves and persists token metadata.
type TokenStore interface {
	GetTokens(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Token, error)
	UpsertTokens(ctx context.Context, tokens []models.Token) error
}

// PoolStore loads and persists pool state. Upsert honors the
// immutable-field protection described in spec.md §4.C: callers pass
// whole Pool values, and for a pool the store already knows about only
// the mutable columns are overwritten.
type PoolStore interface {
	GetPools(ctx context.Context, chainID models.ChainID, addresses []string) (map[string]models.Pool, error)
	UpsertPools(ctx context.Context, pools []models.Pool) error
}

// CheckpointStore tracks per-chain indexing progress.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, chainID models.ChainID) (models.SyncCheckpoint, error)
	SetCheckpoint(ctx context.Context, checkpoint models.SyncCheckpoint) error
}

// NativePriceStore persists the last-known native-token USD price per
// chain, written fire-and-forget by the chain worker.
type NativePriceStore interface {
	GetNativePrice(ctx context.Context, chainID models.ChainID) (models.NativeTokenPrice, error)
	SetNativePrice(ctx context.Context, price models.NativeTokenPrice) error
}

// ChainConfigStore reads the fleet manager's source of truth for which
// chains to run and how.
type ChainConfigStore interface {
	ListChainConfigs(ctx context.Context) ([]models.ChainConfig, error)
}

// CronCheckpointStore tracks the last run time of each scheduled job,
// bounding the read window on restart.
type CronCheckpointStore interface {
	GetCronCheckpoint(ctx context.Context, jobName string) (models.CronCheckpoint, error)
	SetCronCheckpoint(ctx context.Context, checkpoint models.CronCheckpoint) error
}

// EventSink is the append-only write path for time-series tables,
// implemented by store/clickhouse.
type EventSink interface {
	WriteEvents(ctx context.Context, events []models.Event) error
	WriteSupplyEvents(ctx context.Context, events []models.SupplyEvent) error
	WriteNewPools(ctx context.Context, pools []models.NewPool) error
	WritePoolSnapshots(ctx context.Context, snapshots []models.PoolSnapshot) error
	WriteTokenSnapshots(ctx context.Context, snapshots []models.TokenSnapshot) error
}
