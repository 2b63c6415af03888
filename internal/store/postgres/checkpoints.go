package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/luxfi/dexindexer/internal/models"
)

// GetCheckpoint implements store.CheckpointStore. A chain with no row
// yet (first run) gets a zero-value checkpoint rather than an error.
func (s *Store) GetCheckpoint(ctx context.Context, chainID models.ChainID) (models.SyncCheckpoint, error) {
	var cp models.SyncCheckpoint
	var id int64
	var lastIndexedBlock int64
	err := s.pool.QueryRow(ctx,
		`SELECT chain_id, last_indexed_block, updated_at FROM indexer.sync_checkpoints WHERE chain_id = $1`,
		int64(chainID),
	).Scan(&id, &lastIndexedBlock, &cp.UpdatedAt)
	if err == pgx.ErrNoRows {
		cp.ChainID = chainID
		return cp, nil
	}
	if err != nil {
		return cp, fmt.Errorf("select sync checkpoint: %w", err)
	}
	cp.ChainID = models.ChainID(id)
	cp.LastIndexedBlock = uint64(lastIndexedBlock)
	return cp, nil
}

// SetCheckpoint implements store.CheckpointStore.
func (s *Store) SetCheckpoint(ctx context.Context, checkpoint models.SyncCheckpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer.sync_checkpoints (chain_id, last_indexed_block, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id) DO UPDATE SET
		    last_indexed_block = EXCLUDED.last_indexed_block,
		    updated_at = EXCLUDED.updated_at`,
		int64(checkpoint.ChainID), int64(checkpoint.LastIndexedBlock), checkpoint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sync checkpoint for chain %d: %w", checkpoint.ChainID, err)
	}
	return nil
}

// GetCronCheckpoint implements store.CronCheckpointStore. A job with no
// prior run gets a zero-value LastRunAt, which callers treat as "scan
// from the beginning of the retention window" rather than an error.
func (s *Store) GetCronCheckpoint(ctx context.Context, jobName string) (models.CronCheckpoint, error) {
	cp := models.CronCheckpoint{JobName: jobName}
	err := s.pool.QueryRow(ctx,
		`SELECT last_run_at FROM indexer.cron_checkpoints WHERE job_name = $1`, jobName,
	).Scan(&cp.LastRunAt)
	if err == pgx.ErrNoRows {
		return cp, nil
	}
	if err != nil {
		return cp, fmt.Errorf("select cron checkpoint %q: %w", jobName, err)
	}
	return cp, nil
}

// SetCronCheckpoint implements store.CronCheckpointStore.
func (s *Store) SetCronCheckpoint(ctx context.Context, checkpoint models.CronCheckpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer.cron_checkpoints (job_name, last_run_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE SET
		    last_run_at = EXCLUDED.last_run_at,
		    updated_at = EXCLUDED.updated_at`,
		checkpoint.JobName, checkpoint.LastRunAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert cron checkpoint %q: %w", checkpoint.JobName, err)
	}
	return nil
}
