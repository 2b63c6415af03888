package clickhouse

import (
	"context"
	"fmt"

	"github.com/luxfi/dexindexer/internal/models"
)

// WriteEvents implements store.EventSink.
func (s *Store) WriteEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO events")
	if err != nil {
		return fmt.Errorf("prepare events batch: %w", err)
	}
	for _, e := range events {
		if err := batch.Append(
			e.ChainID, e.BlockNumber, e.Timestamp, e.TxHash, e.TxIndex, e.LogIndex,
			e.PoolAddress, e.Token0, e.Token1, e.Maker, e.Owner, string(e.EventType),
			e.Amount0, e.Amount1, e.Amount0Adjusted, e.Amount1Adjusted,
			e.Direction0, e.Direction1,
			derefFloat(e.Price), e.PriceUSD, e.VolumeUSD, e.FeesUSD, e.FeePPM, e.IsSuspicious,
			derefString(e.SqrtPriceX96), derefInt32(e.Tick), derefInt32(e.TickLower), derefInt32(e.TickUpper),
			derefString(e.Liquidity),
		); err != nil {
			return fmt.Errorf("append event row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send events batch of %d rows: %w", len(events), err)
	}
	return nil
}

// WriteSupplyEvents implements store.EventSink.
func (s *Store) WriteSupplyEvents(ctx context.Context, events []models.SupplyEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO supply_events")
	if err != nil {
		return fmt.Errorf("prepare supply_events batch: %w", err)
	}
	for _, e := range events {
		if err := batch.Append(
			e.ChainID, e.BlockNumber, e.Timestamp, e.TxHash, e.LogIndex,
			e.TokenAddress, e.EventType, e.Amount, e.AmountAdjusted,
		); err != nil {
			return fmt.Errorf("append supply event row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send supply_events batch of %d rows: %w", len(events), err)
	}
	return nil
}

// WriteNewPools implements store.EventSink.
func (s *Store) WriteNewPools(ctx context.Context, pools []models.NewPool) error {
	if len(pools) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO new_pools")
	if err != nil {
		return fmt.Errorf("prepare new_pools batch: %w", err)
	}
	for _, p := range pools {
		if err := batch.Append(
			p.ChainID, p.PoolAddress, p.CreatedAt, p.BlockNumber, p.TxHash,
			p.Token0, p.Token1, p.Token0Symbol, p.Token1Symbol,
			p.Protocol, p.ProtocolVersion, p.Fee, p.InitialTVLUSD,
		); err != nil {
			return fmt.Errorf("append new_pool row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send new_pools batch of %d rows: %w", len(pools), err)
	}
	return nil
}

// WritePoolSnapshots implements store.EventSink.
func (s *Store) WritePoolSnapshots(ctx context.Context, snapshots []models.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO pool_snapshots")
	if err != nil {
		return fmt.Errorf("prepare pool_snapshots batch: %w", err)
	}
	for _, snap := range snapshots {
		if err := batch.Append(
			snap.ChainID, snap.PoolAddress, snap.Time,
			snap.Price, snap.PriceUSD, snap.TVLUSD, snap.Reserve0, snap.Reserve1, snap.Liquidity,
			snap.Volume24h, snap.Swaps24h, snap.Fees24h,
		); err != nil {
			return fmt.Errorf("append pool_snapshot row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send pool_snapshots batch of %d rows: %w", len(snapshots), err)
	}
	return nil
}

// WriteTokenSnapshots implements store.EventSink.
func (s *Store) WriteTokenSnapshots(ctx context.Context, snapshots []models.TokenSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO token_snapshots")
	if err != nil {
		return fmt.Errorf("prepare token_snapshots batch: %w", err)
	}
	for _, snap := range snapshots {
		if err := batch.Append(
			snap.ChainID, snap.TokenAddress, snap.Time,
			snap.PriceUSD, snap.PriceOpen, snap.PriceHigh, snap.PriceLow,
			snap.MarketCapUSD, snap.CirculatingSupply, snap.VolumeUSD, snap.SwapCount, snap.PoolCount,
		); err != nil {
			return fmt.Errorf("append token_snapshot row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send token_snapshots batch of %d rows: %w", len(snapshots), err)
	}
	return nil
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
