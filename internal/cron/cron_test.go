package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/models"
)

type fakeAnalyticsSource struct {
	poolStats    []models.PoolStatUpdate
	tokenStats   []models.TokenStatUpdate
	poolChanges  []models.PoolPriceChangeUpdate
	tokenChanges []models.TokenPriceChangeUpdate
}

func (f *fakeAnalyticsSource) QueryPool24hStats(ctx context.Context) ([]models.PoolStatUpdate, error) {
	return f.poolStats, nil
}
func (f *fakeAnalyticsSource) QueryToken24hStats(ctx context.Context) ([]models.TokenStatUpdate, error) {
	return f.tokenStats, nil
}
func (f *fakeAnalyticsSource) QueryPoolPriceChanges(ctx context.Context) ([]models.PoolPriceChangeUpdate, error) {
	return f.poolChanges, nil
}
func (f *fakeAnalyticsSource) QueryTokenPriceChanges(ctx context.Context) ([]models.TokenPriceChangeUpdate, error) {
	return f.tokenChanges, nil
}

type fakeAnalyticsSink struct {
	pool24hCalls  int
	token24hCalls int
	mvRefreshed   bool
	poolSnaps     []models.PoolSnapshotSource
	tokenSnaps    []models.TokenSnapshotSource
}

func (f *fakeAnalyticsSink) UpdatePool24hStats(ctx context.Context, rows []models.PoolStatUpdate) error {
	f.pool24hCalls++
	return nil
}
func (f *fakeAnalyticsSink) UpdateToken24hStats(ctx context.Context, rows []models.TokenStatUpdate) error {
	f.token24hCalls++
	return nil
}
func (f *fakeAnalyticsSink) UpdatePoolPriceChanges(ctx context.Context, rows []models.PoolPriceChangeUpdate) (int, error) {
	return len(rows), nil
}
func (f *fakeAnalyticsSink) UpdateTokenPriceChanges(ctx context.Context, rows []models.TokenPriceChangeUpdate) (int, error) {
	return len(rows), nil
}
func (f *fakeAnalyticsSink) RefreshMaterializedViews(ctx context.Context) error {
	f.mvRefreshed = true
	return nil
}
func (f *fakeAnalyticsSink) QueryPoolsForSnapshot(ctx context.Context, since time.Time) ([]models.PoolSnapshotSource, error) {
	return f.poolSnaps, nil
}
func (f *fakeAnalyticsSink) QueryTokensForSnapshot(ctx context.Context, since time.Time) ([]models.TokenSnapshotSource, error) {
	return f.tokenSnaps, nil
}

type fakeCheckpointStore struct {
	checkpoints map[string]models.CronCheckpoint
}

func newFakeCheckpointStore() *fakeCheckpointStore {
	return &fakeCheckpointStore{checkpoints: make(map[string]models.CronCheckpoint)}
}

func (f *fakeCheckpointStore) GetCronCheckpoint(ctx context.Context, jobName string) (models.CronCheckpoint, error) {
	return f.checkpoints[jobName], nil
}
func (f *fakeCheckpointStore) SetCronCheckpoint(ctx context.Context, checkpoint models.CronCheckpoint) error {
	f.checkpoints[checkpoint.JobName] = checkpoint
	return nil
}

type fakeSnapshotSink struct {
	poolSnapshots  []models.PoolSnapshot
	tokenSnapshots []models.TokenSnapshot
}

func (f *fakeSnapshotSink) WritePoolSnapshots(ctx context.Context, snapshots []models.PoolSnapshot) error {
	f.poolSnapshots = append(f.poolSnapshots, snapshots...)
	return nil
}
func (f *fakeSnapshotSink) WriteTokenSnapshots(ctx context.Context, snapshots []models.TokenSnapshot) error {
	f.tokenSnapshots = append(f.tokenSnapshots, snapshots...)
	return nil
}

func newTestScheduler(ch *fakeAnalyticsSource, pg *fakeAnalyticsSink, cp *fakeCheckpointStore, sink *fakeSnapshotSink) *Scheduler {
	return New(ch, pg, cp, sink, nil, Settings{})
}

func TestRunUpdate24hStatsSkipsEmptyResults(t *testing.T) {
	s := newTestScheduler(&fakeAnalyticsSource{}, &fakeAnalyticsSink{}, newFakeCheckpointStore(), &fakeSnapshotSink{})
	require.NoError(t, s.runUpdate24hStats(context.Background()))
	assert.Equal(t, 0, s.postgres.(*fakeAnalyticsSink).pool24hCalls)
}

func TestRunUpdate24hStatsAppliesNonEmptyResults(t *testing.T) {
	ch := &fakeAnalyticsSource{
		poolStats:  []models.PoolStatUpdate{{ChainID: 1, PoolAddress: "0xa"}},
		tokenStats: []models.TokenStatUpdate{{ChainID: 1, TokenAddress: "0xb"}},
	}
	pg := &fakeAnalyticsSink{}
	s := newTestScheduler(ch, pg, newFakeCheckpointStore(), &fakeSnapshotSink{})
	require.NoError(t, s.runUpdate24hStats(context.Background()))
	assert.Equal(t, 1, pg.pool24hCalls)
	assert.Equal(t, 1, pg.token24hCalls)
}

func TestRunRefreshMaterializedViews(t *testing.T) {
	pg := &fakeAnalyticsSink{}
	s := newTestScheduler(&fakeAnalyticsSource{}, pg, newFakeCheckpointStore(), &fakeSnapshotSink{})
	require.NoError(t, s.runRefreshMaterializedViews(context.Background()))
	assert.True(t, pg.mvRefreshed)
}

func TestRunPoolSnapshotsWritesAndAdvancesCheckpoint(t *testing.T) {
	pg := &fakeAnalyticsSink{poolSnaps: []models.PoolSnapshotSource{
		{ChainID: 1, PoolAddress: "0xa", Volume24h: 100, Fee: 3000},
	}}
	cp := newFakeCheckpointStore()
	sink := &fakeSnapshotSink{}
	s := newTestScheduler(&fakeAnalyticsSource{}, pg, cp, sink)

	require.NoError(t, s.runPoolSnapshots(context.Background()))
	require.Len(t, sink.poolSnapshots, 1)
	assert.InDelta(t, 0.3, sink.poolSnapshots[0].Fees24h, 1e-9)
	assert.False(t, cp.checkpoints[jobPoolSnapshots].LastRunAt.IsZero())
}

func TestRunPoolSnapshotsNoRowsStillAdvancesCheckpoint(t *testing.T) {
	cp := newFakeCheckpointStore()
	s := newTestScheduler(&fakeAnalyticsSource{}, &fakeAnalyticsSink{}, cp, &fakeSnapshotSink{})

	require.NoError(t, s.runPoolSnapshots(context.Background()))
	assert.False(t, cp.checkpoints[jobPoolSnapshots].LastRunAt.IsZero())
}

func TestRunTokenSnapshotsWritesRows(t *testing.T) {
	pg := &fakeAnalyticsSink{tokenSnaps: []models.TokenSnapshotSource{
		{ChainID: 1, TokenAddress: "0xa", PriceUSD: 2.5, PoolCount: 3},
	}}
	sink := &fakeSnapshotSink{}
	s := newTestScheduler(&fakeAnalyticsSource{}, pg, newFakeCheckpointStore(), sink)

	require.NoError(t, s.runTokenSnapshots(context.Background()))
	require.Len(t, sink.tokenSnapshots, 1)
	assert.Equal(t, uint32(3), sink.tokenSnapshots[0].PoolCount)
}

func TestIntervalOrDefaultFallsBackOnZero(t *testing.T) {
	s := newTestScheduler(&fakeAnalyticsSource{}, &fakeAnalyticsSink{}, newFakeCheckpointStore(), &fakeSnapshotSink{})
	assert.Equal(t, 900*time.Second, s.intervalOrDefault(0, 900))
	assert.Equal(t, 120*time.Second, s.intervalOrDefault(120, 900))
}
