package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/models"
)

type fakeSink struct {
	mu           sync.Mutex
	events       []models.Event
	supplyEvents []models.SupplyEvent
	newPools     []models.NewPool
}

func (f *fakeSink) WriteEvents(_ context.Context, events []models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeSink) WriteSupplyEvents(_ context.Context, events []models.SupplyEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supplyEvents = append(f.supplyEvents, events...)
	return nil
}

func (f *fakeSink) WriteNewPools(_ context.Context, pools []models.NewPool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newPools = append(f.newPools, pools...)
	return nil
}

func (f *fakeSink) WritePoolSnapshots(_ context.Context, _ []models.PoolSnapshot) error { return nil }

func (f *fakeSink) WriteTokenSnapshots(_ context.Context, _ []models.TokenSnapshot) error {
	return nil
}

func (f *fakeSink) count() (events, supply, pools int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events), len(f.supplyEvents), len(f.newPools)
}

func TestIngestorFlushesOnRowThreshold(t *testing.T) {
	sink := &fakeSink{}
	cfg := ThresholdConfig{MaxRows: 2, MaxBytes: 1 << 30, Period: time.Hour}
	g := New(RateLive, sink, nil, nil, cfg)

	in := make(chan Batch, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, in) }()

	in <- Batch{ChainID: 1, Events: []models.Event{{}, {}}}
	require.Eventually(t, func() bool {
		events, _, _ := sink.count()
		return events == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestIngestorForceFlushesOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	cfg := ThresholdConfig{MaxRows: 1000, MaxBytes: 1 << 30, Period: time.Hour}
	g := New(RateHistorical, sink, nil, nil, cfg)

	in := make(chan Batch, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, in) }()

	in <- Batch{ChainID: 1, NewPools: []models.NewPool{{PoolAddress: "0xabc"}}}
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	_, _, pools := sink.count()
	assert.Equal(t, 1, pools)
}

func TestIngestorForceFlushesOnChannelClose(t *testing.T) {
	sink := &fakeSink{}
	cfg := ThresholdConfig{MaxRows: 1000, MaxBytes: 1 << 30, Period: time.Hour}
	g := New(RateHistorical, sink, nil, nil, cfg)

	in := make(chan Batch, 1)
	in <- Batch{ChainID: 1, SupplyEvents: []models.SupplyEvent{{TokenAddress: "0xdef"}}}
	close(in)

	err := g.Run(context.Background(), in)
	require.NoError(t, err)

	_, supply, _ := sink.count()
	assert.Equal(t, 1, supply)
}
