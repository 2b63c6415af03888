package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/models"
)

func basePool() models.Pool {
	tvl := 50_000.0
	return models.Pool{
		Token0: "0xgeneric", Token1: "0xwnative",
		BaseToken: "0xgeneric", QuoteToken: "0xwnative",
		ProtocolVersion: models.ProtocolV2,
		Token1Price:      f(0.001), // 0.001 wnative per 1 generic
		Price:            f(0.001),
		Reserve0Adjusted: 1_000_000,
		Reserve1Adjusted: 1_000,
		TVLUSD:           &tvl,
		Fee:              3000,
	}
}

func TestPriceSwapEventHappyPath(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := basePool()
	event := &models.Event{
		EventType:       models.EventSwap,
		Amount0Adjusted: 100, // 100 generic in
		Amount1Adjusted: 0.1, // 0.1 wnative out, implied rate 0.001
	}
	e.PriceSwapEvent(event, &pool, map[string]models.Pool{"p": pool})
	require.Greater(t, event.PriceUSD, 0.0)
	assert.InEpsilon(t, 3.0, event.PriceUSD, 1e-6) // 0.001 * 3000
	require.Greater(t, event.VolumeUSD, 0.0)
	assert.Greater(t, event.FeesUSD, 0.0)
}

func TestPriceSwapEventZeroesOutBelowTVLFloor(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := basePool()
	tooLow := 100.0
	pool.TVLUSD = &tooLow
	event := &models.Event{EventType: models.EventSwap, Amount0Adjusted: 100, Amount1Adjusted: 0.1}
	e.PriceSwapEvent(event, &pool, map[string]models.Pool{"p": pool})
	assert.Equal(t, 0.0, event.PriceUSD)
	assert.Equal(t, 0.0, event.VolumeUSD)
	assert.True(t, event.IsSuspicious)
}

func TestPriceSwapEventZeroesOutWhenNeitherTokenWhitelisted(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	tvl := 50_000.0
	pool := models.Pool{
		Token0: "0xscam1", Token1: "0xscam2",
		BaseToken: "0xscam1", QuoteToken: "0xscam2",
		ProtocolVersion: models.ProtocolV2,
		Reserve0Adjusted: 1_000_000, Reserve1Adjusted: 1_000_000,
		TVLUSD: &tvl,
	}
	event := &models.Event{EventType: models.EventSwap, Amount0Adjusted: 100, Amount1Adjusted: 100}
	e.PriceSwapEvent(event, &pool, map[string]models.Pool{"p": pool})
	assert.Equal(t, 0.0, event.PriceUSD)
	assert.Equal(t, 0.0, event.VolumeUSD)
}

func TestPriceSwapEventPrefersEventFeeOverPoolFee(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := basePool()
	event := &models.Event{
		EventType: models.EventSwap, Amount0Adjusted: 100, Amount1Adjusted: 0.1, FeePPM: 500,
	}
	e.PriceSwapEvent(event, &pool, map[string]models.Pool{"p": pool})
	require.Greater(t, event.VolumeUSD, 0.0)
	assert.InEpsilon(t, event.VolumeUSD*500.0/1e6, event.FeesUSD, 1e-9)
}

func TestPriceLiquidityEventNeverHasVolume(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := basePool()
	event := &models.Event{EventType: models.EventMint}
	e.PriceLiquidityEvent(event, &pool, map[string]models.Pool{"p": pool})
	assert.Equal(t, 0.0, event.VolumeUSD)
	assert.Greater(t, event.PriceUSD, 0.0)
}
