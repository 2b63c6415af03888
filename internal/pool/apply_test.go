package pool

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

func v2Pool() models.Pool {
	return models.Pool{
		ChainID:         1,
		Address:         "0xpair",
		ProtocolVersion: models.ProtocolV2,
		Token0Decimals:  18,
		Token1Decimals:  6,
		Liquidity:       "0",
	}
}

func v3Pool() models.Pool {
	return models.Pool{
		ChainID:         1,
		Address:         "0xpool",
		ProtocolVersion: models.ProtocolV3,
		Token0Decimals:  18,
		Token1Decimals:  18,
		Liquidity:       "0",
	}
}

func TestApplyEventIgnoresStaleBlock(t *testing.T) {
	p := v2Pool()
	p.BlockNumber = 100
	ApplyEvent(&p, &models.Event{BlockNumber: 50, EventType: models.EventSwap})
	assert.Equal(t, uint64(100), p.BlockNumber, "a stale event must not regress pool state")
}

func TestApplyEventSwapIncrementsCountersOnEveryProtocol(t *testing.T) {
	p := v2Pool()
	ts := time.Unix(1000, 0).UTC()
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventSwap, Timestamp: ts})
	assert.EqualValues(t, 1, p.TotalSwaps)
	require.NotNil(t, p.LastSwapAt)
	assert.True(t, p.LastSwapAt.Equal(ts))
}

func TestApplyEventV2NeverMutatesReservesFromSwap(t *testing.T) {
	p := v2Pool()
	p.Reserve0Adjusted = 10
	p.Reserve1Adjusted = 20
	ApplyEvent(&p, &models.Event{
		BlockNumber: 1, EventType: models.EventSwap,
		Amount0Adjusted: 5, Amount1Adjusted: 5, Direction0: -1, Direction1: 1,
	})
	assert.Equal(t, 10.0, p.Reserve0Adjusted, "V2 reserves are only ever set by Sync")
	assert.Equal(t, 20.0, p.Reserve1Adjusted)
}

func TestApplyEventV3AccumulatesReservesBySwapDelta(t *testing.T) {
	p := v3Pool()
	p.Reserve0Adjusted = 100
	p.Reserve1Adjusted = 100
	// amount0 direction -1 (into pool) adds to reserve0; amount1 direction +1 (out) subtracts from reserve1.
	ApplyEvent(&p, &models.Event{
		BlockNumber: 1, EventType: models.EventSwap,
		Amount0Adjusted: 10, Amount1Adjusted: 9, Direction0: -1, Direction1: 1,
	})
	assert.Equal(t, 110.0, p.Reserve0Adjusted)
	assert.Equal(t, 91.0, p.Reserve1Adjusted)
}

func TestApplyEventV3BurnNeverMutatesReserves(t *testing.T) {
	p := v3Pool()
	p.Reserve0Adjusted = 50
	p.Reserve1Adjusted = 50
	ApplyEvent(&p, &models.Event{
		BlockNumber: 1, EventType: models.EventBurn,
		Amount0Adjusted: 10, Amount1Adjusted: 10, Direction0: 1, Direction1: 1,
	})
	assert.Equal(t, 50.0, p.Reserve0Adjusted, "burn payout is accounted for by the paired Collect, not Burn itself")
	assert.Equal(t, 50.0, p.Reserve1Adjusted)
}

func TestApplyEventClampsReservesAtZero(t *testing.T) {
	p := v3Pool()
	p.Reserve0Adjusted = 1
	ApplyEvent(&p, &models.Event{
		BlockNumber: 1, EventType: models.EventSwap,
		Amount0Adjusted: 5, Direction0: 1,
	})
	assert.Equal(t, 0.0, p.Reserve0Adjusted)
}

func TestApplyEventRejectsInvalidPriceRatio(t *testing.T) {
	p := v3Pool()
	bad := -1.0
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventSwap, Price: &bad})
	assert.Nil(t, p.Price, "an out-of-bounds price ratio must leave the pool's price unchanged")
}

func TestApplyEventAcceptsValidPriceAndSetsInverse(t *testing.T) {
	p := v3Pool()
	good := 2.0
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventSwap, Price: &good})
	require.NotNil(t, p.Price)
	require.NotNil(t, p.Token0Price)
	assert.Equal(t, 2.0, *p.Price)
	assert.InEpsilon(t, 0.5, *p.Token0Price, 1e-9)
}

func TestApplyEventSwapSetsLiquidityAbsolute(t *testing.T) {
	p := v3Pool()
	p.Liquidity = "999"
	liq := "12345"
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventSwap, Liquidity: &liq})
	assert.Equal(t, "12345", p.Liquidity)
}

func TestApplyEventMintAddsLiquidityDelta(t *testing.T) {
	p := v3Pool()
	p.Liquidity = "100"
	delta := "50"
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventMint, Liquidity: &delta})
	assert.Equal(t, "150", p.Liquidity)
}

func TestApplyEventBurnSubtractsLiquidityDeltaClampedAtZero(t *testing.T) {
	p := v3Pool()
	p.Liquidity = "30"
	delta := "50"
	ApplyEvent(&p, &models.Event{BlockNumber: 1, EventType: models.EventBurn, Liquidity: &delta})
	assert.Equal(t, "0", p.Liquidity)
}

func TestApplyEventModifyLiquidityDirectionDrivesAddVsRemove(t *testing.T) {
	p := v3Pool()
	p.Liquidity = "100"
	delta := "40"

	adding := p
	ApplyEvent(&adding, &models.Event{BlockNumber: 1, EventType: models.EventModifyLiquidity, Liquidity: &delta, Direction0: -1})
	assert.Equal(t, "140", adding.Liquidity)

	removing := p
	ApplyEvent(&removing, &models.Event{BlockNumber: 1, EventType: models.EventModifyLiquidity, Liquidity: &delta, Direction0: 1})
	assert.Equal(t, "60", removing.Liquidity)
}

func TestApplyV2SyncDerivesPriceFromReserves(t *testing.T) {
	p := v2Pool()
	reserve0, _ := new(big.Int).SetString("1000000000000000000000", 10) // 1000 * 1e18
	reserve1 := big.NewInt(2_000_000_000) // 2000 * 1e6
	ApplyV2Sync(&p, parser.V2Sync{Reserve0: reserve0, Reserve1: reserve1}, 1000)
	require.NotNil(t, p.Price)
}

func TestApplyV2SyncLeavesPriceUnsetWhenOneSideIsZero(t *testing.T) {
	p := v2Pool()
	ApplyV2Sync(&p, parser.V2Sync{Reserve0: big.NewInt(0), Reserve1: big.NewInt(100)}, 1000)
	assert.Nil(t, p.Price)
}

func TestApplyV3InitializeSetsOpeningState(t *testing.T) {
	p := v3Pool()
	sqrtP := bignum.TickToSqrtPriceX96(1000)
	ApplyV3Initialize(&p, parser.V3Initialize{SqrtPriceX96: sqrtP, Tick: 1000}, 1000)
	require.NotNil(t, p.SqrtPriceX96)
	require.NotNil(t, p.Tick)
	assert.EqualValues(t, 1000, *p.Tick)
	require.NotNil(t, p.Price)
}

func TestRequiresInitializedSqrtPrice(t *testing.T) {
	v2 := v2Pool()
	assert.False(t, RequiresInitializedSqrtPrice(&v2), "V2 has no sqrtPriceX96 concept")

	v3Uninitialized := v3Pool()
	assert.True(t, RequiresInitializedSqrtPrice(&v3Uninitialized))

	sqrtStr := "123"
	v3Initialized := v3Pool()
	v3Initialized.SqrtPriceX96 = &sqrtStr
	assert.False(t, RequiresInitializedSqrtPrice(&v3Initialized))
}
