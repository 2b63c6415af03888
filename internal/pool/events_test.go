package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

func tok(addr string, decimals uint8) models.Token {
	return models.NewToken(1, addr, "TOK", "Token", decimals)
}

func TestBuildV2SwapNetsInOutAndSetsDirection(t *testing.T) {
	ev := parser.V2Swap{
		Sender:     "0xsender",
		Amount0In:  big.NewInt(100),
		Amount0Out: big.NewInt(0),
		Amount1In:  big.NewInt(0),
		Amount1Out: big.NewInt(90),
	}
	e := BuildV2Swap(1, ev, tok("0xt0", 18), tok("0xt1", 18), "0xpool")
	assert.Equal(t, "100", e.Amount0)
	assert.Equal(t, "90", e.Amount1)
	assert.EqualValues(t, -1, e.Direction0, "net inflow on side 0")
	assert.EqualValues(t, 1, e.Direction1, "net outflow on side 1")
	assert.Equal(t, models.EventSwap, e.EventType)
}

func TestBuildV3SwapDirectionFollowsSign(t *testing.T) {
	ev := parser.V3Swap{
		Sender:  "0xsender",
		Amount0: big.NewInt(-50), // negative = out of pool
		Amount1: big.NewInt(60),  // positive = into pool
		Tick:    100,
	}
	e := BuildV3Swap(1, ev, tok("0xt0", 18), tok("0xt1", 18), "0xpool")
	assert.Equal(t, "50", e.Amount0)
	assert.Equal(t, "60", e.Amount1)
	assert.EqualValues(t, 1, e.Direction0)
	assert.EqualValues(t, -1, e.Direction1)
	require.NotNil(t, e.Tick)
	assert.EqualValues(t, 100, *e.Tick)
}

func TestBuildV4SwapCarriesDynamicFee(t *testing.T) {
	ev := parser.V4Swap{
		Sender:  "0xsender",
		Amount0: big.NewInt(10),
		Amount1: big.NewInt(-10),
		Fee:     500,
	}
	e := BuildV4Swap(1, ev, tok("0xt0", 18), tok("0xt1", 18), "0xpoolid")
	assert.EqualValues(t, 500, e.FeePPM)
}

func TestBuildV2MintFlowsIntoPool(t *testing.T) {
	e := BuildV2Mint(1, parser.V2Mint{Sender: "0xs", Amount0: big.NewInt(1), Amount1: big.NewInt(2)}, tok("0xt0", 18), tok("0xt1", 18), "0xpool")
	assert.EqualValues(t, -1, e.Direction0)
	assert.EqualValues(t, -1, e.Direction1)
	assert.Equal(t, models.EventMint, e.EventType)
}

func TestBuildV2BurnFlowsOutOfPool(t *testing.T) {
	e := BuildV2Burn(1, parser.V2Burn{Sender: "0xs", Amount0: big.NewInt(1), Amount1: big.NewInt(2)}, tok("0xt0", 18), tok("0xt1", 18), "0xpool")
	assert.EqualValues(t, 1, e.Direction0)
	assert.EqualValues(t, 1, e.Direction1)
	assert.Equal(t, models.EventBurn, e.EventType)
}

func TestBuildV3MintCarriesLiquidityAndTickRange(t *testing.T) {
	e := BuildV3Mint(1, parser.V3Mint{
		Owner: "0xowner", TickLower: -100, TickUpper: 100, Amount: big.NewInt(500),
		Amount0: big.NewInt(1), Amount1: big.NewInt(2),
	}, tok("0xt0", 18), tok("0xt1", 18), "0xpool")
	require.NotNil(t, e.TickLower)
	require.NotNil(t, e.TickUpper)
	assert.EqualValues(t, -100, *e.TickLower)
	assert.EqualValues(t, 100, *e.TickUpper)
	require.NotNil(t, e.Liquidity)
	assert.Equal(t, "500", *e.Liquidity)
}

func TestBuildV4ModifyLiquidityAddRemoveDirection(t *testing.T) {
	tick := int32(0)
	adding := BuildV4ModifyLiquidity(1, parser.V4ModifyLiquidity{
		Sender: "0xs", TickLower: -200, TickUpper: 200, LiquidityDelta: big.NewInt(1000),
	}, tok("0xt0", 18), tok("0xt1", 18), "0xpoolid", &tick)
	assert.EqualValues(t, -1, adding.Direction0, "positive liquidityDelta adds")

	removing := BuildV4ModifyLiquidity(1, parser.V4ModifyLiquidity{
		Sender: "0xs", TickLower: -200, TickUpper: 200, LiquidityDelta: big.NewInt(-1000),
	}, tok("0xt0", 18), tok("0xt1", 18), "0xpoolid", &tick)
	assert.EqualValues(t, 1, removing.Direction0, "negative liquidityDelta removes")
}

func TestBuildV4ModifyLiquidityWithoutCurrentTickYieldsZeroAmounts(t *testing.T) {
	e := BuildV4ModifyLiquidity(1, parser.V4ModifyLiquidity{
		Sender: "0xs", TickLower: -200, TickUpper: 200, LiquidityDelta: big.NewInt(1000),
	}, tok("0xt0", 18), tok("0xt1", 18), "0xpoolid", nil)
	assert.Equal(t, 0.0, e.Amount0Adjusted)
	assert.Equal(t, 0.0, e.Amount1Adjusted)
}
