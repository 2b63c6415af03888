package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/classify"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

func testChainTokens() *classify.ChainTokens {
	return classify.New("0xwrapped", "0xstable", []string{"0xmajor"}, []string{"0xstable"}, "0xstablepool")
}

func TestFromV2PairCreatedSetsStandardFee(t *testing.T) {
	p := FromV2PairCreated(1, "0xfactory", parser.V2PairCreated{Pair: "0xpair"},
		tok("0xwrapped", 18), tok("0xgeneric", 18), testChainTokens())
	assert.EqualValues(t, 3000, p.Fee)
	assert.EqualValues(t, 3000, p.InitialFee)
	assert.Equal(t, models.ProtocolV2, p.ProtocolVersion)
	assert.Equal(t, "0", p.Liquidity)
}

func TestFromV2PairCreatedDetectsInversionByPriority(t *testing.T) {
	// token0 = wrapped-native (priority 80), token1 = generic (priority 10):
	// priority(token0) > priority(token1) => inverted, base=token1, quote=token0.
	p := FromV2PairCreated(1, "0xfactory", parser.V2PairCreated{Pair: "0xpair"},
		tok("0xwrapped", 18), tok("0xgeneric", 18), testChainTokens())
	assert.True(t, p.IsInverted)
	assert.Equal(t, "0xgeneric", p.BaseToken)
	assert.Equal(t, "0xwrapped", p.QuoteToken)
}

func TestFromV3PoolCreatedInitializesZeroBalanceTracking(t *testing.T) {
	p := FromV3PoolCreated(1, "0xfactory", parser.V3PoolCreated{Pool: "0xpool", Fee: 500, TickSpacing: 10},
		tok("0xgeneric", 18), tok("0xstable", 6), testChainTokens())
	assert.Equal(t, 0.0, p.Reserve0Adjusted)
	assert.Equal(t, "0", p.Liquidity)
	require.NotNil(t, p.TickSpacing)
	assert.EqualValues(t, 10, *p.TickSpacing)
}

func TestFromV4InitializeDerivesOpeningPrice(t *testing.T) {
	sqrtP, _ := new(big.Int).SetString("79228162514264337593543950336", 10) // 2^96, price ratio 1.0
	p := FromV4Initialize(1, "0xfactory", parser.V4Initialize{
		Fee: 3000, TickSpacing: 60, Hooks: "0xhook", SqrtPriceX96: sqrtP, Tick: 0,
	}, "0xpoolid", tok("0xgeneric", 18), tok("0xstable", 18), testChainTokens())
	require.NotNil(t, p.Price)
	assert.InEpsilon(t, 1.0, *p.Price, 1e-6)
	assert.Equal(t, "0xhook", p.HookAddress)
}
