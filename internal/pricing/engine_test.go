package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/classify"
	"github.com/luxfi/dexindexer/internal/models"
)

func testTokens() *classify.ChainTokens {
	return classify.New("0xwnative", "0xusdc", []string{"0xmajor"}, []string{"0xusdc"}, "0xstablepool")
}

func f(v float64) *float64 { return &v }

func TestTokenPriceUSDStablecoinIsOne(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	assert.Equal(t, 1.0, e.TokenPriceUSD("0xusdc", nil))
}

func TestTokenPriceUSDWrappedNativeIsNativePrice(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	assert.Equal(t, 3000.0, e.TokenPriceUSD("0xwnative", nil))
}

func TestTokenPriceUSDCachesResult(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	first := e.TokenPriceUSD("0xusdc", nil)
	// Mutate native price after caching; cached token prices must not change.
	e.nativePriceUSD = 1.0
	second := e.TokenPriceUSD("0xusdc", nil)
	assert.Equal(t, first, second)
}

func TestTokenPriceUSDDerivesViaNativePairedPool(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pools := map[string]models.Pool{
		"0xpool": {
			Token0: "0xgeneric", Token1: "0xwnative",
			Token1Decimals: 18, Token0Decimals: 18,
			Token1Price:      f(0.001), // 0.001 wnative per 1 generic
			Reserve0Adjusted: 1_000_000,
			Reserve1Adjusted: 1_000, // 1000 wnative * $3000 = $3,000,000 weight
		},
	}
	price := e.TokenPriceUSD("0xgeneric", pools)
	assert.InEpsilon(t, 3.0, price, 1e-9) // 0.001 * 3000
}

func TestTokenPriceUSDRejectsLowLiquidityCandidate(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pools := map[string]models.Pool{
		"0xpool": {
			Token0: "0xgeneric", Token1: "0xwnative",
			Token1Price:      f(0.001),
			Reserve1Adjusted: 0.1, // $300 of weight, below the $5000 floor
		},
	}
	assert.Equal(t, 0.0, e.TokenPriceUSD("0xgeneric", pools))
}

func TestPoolPricingSkipsUnwhitelistedPools(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := models.Pool{Token0: "0xscam1", Token1: "0xscam2"}
	priceUSD, tvlUSD := e.PoolPricing(&pool, nil)
	assert.Nil(t, priceUSD)
	assert.Nil(t, tvlUSD)
}

func TestPoolPricingV2DoublesLoneWhitelistedSide(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	pool := models.Pool{
		Token0: "0xgeneric", Token1: "0xwnative",
		BaseToken: "0xgeneric", QuoteToken: "0xwnative",
		ProtocolVersion:  models.ProtocolV2,
		Token1Price:      f(0.001),
		Reserve0Adjusted: 1000,
		Reserve1Adjusted: 1,
	}
	_, tvlUSD := e.PoolPricing(&pool, map[string]models.Pool{"p": pool})
	require.NotNil(t, tvlUSD)
	assert.InEpsilon(t, 1*3000.0*2, *tvlUSD, 1e-9)
}

func TestPoolPricingV3DoesNotDoubleVirtualReserves(t *testing.T) {
	e := NewEngine(testTokens(), 3000.0, 0)
	sqrtP := "79228162514264337593543950336" // 2^96, price ratio 1.0
	liq := "1000000000000000000000"          // 1000 * 1e18
	pool := models.Pool{
		Token0: "0xgeneric", Token1: "0xwnative",
		BaseToken: "0xgeneric", QuoteToken: "0xwnative",
		ProtocolVersion: models.ProtocolV3,
		Token1Price:     f(1.0),
		Token0Decimals:  18, Token1Decimals: 18,
		SqrtPriceX96: &sqrtP,
		Liquidity:    liq,
	}
	_, tvlUSD := e.PoolPricing(&pool, map[string]models.Pool{"p": pool})
	require.NotNil(t, tvlUSD)
	// r1 = L*sqrtP = 1000 (price ratio 1.0); doubled would be 2000*3000.
	assert.Less(t, *tvlUSD, 2000.0*3000.0)
}

func TestNativePriceFromStablePoolNativeIsToken0(t *testing.T) {
	price := f(3100.0)
	pool := models.Pool{Token0: "0xwnative", Token1: "0xusdc", Price: price}
	got, ok := NativePriceFromStablePool(&pool, "0xwnative")
	require.True(t, ok)
	assert.Equal(t, 3100.0, got)
}

func TestNativePriceFromStablePoolNativeIsToken1Inverts(t *testing.T) {
	price := f(1.0 / 3100.0)
	pool := models.Pool{Token0: "0xusdc", Token1: "0xwnative", Price: price}
	got, ok := NativePriceFromStablePool(&pool, "0xwnative")
	require.True(t, ok)
	assert.InEpsilon(t, 3100.0, got, 1e-6)
}

func TestNativePriceFromStablePoolRejectsPoolWithoutNative(t *testing.T) {
	price := f(1.0)
	pool := models.Pool{Token0: "0xa", Token1: "0xb", Price: price}
	_, ok := NativePriceFromStablePool(&pool, "0xwnative")
	assert.False(t, ok)
}
