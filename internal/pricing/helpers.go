package pricing

import (
	"math"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func boundedVolume(v float64) float64 {
	if bignum.ValidateUSDVolume(v) {
		return v
	}
	return 0
}

func isSuspiciousVolumeToTVL(volumeUSD float64, pool *models.Pool) bool {
	if pool.TVLUSD == nil {
		return false
	}
	return bignum.IsSuspiciousVolumeToTVL(volumeUSD, *pool.TVLUSD)
}

// impliedPrice computes the swap-execution-implied rate token1/token0
// from the event's own amounts, validated as a price ratio.
func impliedPrice(event *models.Event) (float64, bool) {
	a0 := absFloat(event.Amount0Adjusted)
	a1 := absFloat(event.Amount1Adjusted)
	if a0 <= 1e-18 || a1 <= 0 {
		return 0, false
	}
	implied := a1 / a0
	if !bignum.ValidatePriceRatio(implied) {
		return 0, false
	}
	return implied, true
}

func divergence(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Abs(a/b - 1)
}

// nativeReserveAdjusted returns the pool's adjusted reserve on whichever
// side holds the wrapped-native token, or 0 if the pool doesn't pair
// against it.
func (e *Engine) nativeReserveAdjusted(pool *models.Pool) float64 {
	switch {
	case e.tokens.IsWrappedNative(pool.Token0):
		return pool.Reserve0Adjusted
	case e.tokens.IsWrappedNative(pool.Token1):
		return pool.Reserve1Adjusted
	default:
		return 0
	}
}

func (e *Engine) hasSufficientNativeLiquidity(pool *models.Pool) bool {
	nativeAmount := e.nativeReserveAdjusted(pool)
	if nativeAmount == 0 && !e.tokens.IsWrappedNative(pool.Token0) && !e.tokens.IsWrappedNative(pool.Token1) {
		return true // pool doesn't contain native: defer to the TVL gate
	}
	return bignum.HasSufficientNativeLiquidity(nativeAmount * e.nativePriceUSD)
}

// passesTVLGate drops illiquid pools: if TVL is known, it must clear
// the floor; if unknown (new pool, same batch), estimate from the
// native side as 2x its USD value (the V2 50/50 assumption).
func (e *Engine) passesTVLGate(event *models.Event, pool *models.Pool) bool {
	if pool.TVLUSD != nil {
		tvl := *pool.TVLUSD
		if !bignum.ValidateUSDTVL(tvl) || tvl < bignum.MinPoolTVLUSDToPrice {
			return false
		}
		return true
	}

	nativeAmount := e.nativeReserveAdjusted(pool)
	if nativeAmount <= 0 {
		return true
	}
	nativeValue := nativeAmount * e.nativePriceUSD
	if nativeValue <= 0 {
		return true
	}
	estimatedTVL := nativeValue * 2
	quoteTokenUSD := 0.0
	switch {
	case e.tokens.IsStable(pool.QuoteToken):
		quoteTokenUSD = 1.0
	case e.tokens.IsWrappedNative(pool.QuoteToken):
		quoteTokenUSD = e.nativePriceUSD
	}
	if quoteTokenUSD <= 0 {
		return true
	}
	baseIsToken0 := pool.BaseToken == pool.Token0
	_, quoteAmount := splitAmounts(event, baseIsToken0)
	approxVolumeUSD := quoteAmount * quoteTokenUSD
	return !bignum.IsSuspiciousVolumeToTVL(approxVolumeUSD, estimatedTVL)
}

// selectRate picks the exchange rate (base per quote, i.e. quote
// per 1 base... expressed as "quote units per base unit") used to
// price the swap, preferring the swap-implied rate when it diverges
// from the pool-state rate by more than MaxPriceDivergence (steps 4-6).
func (e *Engine) selectRate(event *models.Event, pool *models.Pool, baseIsToken0 bool) (float64, bool) {
	var poolRate *float64
	if baseIsToken0 {
		poolRate = validatedPtr(pool.Token1Price)
	} else {
		poolRate = validatedPtr(pool.Token0Price)
	}

	implied, impliedOK := impliedPrice(event)
	poolPriceRaw := validatedPtr(pool.Price)

	switch {
	case poolRate != nil && impliedOK && poolPriceRaw != nil:
		if divergence(implied, *poolPriceRaw) > bignum.MaxPriceDivergence {
			return directionalImplied(implied, baseIsToken0, *poolRate)
		}
		return *poolRate, true
	case poolRate == nil && impliedOK:
		return directionalImplied(implied, baseIsToken0, 0)
	case poolRate != nil:
		return *poolRate, true
	default:
		return 0, false
	}
}

// directionalImplied converts the token1/token0 implied rate into the
// base-per-quote direction the caller needs, falling back to
// poolRateFallback (only meaningful when pool rate was available).
func directionalImplied(implied float64, baseIsToken0 bool, poolRateFallback float64) (float64, bool) {
	if baseIsToken0 {
		return implied, true
	}
	if implied <= 0 {
		if poolRateFallback > 0 {
			return poolRateFallback, true
		}
		return 0, false
	}
	inv := 1 / implied
	if !bignum.ValidatePriceRatio(inv) {
		if poolRateFallback > 0 {
			return poolRateFallback, true
		}
		return 0, false
	}
	return inv, true
}

func validatedPtr(v *float64) *float64 {
	if v == nil || !bignum.ValidatePriceRatio(*v) {
		return nil
	}
	return v
}
