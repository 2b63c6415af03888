package pricing

import (
	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

// PriceSwapEvent fills in Event.PriceUSD/VolumeUSD/FeesUSD/IsSuspicious
// for a swap, following the ten-step algorithm in spec.md §4.E.
// Grounded on original_source/src/worker/price_resolver.rs's
// price_swap_event.
func (e *Engine) PriceSwapEvent(event *models.Event, pool *models.Pool, pools map[string]models.Pool) {
	// Step 1: TVL gate (or native-side estimate when TVL is unknown).
	if !e.passesTVLGate(event, pool) {
		event.PriceUSD, event.VolumeUSD, event.IsSuspicious = 0, 0, true
		return
	}

	// Step 2: native-liquidity gate.
	if !e.hasSufficientNativeLiquidity(pool) {
		event.PriceUSD, event.VolumeUSD, event.IsSuspicious = 0, 0, true
		return
	}

	// Step 3: whitelist gate.
	token0Whitelisted := e.IsWhitelisted(pool.Token0)
	token1Whitelisted := e.IsWhitelisted(pool.Token1)
	if !token0Whitelisted && !token1Whitelisted {
		event.PriceUSD, event.VolumeUSD = 0, 0
		return
	}

	quoteTokenUSD := e.quoteTokenUSD(pool, pools)
	if quoteTokenUSD <= 0 {
		event.PriceUSD, event.VolumeUSD = 0, 0
		return
	}

	baseIsToken0 := pool.BaseToken == pool.Token0

	// Steps 4-6: pool rate vs implied rate, divergence-aware selection.
	finalRate, ok := e.selectRate(event, pool, baseIsToken0)
	if !ok {
		event.PriceUSD, event.VolumeUSD = 0, 0
		return
	}

	// Step 7: base_token_usd with absolute + relative validation.
	rawBaseUSD := finalRate * quoteTokenUSD
	baseTokenUSD := relativeOrZero(boundedOrZero(rawBaseUSD), e.nativePriceUSD)
	if baseTokenUSD <= 0 {
		event.PriceUSD, event.VolumeUSD = 0, 0
		return
	}

	baseAmount, quoteAmount := splitAmounts(event, baseIsToken0)
	quoteValueUSD := quoteAmount * quoteTokenUSD

	if _, ok := impliedPrice(event); ok && baseAmount > 1e-10 && quoteValueUSD > 1e-10 {
		impliedBaseUSD := quoteValueUSD / baseAmount
		if !bignum.ValidatePriceAgainstVolume(baseTokenUSD, impliedBaseUSD) {
			baseTokenUSD = relativeOrZero(impliedBaseUSD, e.nativePriceUSD)
			if baseTokenUSD <= 0 {
				event.PriceUSD, event.VolumeUSD = 0, 0
				return
			}
		}
	}
	event.PriceUSD = baseTokenUSD

	// Step 9: cross-validate base_token_usd*base_amount against quote_value_usd.
	if !bignum.ValidateCrossCheck(baseTokenUSD*baseAmount, quoteValueUSD) {
		event.PriceUSD, event.VolumeUSD = 0, 0
		return
	}

	// Step 8: volume via the whitelist rule.
	token0USD, token1USD := baseTokenUSD, quoteTokenUSD
	if !baseIsToken0 {
		token0USD, token1USD = quoteTokenUSD, baseTokenUSD
	}
	volume := swapVolumeUSD(event, token0Whitelisted, token1Whitelisted, token0USD, token1USD)
	event.VolumeUSD = boundedVolume(volume)

	// Step 10: fees, preferring the event's own dynamic fee.
	feePPM := event.FeePPM
	if feePPM == 0 {
		feePPM = pool.Fee
	}
	event.FeesUSD = event.VolumeUSD * float64(feePPM) / 1e6

	if isSuspiciousVolumeToTVL(event.VolumeUSD, pool) {
		event.IsSuspicious = true
	}
}

func splitAmounts(event *models.Event, baseIsToken0 bool) (baseAmount, quoteAmount float64) {
	a0, a1 := absFloat(event.Amount0Adjusted), absFloat(event.Amount1Adjusted)
	if baseIsToken0 {
		return a0, a1
	}
	return a1, a0
}

func swapVolumeUSD(event *models.Event, token0Whitelisted, token1Whitelisted bool, token0USD, token1USD float64) float64 {
	amount0USD := absFloat(event.Amount0Adjusted) * token0USD
	amount1USD := absFloat(event.Amount1Adjusted) * token1USD
	switch {
	case token0Whitelisted && token1Whitelisted:
		return maxFloat2(amount0USD, amount1USD)
	case token0Whitelisted:
		return amount0USD * 2
	default:
		return amount1USD * 2
	}
}
