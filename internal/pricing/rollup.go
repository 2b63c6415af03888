package pricing

import (
	"strings"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

// TokenPriceRollup computes the TVL-weighted average USD price across
// every pool where token is the base token:
// Σ(pool.price_usd·pool.tvl_usd) / Σ pool.tvl_usd. Grounded on
// price_resolver.rs's calculate_token_price.
func (e *Engine) TokenPriceRollup(token string, pools map[string]models.Pool) (float64, bool) {
	lower := strings.ToLower(token)
	var weightedSum, totalTVL float64

	for _, pool := range pools {
		if !strings.EqualFold(pool.BaseToken, lower) {
			continue
		}
		if pool.PriceUSD == nil || pool.TVLUSD == nil {
			continue
		}
		priceUSD, tvlUSD := *pool.PriceUSD, *pool.TVLUSD
		if priceUSD <= 0 || tvlUSD <= 0 || priceUSD > bignum.MaxPriceRatio {
			continue
		}
		weightedSum += priceUSD * tvlUSD
		totalTVL += tvlUSD
	}

	if totalTVL <= 0 {
		return 0, false
	}

	avg := weightedSum / totalTVL
	validated := boundedOrZero(avg)
	if validated <= 0 {
		return 0, false
	}
	final := relativeOrZero(validated, e.nativePriceUSD)
	if final <= 0 {
		return 0, false
	}
	return final, true
}
