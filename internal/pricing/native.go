package pricing

import (
	"math"
	"strings"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

// NativePriceFromStablePool derives the chain's native-token USD price
// from its canonical stable pool's current rate, grounded on
// original_source/src/db/models/native_token_price.rs's
// NativeTokenPrice::update_from_pool. Returns false if the pool
// doesn't actually contain wrappedNative, has no price yet, or the
// derived price falls outside [MinNativePriceUSD, MaxNativePriceUSD].
func NativePriceFromStablePool(pool *models.Pool, wrappedNative string) (float64, bool) {
	if pool.Price == nil {
		return 0, false
	}
	price := *pool.Price
	if price <= 0 || !bignum.ValidatePriceRatio(price) {
		return 0, false
	}

	nativeIsToken0 := strings.EqualFold(pool.Token0, wrappedNative)
	nativeIsToken1 := strings.EqualFold(pool.Token1, wrappedNative)
	if !nativeIsToken0 && !nativeIsToken1 {
		return 0, false
	}

	// pool.Price is token1/token0. Native is token0 => we need
	// token1 (stable) per token0 (native) = price. Native is token1 =>
	// we need token0 (stable) per token1 (native) = 1/price.
	var nativePriceUSD float64
	if nativeIsToken0 {
		nativePriceUSD = price
	} else {
		if price <= 0 {
			return 0, false
		}
		nativePriceUSD = 1 / price
	}

	if !isFiniteBounded(nativePriceUSD, bignum.MinNativePriceUSD, bignum.MaxNativePriceUSD) {
		return 0, false
	}
	return nativePriceUSD, true
}

func isFiniteBounded(v, min, max float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= min && v <= max
}
