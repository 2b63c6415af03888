package pricing

import (
	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

// PoolPricing computes a pool's own price_usd/tvl_usd. Grounded on
// price_resolver.rs's calculate_pool_pricing. Returns (nil, nil) when
// neither token is whitelisted.
func (e *Engine) PoolPricing(pool *models.Pool, pools map[string]models.Pool) (priceUSD, tvlUSD *float64) {
	token0Whitelisted := e.IsWhitelisted(pool.Token0)
	token1Whitelisted := e.IsWhitelisted(pool.Token1)
	if !token0Whitelisted && !token1Whitelisted {
		return nil, nil
	}

	if price := e.deriveBaseTokenUSD(pool, pools); price > 0 {
		priceUSD = &price
	}

	token0USD := 0.0
	if token0Whitelisted {
		token0USD = e.TokenPriceUSD(pool.Token0, pools)
	}
	token1USD := 0.0
	if token1Whitelisted {
		token1USD = e.TokenPriceUSD(pool.Token1, pools)
	}

	tvl := e.computeTVL(pool, token0Whitelisted, token1Whitelisted, token0USD, token1USD)
	if bignum.ValidateUSDTVL(tvl) && tvl > 0 {
		tvlUSD = &tvl
	}
	return priceUSD, tvlUSD
}

// computeTVL uses explicit V2 reserves when present, else backs out
// V3/V4 virtual reserves from liquidity + sqrtPriceX96. Only V2 pools
// double a lone whitelisted side's value (the 50/50 assumption);
// V3/V4 virtual reserves already reflect actual pool balance.
func (e *Engine) computeTVL(pool *models.Pool, token0Whitelisted, token1Whitelisted bool, token0USD, token1USD float64) float64 {
	isV2 := pool.ProtocolVersion == models.ProtocolV2

	var r0, r1 float64
	haveReserves := false
	if isV2 {
		r0, r1 = pool.Reserve0Adjusted, pool.Reserve1Adjusted
		haveReserves = true
	} else if pool.Liquidity != "" && pool.Liquidity != "0" && pool.SqrtPriceX96 != nil {
		r0, r1 = bignum.VirtualReserves(bignum.ParseBigInt(pool.Liquidity), bignum.ParseBigInt(*pool.SqrtPriceX96), pool.Token0Decimals, pool.Token1Decimals)
		haveReserves = true
	}
	if !haveReserves {
		return 0
	}

	switch {
	case token0Whitelisted && token1Whitelisted:
		return r0*token0USD + r1*token1USD
	case token0Whitelisted:
		if isV2 {
			return r0 * token0USD * 2
		}
		return r0 * token0USD
	case token1Whitelisted:
		if isV2 {
			return r1 * token1USD * 2
		}
		return r1 * token1USD
	default:
		return 0
	}
}
