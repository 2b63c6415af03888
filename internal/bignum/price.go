package bignum

import "math/big"

// q96 is 2^96, the fixed-point scale of sqrtPriceX96.
var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// SqrtPriceX96ToAdjustedPrice converts a raw sqrtPriceX96 value into
// the decimal-adjusted price ratio token1/token0:
//
//	adjusted = (sqrtPriceX96 / 2^96)^2 * 10^(decimals0 - decimals1)
//
// Full-precision decimal-string-equivalent arithmetic via big.Float;
// the float64 narrowing happens only at the very end (spec.md §4.E).
func SqrtPriceX96ToAdjustedPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).SetPrec(precision).Quo(
		new(big.Float).SetPrec(precision).SetInt(sqrtPriceX96),
		new(big.Float).SetPrec(precision).SetInt(q96),
	)
	squared := new(big.Float).SetPrec(precision).Mul(ratio, ratio)

	decDelta := int(decimals0) - int(decimals1)
	scaled := applyDecimalDelta(squared, decDelta)

	f, _ := scaled.Float64()
	return f
}

// AdjustedPriceToSqrtPriceX96 is the inverse of
// SqrtPriceX96ToAdjustedPrice: recovers a sqrtPriceX96 integer from an
// adjusted price ratio and the pair's decimals. Used only by tests
// exercising the round-trip law in spec.md §8.
func AdjustedPriceToSqrtPriceX96(adjustedPrice float64, decimals0, decimals1 uint8) *big.Int {
	if adjustedPrice <= 0 {
		return new(big.Int)
	}
	price := new(big.Float).SetPrec(precision).SetFloat64(adjustedPrice)
	decDelta := int(decimals0) - int(decimals1)
	unscaled := applyDecimalDelta(price, -decDelta)

	sqrtRatio := sqrtBigFloat(unscaled)
	scaled := new(big.Float).SetPrec(precision).Mul(sqrtRatio, new(big.Float).SetPrec(precision).SetInt(q96))
	result, _ := scaled.Int(nil)
	return result
}

// VirtualReserves computes the decimal-adjusted virtual reserves of a
// concentrated-liquidity pool from its raw liquidity and sqrtPriceX96,
// per original_source's calculate_reserves_from_liquidity_subgraph:
//
//	r0 = L / sqrtP, r1 = L * sqrtP,  sqrtP = sqrtPriceX96 / 2^96
func VirtualReserves(liquidity, sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (reserve0Adjusted, reserve1Adjusted float64) {
	if liquidity == nil || liquidity.Sign() <= 0 || sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, 0
	}
	l := new(big.Float).SetPrec(precision).SetInt(liquidity)
	sqrtP := new(big.Float).SetPrec(precision).Quo(
		new(big.Float).SetPrec(precision).SetInt(sqrtPriceX96),
		new(big.Float).SetPrec(precision).SetInt(q96),
	)

	rawR0 := new(big.Float).SetPrec(precision).Quo(l, sqrtP)
	rawR1 := new(big.Float).SetPrec(precision).Mul(l, sqrtP)

	adjR0 := applyDecimalDelta(rawR0, -int(decimals0))
	adjR1 := applyDecimalDelta(rawR1, -int(decimals1))

	reserve0Adjusted, _ = adjR0.Float64()
	reserve1Adjusted, _ = adjR1.Float64()
	return
}

// applyDecimalDelta multiplies v by 10^delta (delta may be negative).
func applyDecimalDelta(v *big.Float, delta int) *big.Float {
	if delta == 0 {
		return v
	}
	factor := new(big.Float).SetPrec(precision).SetInt(Pow10(abs(delta)))
	if delta > 0 {
		return new(big.Float).SetPrec(precision).Mul(v, factor)
	}
	return new(big.Float).SetPrec(precision).Quo(v, factor)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// sqrtBigFloat computes sqrt(v) via Newton's method at the package's
// working precision. Only used by the test-only inverse conversion
// above, where an exact library sqrt is not worth a new dependency.
func sqrtBigFloat(v *big.Float) *big.Float {
	if v.Sign() <= 0 {
		return new(big.Float).SetPrec(precision)
	}
	x := new(big.Float).SetPrec(precision).Copy(v)
	guess := new(big.Float).SetPrec(precision).Quo(x, big.NewFloat(2))
	if guess.Sign() == 0 {
		guess = big.NewFloat(1)
	}
	two := big.NewFloat(2)
	for i := 0; i < 60; i++ {
		// next = (guess + x/guess) / 2
		div := new(big.Float).SetPrec(precision).Quo(x, guess)
		sum := new(big.Float).SetPrec(precision).Add(guess, div)
		guess = new(big.Float).SetPrec(precision).Quo(sum, two)
	}
	return guess
}
