// Package bignum provides arbitrary-precision helpers for reserve and
// liquidity arithmetic. spec.md §9 forbids direct float64 conversion
// from integers above 2^53 on hot paths; every conversion here routes
// through math/big so liquidity deltas and sqrtPriceX96 values (which
// regularly exceed 64 bits) never silently lose precision before the
// final, deliberate float64 narrowing for storage.
package bignum

import (
	"math/big"
)

// precision is the working precision (in bits) for big.Float
// operations; ample for 256-bit integers divided by a power of ten.
const precision = 256

// pow10Cache memoizes 10^n as *big.Int for small, repeatedly used n
// (decimals are bounded by models.MaxTokenDecimals == 24).
var pow10Cache = map[int]*big.Int{}

// Pow10 returns 10^n as a *big.Int, n >= 0.
func Pow10(n int) *big.Int {
	if n < 0 {
		return big.NewInt(1)
	}
	if v, ok := pow10Cache[n]; ok {
		return v
	}
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	pow10Cache[n] = v
	return v
}

// ParseBigInt parses a base-10 integer string, returning zero for an
// empty or malformed string rather than erroring — raw on-chain amount
// fields are always valid decimal strings produced by this repo's own
// formatting, so a parse failure here indicates corrupt stored state,
// not user input; callers treat the zero value as "absent".
func ParseBigInt(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// AdjustedToFloat converts a raw integer amount (as a decimal string)
// to its decimal-adjusted float64 value: raw / 10^decimals. Uses
// big.Float division at full precision; the float64 narrowing happens
// only once, at the very end.
func AdjustedToFloat(raw string, decimals uint8) float64 {
	return BigIntToFloat(ParseBigInt(raw), decimals)
}

// BigIntToFloat converts a raw *big.Int amount to its decimal-adjusted
// float64 value: raw / 10^decimals.
func BigIntToFloat(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	num := new(big.Float).SetPrec(precision).SetInt(raw)
	den := new(big.Float).SetPrec(precision).SetInt(Pow10(int(decimals)))
	if den.Sign() == 0 {
		return 0
	}
	result := new(big.Float).SetPrec(precision).Quo(num, den)
	f, _ := result.Float64()
	return f
}

// AddDelta adds delta (which may be negative) to the base-10 integer
// string acc, clamping the result at zero, and returns the new value
// as a string. Grounds the delta-accumulated reserve/liquidity rule in
// spec.md §4.D.
func AddDelta(acc string, delta *big.Int) string {
	cur := ParseBigInt(acc)
	next := new(big.Int).Add(cur, delta)
	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	return next.String()
}

// Sub returns a - b as a *big.Int.
func Sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}

// Neg returns -a as a *big.Int.
func Neg(a *big.Int) *big.Int {
	return new(big.Int).Neg(a)
}
