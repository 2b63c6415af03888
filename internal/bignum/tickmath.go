package bignum

import "math/big"

// MinTick and MaxTick bound the valid tick range for concentrated
// liquidity: price(i) = 1.0001^i.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// tickMultipliers are 1.0001^(-2^i/2) expressed in Q128.128 fixed
// point, one entry per bit of |tick| from bit 0 through bit 19 —
// spec.md §4.E's "constant table of 20 precomputed multipliers". This
// is the standard Uniswap V3 bit-decomposition table.
var tickMultipliers = []string{
	"0xfffcb933bd6fad37aa2d162d1a594001",
	"0xfff97272373d413259a46990580e213a",
	"0xfff2e50f5f656932ef12357cf3c7fdcc",
	"0xffe5caca7e10e4e61c3624eaa0941cd0",
	"0xffcb9843d60f6159c9db58835c926644",
	"0xff973b41fa98c081472e6896dfb254c0",
	"0xff2ea16466c96a3843ec78b326b52861",
	"0xfe5dee046a99a2a811c461f1969c3053",
	"0xfcbe86c7900a88aedcffc83b479aa3a4",
	"0xf987a7253ac413176f2b074cf7815e54",
	"0xf3392b0822b70005940c7a398e4b70f3",
	"0xe7159475a2c29b7443b29c7fa6e889d9",
	"0xd097f3bdfd2022b8845ad8f792aa5825",
	"0xa9f746462d870fdf8a65dc1f90e061e5",
	"0x70d869a156d2a1b890bb3df62baf32f7",
	"0x31be135f97d08fd981231505542fcfa6",
	"0x9aa508b5b7a84e1c677de54f3e99bc9",
	"0x5d6af8dedb81196699c329225ee604",
	"0x2216e584f5fa1ea926041bedfe98",
	"0x48a170391f7dc42444e8fa2",
}

var (
	oneQ128    = new(big.Int).Lsh(big.NewInt(1), 128)
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// TickToSqrtPriceX96 computes sqrt(1.0001^tick) * 2^96 for tick
// clamped to [MinTick, MaxTick], via the standard bit-decomposition
// table, monotonically non-decreasing in tick across the full range
// (spec.md §8).
func TickToSqrtPriceX96(tick int32) *big.Int {
	if tick < MinTick {
		tick = MinTick
	}
	if tick > MaxTick {
		tick = MaxTick
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(big.Int).Set(oneQ128)
	for i, hexMul := range tickMultipliers {
		if absTick&(1<<uint(i)) != 0 {
			mul, _ := new(big.Int).SetString(hexMul[2:], 16)
			ratio.Mul(ratio, mul)
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio = new(big.Int).Div(maxUint256, ratio)
	}

	// Q128.128 -> Q128.96, rounding up.
	sqrtPriceX96 := new(big.Int).Rsh(ratio, 32)
	remainder := new(big.Int).And(ratio, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(1)))
	if remainder.Sign() != 0 {
		sqrtPriceX96.Add(sqrtPriceX96, big.NewInt(1))
	}
	return sqrtPriceX96
}

// CalculateMintAmounts computes the token0/token1 amounts backed out
// of an absolute liquidity delta and a tick range, per the Uniswap V3
// formulas (spec.md §4.E):
//
//	tick < tickLower:  only token0
//	tick >= tickUpper: only token1
//	else:              both sides, split at tick
func CalculateMintAmounts(currentTick, tickLower, tickUpper int32, liquidityAbs *big.Int, decimals0, decimals1 uint8) (amount0Adjusted, amount1Adjusted float64) {
	if liquidityAbs == nil || liquidityAbs.Sign() <= 0 {
		return 0, 0
	}

	sqrtPa := newBigFloatFromInt(TickToSqrtPriceX96(tickLower))
	sqrtPb := newBigFloatFromInt(TickToSqrtPriceX96(tickUpper))
	l := new(big.Float).SetPrec(precision).SetInt(liquidityAbs)
	q96f := new(big.Float).SetPrec(precision).SetInt(q96)

	switch {
	case currentTick < tickLower:
		// amount0 = L * (1/sqrtPa - 1/sqrtPb). sqrtPa/sqrtPb are Q96
		// fixed point, so q96/sqrtPa is already the plain 1/sqrtPa and
		// the product needs no further scaling.
		invA := new(big.Float).SetPrec(precision).Quo(q96f, sqrtPa)
		invB := new(big.Float).SetPrec(precision).Quo(q96f, sqrtPb)
		diff := new(big.Float).SetPrec(precision).Sub(invA, invB)
		raw := new(big.Float).SetPrec(precision).Mul(l, diff)
		amount0Adjusted = adjustedFloat(raw, decimals0)
	case currentTick >= tickUpper:
		diff := new(big.Float).SetPrec(precision).Sub(sqrtPb, sqrtPa)
		raw := new(big.Float).SetPrec(precision).Mul(l, diff)
		raw.Quo(raw, q96f)
		amount1Adjusted = adjustedFloat(raw, decimals1)
	default:
		sqrtPCurrent := newBigFloatFromInt(TickToSqrtPriceX96(currentTick))

		invCur := new(big.Float).SetPrec(precision).Quo(q96f, sqrtPCurrent)
		invB := new(big.Float).SetPrec(precision).Quo(q96f, sqrtPb)
		diff0 := new(big.Float).SetPrec(precision).Sub(invCur, invB)
		raw0 := new(big.Float).SetPrec(precision).Mul(l, diff0)
		amount0Adjusted = adjustedFloat(raw0, decimals0)

		diff1 := new(big.Float).SetPrec(precision).Sub(sqrtPCurrent, sqrtPa)
		raw1 := new(big.Float).SetPrec(precision).Mul(l, diff1)
		raw1.Quo(raw1, q96f)
		amount1Adjusted = adjustedFloat(raw1, decimals1)
	}
	return
}

func newBigFloatFromInt(v *big.Int) *big.Float {
	return new(big.Float).SetPrec(precision).SetInt(v)
}

func adjustedFloat(raw *big.Float, decimals uint8) float64 {
	adj := applyDecimalDelta(raw, -int(decimals))
	if adj.Sign() < 0 {
		adj.SetInt64(0)
	}
	f, _ := adj.Float64()
	return f
}
