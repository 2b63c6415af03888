package bignum

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickToSqrtPriceX96Monotonic(t *testing.T) {
	ticks := []int32{MinTick, -500000, -100, -1, 0, 1, 100, 500000, MaxTick}
	var prev *big.Int
	for _, tick := range ticks {
		v := TickToSqrtPriceX96(tick)
		require.NotNil(t, v)
		if prev != nil {
			assert.True(t, v.Cmp(prev) >= 0, "tick %d should be >= previous", tick)
		}
		prev = v
	}
}

func TestTickClamping(t *testing.T) {
	below := TickToSqrtPriceX96(MinTick - 1000)
	atMin := TickToSqrtPriceX96(MinTick)
	assert.Equal(t, atMin.String(), below.String())

	above := TickToSqrtPriceX96(MaxTick + 1000)
	atMax := TickToSqrtPriceX96(MaxTick)
	assert.Equal(t, atMax.String(), above.String())
}

func TestSqrtPriceX96ToAdjustedPriceRoundTrip(t *testing.T) {
	sqrtPriceX96 := TickToSqrtPriceX96(1000)
	price := SqrtPriceX96ToAdjustedPrice(sqrtPriceX96, 18, 18)
	assert.Greater(t, price, 0.0)

	recovered := AdjustedPriceToSqrtPriceX96(price, 18, 18)
	recoveredPrice := SqrtPriceX96ToAdjustedPrice(recovered, 18, 18)
	assert.InEpsilon(t, price, recoveredPrice, 1e-6)
}

func TestAddDeltaClampsAtZero(t *testing.T) {
	assert.Equal(t, "0", AddDelta("5", big.NewInt(-10)))
	assert.Equal(t, "15", AddDelta("5", big.NewInt(10)))
}

func TestBigIntToFloatDecimalAdjustment(t *testing.T) {
	raw := ParseBigInt("1000000000000000000") // 1e18
	assert.InEpsilon(t, 1.0, BigIntToFloat(raw, 18), 1e-9)

	raw6 := ParseBigInt("300000000000") // 300000 * 1e6
	assert.InEpsilon(t, 300000.0, BigIntToFloat(raw6, 6), 1e-9)
}

func TestValidatePriceRatio(t *testing.T) {
	assert.True(t, ValidatePriceRatio(1.0))
	assert.True(t, ValidatePriceRatio(MinPriceRatio))
	assert.True(t, ValidatePriceRatio(MaxPriceRatio))
	assert.False(t, ValidatePriceRatio(MinPriceRatio/10))
	assert.False(t, ValidatePriceRatio(MaxPriceRatio*10))
	assert.False(t, ValidatePriceRatio(0))
	assert.False(t, ValidatePriceRatio(-1))
}

func TestCalculateMintAmountsOutOfRange(t *testing.T) {
	liq := big.NewInt(1_000_000_000_000)
	amount0, amount1 := CalculateMintAmounts(-100, 0, 100, liq, 18, 18)
	assert.Greater(t, amount0, 0.0)
	assert.Equal(t, 0.0, amount1)

	amount0, amount1 = CalculateMintAmounts(200, 0, 100, liq, 18, 18)
	assert.Equal(t, 0.0, amount0)
	assert.Greater(t, amount1, 0.0)
}
