package pool

import (
	"math/big"
	"time"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

// eventBase fills the identifier/topology fields every Event
// constructor shares.
func eventBase(chainID models.ChainID, blockNumber uint64, txHash string, logIndex uint32, poolAddress string, blockTimestamp uint64, token0, token1 models.Token, eventType models.EventType) models.Event {
	return models.Event{
		ChainID:     chainID,
		BlockNumber: blockNumber,
		Timestamp:   time.Unix(int64(blockTimestamp), 0).UTC(),
		TxHash:      txHash,
		LogIndex:    logIndex,
		PoolAddress: poolAddress,
		Token0:      token0.Address,
		Token1:      token1.Address,
		EventType:   eventType,
	}
}

// BuildV2Swap mirrors Event::from_v2_swap: amount0/amount1 are the net
// in/out per side (amountIn - amountOut, whichever is larger), with
// direction -1 (into pool) when the In side dominates.
func BuildV2Swap(chainID models.ChainID, ev parser.V2Swap, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventSwap)
	e.Maker = ev.Sender

	raw0, dir0 := netAmountAndDirection(ev.Amount0In, ev.Amount0Out)
	raw1, dir1 := netAmountAndDirection(ev.Amount1In, ev.Amount1Out)

	e.Amount0 = raw0.String()
	e.Amount1 = raw1.String()
	e.Direction0, e.Direction1 = dir0, dir1
	e.Amount0Adjusted = bignum.BigIntToFloat(raw0, token0.Decimals)
	e.Amount1Adjusted = bignum.BigIntToFloat(raw1, token1.Decimals)

	if abs := e.Amount0Adjusted; abs > 1e-15 || abs < -1e-15 {
		price := e.Amount1Adjusted / e.Amount0Adjusted
		if price < 0 {
			price = -price
		}
		e.Price = &price
	}
	return e
}

// netAmountAndDirection computes the net in/out raw amount and its
// direction (-1 into pool, +1 out of pool) for a V2 swap side.
func netAmountAndDirection(in, out *big.Int) (*big.Int, int8) {
	if in == nil {
		in = new(big.Int)
	}
	if out == nil {
		out = new(big.Int)
	}
	if in.Cmp(out) > 0 {
		return new(big.Int).Sub(in, out), -1
	}
	return new(big.Int).Sub(out, in), 1
}

// BuildV3Swap mirrors Event::from_v3_swap: amount0/amount1 are signed;
// negative means tokens flowed out of the pool (direction +1).
func BuildV3Swap(chainID models.ChainID, ev parser.V3Swap, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventSwap)
	e.Maker = ev.Sender

	abs0, dir0 := absAndDirection(ev.Amount0)
	abs1, dir1 := absAndDirection(ev.Amount1)
	e.Amount0 = abs0.String()
	e.Amount1 = abs1.String()
	e.Direction0, e.Direction1 = dir0, dir1
	e.Amount0Adjusted = bignum.BigIntToFloat(abs0, token0.Decimals)
	e.Amount1Adjusted = bignum.BigIntToFloat(abs1, token1.Decimals)

	if ev.SqrtPriceX96 != nil {
		price := bignum.SqrtPriceX96ToAdjustedPrice(ev.SqrtPriceX96, token0.Decimals, token1.Decimals)
		if price > 0 {
			e.Price = &price
		}
		sqrtStr := ev.SqrtPriceX96.String()
		e.SqrtPriceX96 = &sqrtStr
	}
	tick := ev.Tick
	e.Tick = &tick
	if ev.Liquidity != nil {
		liqStr := ev.Liquidity.String()
		e.Liquidity = &liqStr
	}
	return e
}

// BuildV4Swap mirrors Event::from_v4_swap, the same shape as V3 with
// the per-swap dynamic fee carried on the event.
func BuildV4Swap(chainID models.ChainID, ev parser.V4Swap, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventSwap)
	e.Maker = ev.Sender
	e.FeePPM = ev.Fee

	abs0, dir0 := absAndDirection(ev.Amount0)
	abs1, dir1 := absAndDirection(ev.Amount1)
	e.Amount0 = abs0.String()
	e.Amount1 = abs1.String()
	e.Direction0, e.Direction1 = dir0, dir1
	e.Amount0Adjusted = bignum.BigIntToFloat(abs0, token0.Decimals)
	e.Amount1Adjusted = bignum.BigIntToFloat(abs1, token1.Decimals)

	if ev.SqrtPriceX96 != nil {
		price := bignum.SqrtPriceX96ToAdjustedPrice(ev.SqrtPriceX96, token0.Decimals, token1.Decimals)
		if price > 0 {
			e.Price = &price
		}
		sqrtStr := ev.SqrtPriceX96.String()
		e.SqrtPriceX96 = &sqrtStr
	}
	tick := ev.Tick
	e.Tick = &tick
	if ev.Liquidity != nil {
		liqStr := ev.Liquidity.String()
		e.Liquidity = &liqStr
	}
	return e
}

// absAndDirection returns |v| and its flow direction: negative means
// out of the pool (+1), non-negative means into the pool (-1) — the
// V3/V4 signed-amount convention (positive = pool receives).
func absAndDirection(v *big.Int) (*big.Int, int8) {
	if v == nil {
		return new(big.Int), -1
	}
	if v.Sign() < 0 {
		return new(big.Int).Neg(v), 1
	}
	return new(big.Int).Set(v), -1
}

// BuildV2Mint mirrors Event::from_v2_mint: both sides flow into the
// pool (direction -1).
func BuildV2Mint(chainID models.ChainID, ev parser.V2Mint, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventMint)
	e.Owner = ev.Sender
	e.Direction0, e.Direction1 = -1, -1
	setRawAmounts(&e, ev.Amount0, ev.Amount1, token0.Decimals, token1.Decimals)
	return e
}

// BuildV2Burn mirrors Event::from_v2_burn: both sides flow out of the
// pool (direction +1).
func BuildV2Burn(chainID models.ChainID, ev parser.V2Burn, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventBurn)
	e.Owner = ev.Sender
	e.Direction0, e.Direction1 = 1, 1
	setRawAmounts(&e, ev.Amount0, ev.Amount1, token0.Decimals, token1.Decimals)
	return e
}

// BuildV3Mint mirrors Event::from_v3_mint: carries the liquidity delta
// (ev.Amount) alongside the tick range.
func BuildV3Mint(chainID models.ChainID, ev parser.V3Mint, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventMint)
	e.Owner = ev.Owner
	e.Direction0, e.Direction1 = -1, -1
	setRawAmounts(&e, ev.Amount0, ev.Amount1, token0.Decimals, token1.Decimals)
	setTickRange(&e, ev.TickLower, ev.TickUpper)
	setLiquidity(&e, ev.Amount)
	return e
}

// BuildV3Burn mirrors Event::from_v3_burn.
func BuildV3Burn(chainID models.ChainID, ev parser.V3Burn, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventBurn)
	e.Owner = ev.Owner
	e.Direction0, e.Direction1 = 1, 1
	setRawAmounts(&e, ev.Amount0, ev.Amount1, token0.Decimals, token1.Decimals)
	setTickRange(&e, ev.TickLower, ev.TickUpper)
	setLiquidity(&e, ev.Amount)
	return e
}

// BuildV3Collect mirrors Event::from_v3_collect: the actual token
// payout following a prior Burn; reserves update here, not on Burn.
func BuildV3Collect(chainID models.ChainID, ev parser.V3Collect, token0, token1 models.Token, poolAddress string) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventCollect)
	e.Owner = ev.Owner
	e.Direction0, e.Direction1 = 1, 1
	setRawAmounts(&e, ev.Amount0, ev.Amount1, token0.Decimals, token1.Decimals)
	setTickRange(&e, ev.TickLower, ev.TickUpper)
	return e
}

// BuildV4ModifyLiquidity mirrors Event::from_v4_modify_liquidity: the
// signed liquidityDelta determines direction, and token amounts are
// back-computed from tick math against the pool's current tick since
// V4 emits no amount fields directly.
func BuildV4ModifyLiquidity(chainID models.ChainID, ev parser.V4ModifyLiquidity, token0, token1 models.Token, poolAddress string, currentTick *int32) models.Event {
	e := eventBase(chainID, ev.BlockNumber, ev.TxHash, ev.LogIndex, poolAddress, ev.BlockTimestamp, token0, token1, models.EventModifyLiquidity)
	e.Owner = ev.Sender

	liqAbs, direction := absAndDirection(ev.LiquidityDelta)
	e.Direction0, e.Direction1 = direction, direction
	setTickRange(&e, ev.TickLower, ev.TickUpper)

	var amount0Adjusted, amount1Adjusted float64
	if currentTick != nil {
		amount0Adjusted, amount1Adjusted = bignum.CalculateMintAmounts(*currentTick, ev.TickLower, ev.TickUpper, liqAbs, token0.Decimals, token1.Decimals)
	}
	e.Amount0Adjusted = amount0Adjusted
	e.Amount1Adjusted = amount1Adjusted
	e.Amount0 = rawFromAdjusted(amount0Adjusted, token0.Decimals)
	e.Amount1 = rawFromAdjusted(amount1Adjusted, token1.Decimals)
	setLiquidity(&e, liqAbs)
	return e
}

// rawFromAdjusted converts an adjusted float back to its raw base-10
// integer string for storage alongside the adjusted value, matching
// the source's format!("{:.0}", ...) round-trip.
func rawFromAdjusted(adjusted float64, decimals uint8) string {
	scaled := new(big.Float).SetPrec(256).SetFloat64(adjusted)
	pow := new(big.Float).SetPrec(256).SetInt(bignum.Pow10(int(decimals)))
	scaled.Mul(scaled, pow)
	raw, _ := scaled.Int(nil)
	if raw == nil || raw.Sign() < 0 {
		return "0"
	}
	return raw.String()
}

func setRawAmounts(e *models.Event, amount0, amount1 *big.Int, decimals0, decimals1 uint8) {
	if amount0 == nil {
		amount0 = new(big.Int)
	}
	if amount1 == nil {
		amount1 = new(big.Int)
	}
	e.Amount0 = amount0.String()
	e.Amount1 = amount1.String()
	e.Amount0Adjusted = bignum.BigIntToFloat(amount0, decimals0)
	e.Amount1Adjusted = bignum.BigIntToFloat(amount1, decimals1)
}

func setTickRange(e *models.Event, lower, upper int32) {
	e.TickLower = &lower
	e.TickUpper = &upper
}

func setLiquidity(e *models.Event, liquidity *big.Int) {
	if liquidity == nil {
		return
	}
	s := liquidity.String()
	e.Liquidity = &s
}
