package pool

import (
	"math/big"
	"time"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

// RequiresInitializedSqrtPrice reports whether a V3/V4 swap against p
// must be dropped as an anti-spoofing guard: a swap arriving before
// any Initialize event for its pool. V2 pools have no sqrtPriceX96
// concept and are never gated here.
func RequiresInitializedSqrtPrice(p *models.Pool) bool {
	return p.ProtocolVersion != models.ProtocolV2 && p.SqrtPriceX96 == nil
}

// reservesUpdate reports whether an event's amounts move the V3/V4
// delta-accumulated virtual reserves. Burn is excluded — its payout
// is accounted for by the paired Collect event.
func reservesUpdate(t models.EventType) bool {
	switch t {
	case models.EventSwap, models.EventMint, models.EventCollect, models.EventModifyLiquidity:
		return true
	default:
		return false
	}
}

// liquidityAdds reports whether an event's liquidity delta should be
// added (true) or subtracted (false) from the pool's running
// liquidity. Mint always adds, burn always subtracts; ModifyLiquidity
// goes either way depending on the sign already captured in the
// event's direction (−1 = adding).
func liquidityAdds(e *models.Event) bool {
	switch e.EventType {
	case models.EventModifyLiquidity:
		return e.Direction0 == -1
	default:
		return e.EventType == models.EventMint
	}
}

// ApplyEvent applies one decoded pool event to p in place, mirroring
// the per-event-type reserve/tick/liquidity rules of spec.md §4.D.
// Stale events (event.BlockNumber < p.BlockNumber) are ignored so
// out-of-order replays cannot regress state.
func ApplyEvent(p *models.Pool, event *models.Event) {
	if event.BlockNumber < p.BlockNumber {
		return
	}
	p.BlockNumber = event.BlockNumber
	updatedAt := event.Timestamp
	p.UpdatedAt = &updatedAt
	p.TxHash = event.TxHash

	if event.EventType == models.EventSwap {
		p.TotalSwaps++
		p.LastSwapAt = &updatedAt
	}

	if p.ProtocolVersion != models.ProtocolV2 {
		applyPriceFromEvent(p, event)
		if reservesUpdate(event.EventType) {
			delta0 := event.Amount0Adjusted * float64(-event.Direction0)
			delta1 := event.Amount1Adjusted * float64(-event.Direction1)
			p.Reserve0Adjusted = maxFloat(p.Reserve0Adjusted+delta0, 0)
			p.Reserve1Adjusted = maxFloat(p.Reserve1Adjusted+delta1, 0)
		}
	}

	if event.Tick != nil {
		tick := *event.Tick
		p.Tick = &tick
	}
	if event.SqrtPriceX96 != nil {
		sqrtStr := *event.SqrtPriceX96
		p.SqrtPriceX96 = &sqrtStr
	}

	applyLiquidity(p, event)
}

func applyPriceFromEvent(p *models.Pool, event *models.Event) {
	if event.Price == nil || !bignum.ValidatePriceRatio(*event.Price) {
		return
	}
	price := *event.Price
	p.Price = &price
	p.Token1Price = &price
	if inverse := 1.0 / price; bignum.ValidatePriceRatio(inverse) {
		p.Token0Price = &inverse
	}
}

func applyLiquidity(p *models.Pool, event *models.Event) {
	if event.Liquidity == nil {
		return
	}
	switch event.EventType {
	case models.EventSwap:
		p.Liquidity = *event.Liquidity
	case models.EventMint, models.EventBurn, models.EventModifyLiquidity:
		delta := bignum.ParseBigInt(*event.Liquidity)
		if !liquidityAdds(event) {
			delta = bignum.Neg(delta)
		}
		p.Liquidity = bignum.AddDelta(p.Liquidity, delta)
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func unixToTime(sec uint64) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

// ApplyV2Sync recomputes a V2 pool's reserves and price from a Sync
// event — the sole source of truth for V2 balances; swaps/mints/burns
// never touch reserves directly.
func ApplyV2Sync(p *models.Pool, ev parser.V2Sync, blockTimestamp uint64) {
	if ev.BlockNumber < p.BlockNumber {
		return
	}
	p.BlockNumber = ev.BlockNumber
	updatedAt := unixToTime(blockTimestamp)
	p.UpdatedAt = &updatedAt
	p.TxHash = ev.TxHash

	reserve0 := ev.Reserve0
	reserve1 := ev.Reserve1
	if reserve0 == nil {
		reserve0 = new(big.Int)
	}
	if reserve1 == nil {
		reserve1 = new(big.Int)
	}
	p.Reserve0 = reserve0.String()
	p.Reserve1 = reserve1.String()

	r0Adjusted := bignum.BigIntToFloat(reserve0, p.Token0Decimals)
	r1Adjusted := bignum.BigIntToFloat(reserve1, p.Token1Decimals)
	p.Reserve0Adjusted = r0Adjusted
	p.Reserve1Adjusted = r1Adjusted

	if r0Adjusted > 0 && r1Adjusted > 0 {
		price := r1Adjusted / r0Adjusted
		if bignum.ValidatePriceRatio(price) {
			p.Price = &price
			p.Token1Price = &price
			if inverse := r0Adjusted / r1Adjusted; bignum.ValidatePriceRatio(inverse) {
				p.Token0Price = &inverse
			}
		}
	}
}

// ApplyV3Initialize sets a V3 pool's opening sqrtPriceX96/tick and
// derives its initial price.
func ApplyV3Initialize(p *models.Pool, ev parser.V3Initialize, blockTimestamp uint64) {
	if ev.BlockNumber < p.BlockNumber {
		return
	}
	p.BlockNumber = ev.BlockNumber
	updatedAt := unixToTime(blockTimestamp)
	p.UpdatedAt = &updatedAt
	p.TxHash = ev.TxHash

	sqrtStr := ev.SqrtPriceX96.String()
	p.SqrtPriceX96 = &sqrtStr
	tick := ev.Tick
	p.Tick = &tick

	adjusted := bignum.SqrtPriceX96ToAdjustedPrice(ev.SqrtPriceX96, p.Token0Decimals, p.Token1Decimals)
	if adjusted > 0 {
		p.Price = &adjusted
		p.Token1Price = &adjusted
		if inverse := 1.0 / adjusted; bignum.ValidatePriceRatio(inverse) {
			p.Token0Price = &inverse
		}
	}
}

// ApplyV4Fee updates a V4 pool's dynamic fee, reported on every Swap
// event for pools whose hook contract adjusts fees per-trade.
func ApplyV4Fee(p *models.Pool, feePPM uint32) {
	p.Fee = feePPM
}
