package pricing

import (
	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
)

// PriceLiquidityEvent fills in Event.PriceUSD for a mint/burn/collect/
// modify_liquidity event. Liquidity events never generate volume.
// Grounded on price_resolver.rs's price_liquidity_event.
func (e *Engine) PriceLiquidityEvent(event *models.Event, pool *models.Pool, pools map[string]models.Pool) {
	event.VolumeUSD = 0
	if !e.IsWhitelisted(pool.Token0) && !e.IsWhitelisted(pool.Token1) {
		event.PriceUSD = 0
		return
	}
	event.PriceUSD = e.deriveBaseTokenUSD(pool, pools)
}

// PriceEvent dispatches to the swap or liquidity pricing path by
// event type.
func (e *Engine) PriceEvent(event *models.Event, pool *models.Pool, pools map[string]models.Pool) {
	switch event.EventType {
	case models.EventSwap:
		e.PriceSwapEvent(event, pool, pools)
	case models.EventMint, models.EventBurn, models.EventCollect, models.EventModifyLiquidity:
		e.PriceLiquidityEvent(event, pool, pools)
	}
}

// deriveBaseTokenUSD prices the pool's base token off its own
// exchange rate against a whitelisted quote token.
func (e *Engine) deriveBaseTokenUSD(pool *models.Pool, pools map[string]models.Pool) float64 {
	quoteTokenUSD := e.quoteTokenUSD(pool, pools)
	if quoteTokenUSD <= 0 {
		return 0
	}

	var rate *float64
	if pool.BaseToken == pool.Token0 {
		rate = pool.Token1Price
	} else {
		rate = pool.Token0Price
	}
	if rate == nil || !bignum.ValidatePriceRatio(*rate) {
		return 0
	}

	raw := *rate * quoteTokenUSD
	return relativeOrZero(boundedOrZero(raw), e.nativePriceUSD)
}
