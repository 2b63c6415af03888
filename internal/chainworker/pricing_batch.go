package chainworker

import (
	"time"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/pricing"
)

// priceBatch runs the pricing engine over every event and pool touched
// in this batch. The engine is constructed here, after every event has
// been applied, so it starts from the freshest native-token price the
// batch observed rather than a stale one read at the top.
//
// Pool pricing runs in two passes over the same map: the first pass
// only reads (PoolPricing doesn't mutate its argument) and computes
// every pool's new price/TVL, the second pass writes those results
// back. Doing it in one pass would mean later pools price against
// partially-updated earlier pools in the same map, which PoolPricing's
// multi-hop token derivation isn't meant to tolerate mid-batch.
func (w *Worker) priceBatch(events []models.Event, newPools []models.NewPool, state *batchState) {
	engine := pricing.NewEngine(w.chainTokens, state.nativeTokenPriceUSD, pricingCacheBytes)

	for i := range events {
		p, ok := state.pools[events[i].PoolAddress]
		if !ok {
			continue
		}
		if events[i].EventType == models.EventSwap {
			engine.PriceSwapEvent(&events[i], &p, state.pools)
		} else {
			engine.PriceEvent(&events[i], &p, state.pools)
		}
	}

	type priced struct {
		priceUSD *float64
		tvlUSD   *float64
	}
	results := make(map[string]priced, len(state.pools))
	for addr, p := range state.pools {
		priceUSD, tvlUSD := engine.PoolPricing(&p, state.pools)
		results[addr] = priced{priceUSD: priceUSD, tvlUSD: tvlUSD}
	}
	for addr, r := range results {
		p := state.pools[addr]
		p.PriceUSD = r.priceUSD
		p.TVLUSD = r.tvlUSD
		state.pools[addr] = p
	}

	for i := range newPools {
		if p, ok := state.pools[newPools[i].PoolAddress]; ok && p.TVLUSD != nil {
			newPools[i].InitialTVLUSD = *p.TVLUSD
		}
	}

	now := time.Now().UTC()
	for addr, tok := range state.tokens {
		priceUSD, ok := engine.TokenPriceRollup(addr, state.pools)
		if !ok {
			continue
		}
		price := priceUSD
		tok.PriceUSD = &price
		tok.PriceUpdatedAt = &now
		state.tokens[addr] = tok
	}
}
