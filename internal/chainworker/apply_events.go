package chainworker

import (
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
	"github.com/luxfi/dexindexer/internal/pool"
)

// tokensForPool resolves the full Token records for a pool's two
// sides, preferring the batch's resolved token set and falling back
// to the pool's own denormalized symbol/decimals if resolution somehow
// missed an address that was already known to the pool store.
func (w *Worker) tokensForPool(p *models.Pool, state *batchState) (models.Token, models.Token) {
	t0, ok0 := state.tokens[p.Token0]
	if !ok0 {
		t0 = models.NewToken(w.chain.ChainID, p.Token0, p.Token0Symbol, p.Token0Symbol, p.Token0Decimals)
	}
	t1, ok1 := state.tokens[p.Token1]
	if !ok1 {
		t1 = models.NewToken(w.chain.ChainID, p.Token1, p.Token1Symbol, p.Token1Symbol, p.Token1Decimals)
	}
	return t0, t1
}

// v3v4Spoofed reports whether a V3/V4 event must be dropped because
// its pool hasn't yet seen an Initialize event — a swap or liquidity
// change referencing an uninitialized pool is either spoofed or a
// consequence of missing an earlier batch.
func v3v4Spoofed(p *models.Pool) bool {
	return pool.RequiresInitializedSqrtPrice(p)
}

func (w *Worker) handleV2Mint(ev parser.V2Mint, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV2Mint(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV2Burn(ev parser.V2Burn, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV2Burn(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV3Mint(ev parser.V3Mint, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV3Mint(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV3Burn(ev parser.V3Burn, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV3Burn(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV3Collect(ev parser.V3Collect, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV3Collect(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV4ModifyLiquidity(ev parser.V4ModifyLiquidity, state *batchState) (models.Event, bool) {
	address := hexHash(ev.PoolID)
	p, ok := state.pools[address]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV4ModifyLiquidity(w.chain.ChainID, ev, t0, t1, p.Address, p.Tick)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV2Swap(ev parser.V2Swap, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV2Swap(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	return e, true
}

func (w *Worker) handleV3Swap(ev parser.V3Swap, state *batchState) (models.Event, bool) {
	p, ok := state.pools[ev.LogAddress]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV3Swap(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	w.maybeUpdateNativePrice(&p, state)
	return e, true
}

func (w *Worker) handleV4Swap(ev parser.V4Swap, state *batchState) (models.Event, bool) {
	address := hexHash(ev.PoolID)
	p, ok := state.pools[address]
	if !ok || v3v4Spoofed(&p) {
		return models.Event{}, false
	}
	t0, t1 := w.tokensForPool(&p, state)
	e := pool.BuildV4Swap(w.chain.ChainID, ev, t0, t1, p.Address)
	pool.ApplyEvent(&p, &e)
	state.pools[p.Address] = p
	w.maybeUpdateNativePrice(&p, state)
	return e, true
}
