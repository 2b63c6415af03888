package chainworker

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
	"github.com/luxfi/dexindexer/internal/pool"
	"github.com/luxfi/dexindexer/internal/pricing"
)

// applyParsedLogs walks a batch's decoded logs in two passes, exactly
// as the stream delivered them: first every pool-creation event (so a
// pool minted-and-touched within the same batch exists in state.pools
// before its first state-changing event is applied), then every
// remaining event in original order. Anti-spoofing checks drop a log
// outright rather than letting it corrupt pool state.
func (w *Worker) applyParsedLogs(logs []parser.ParsedLog, state *batchState) (newPools []models.NewPool, supplyEvents []models.SupplyEvent, events []models.Event) {
	for _, pl := range logs {
		switch ev := pl.(type) {
		case parser.V2PairCreated:
			if p, np, ok := w.handleV2PairCreated(ev, state); ok {
				state.pools[p.Address] = p
				newPools = append(newPools, np)
			}
		case parser.V3PoolCreated:
			if p, np, ok := w.handleV3PoolCreated(ev, state); ok {
				state.pools[p.Address] = p
				newPools = append(newPools, np)
			}
		case parser.V4Initialize:
			if p, np, ok := w.handleV4Initialize(ev, state); ok {
				state.pools[p.Address] = p
				newPools = append(newPools, np)
			}
		}
	}

	for _, pl := range logs {
		switch ev := pl.(type) {
		case parser.Transfer:
			if e, ok := w.handleTransfer(ev, state); ok {
				supplyEvents = append(supplyEvents, e)
			}
		case parser.WethDeposit:
			if e, ok := w.handleDeposit(ev, state); ok {
				supplyEvents = append(supplyEvents, e)
			}
		case parser.WethWithdrawal:
			if e, ok := w.handleWithdrawal(ev, state); ok {
				supplyEvents = append(supplyEvents, e)
			}
		case parser.V2Sync:
			w.handleV2Sync(ev, state)
		case parser.V3Initialize:
			w.handleV3Initialize(ev, state)
		case parser.V2Mint:
			if e, ok := w.handleV2Mint(ev, state); ok {
				events = append(events, e)
			}
		case parser.V2Burn:
			if e, ok := w.handleV2Burn(ev, state); ok {
				events = append(events, e)
			}
		case parser.V3Mint:
			if e, ok := w.handleV3Mint(ev, state); ok {
				events = append(events, e)
			}
		case parser.V3Burn:
			if e, ok := w.handleV3Burn(ev, state); ok {
				events = append(events, e)
			}
		case parser.V3Collect:
			if e, ok := w.handleV3Collect(ev, state); ok {
				events = append(events, e)
			}
		case parser.V4ModifyLiquidity:
			if e, ok := w.handleV4ModifyLiquidity(ev, state); ok {
				events = append(events, e)
			}
		case parser.V2Swap:
			if e, ok := w.handleV2Swap(ev, state); ok {
				events = append(events, e)
			}
		case parser.V3Swap:
			if e, ok := w.handleV3Swap(ev, state); ok {
				events = append(events, e)
			}
		case parser.V4Swap:
			if e, ok := w.handleV4Swap(ev, state); ok {
				events = append(events, e)
			}
		}
	}

	return newPools, supplyEvents, events
}

// hexHash lowercases a 32-byte pool-id hash for storage/comparison,
// matching parser's internal convention for V4 addresses.
func hexHash(id [32]byte) string {
	return strings.ToLower(common.Hash(id).Hex())
}

// factoryAllowed reports whether factory may create pools, honoring an
// empty allowlist as "accept from anything" (spec.md default for
// chains that haven't configured one).
func (w *Worker) factoryAllowed(factory string) bool {
	if len(w.chain.Factories) == 0 {
		return true
	}
	for _, f := range w.chain.Factories {
		if strings.EqualFold(f, factory) {
			return true
		}
	}
	return false
}

func (w *Worker) lookupTokenPair(state *batchState, token0, token1 string) (models.Token, models.Token, bool) {
	t0, ok0 := state.tokens[token0]
	t1, ok1 := state.tokens[token1]
	return t0, t1, ok0 && ok1
}

func (w *Worker) handleV2PairCreated(ev parser.V2PairCreated, state *batchState) (models.Pool, models.NewPool, bool) {
	if ev.Pair == zeroAddress || !w.factoryAllowed(ev.LogAddress) {
		return models.Pool{}, models.NewPool{}, false
	}
	token0, token1, ok := w.lookupTokenPair(state, ev.Token0, ev.Token1)
	if !ok {
		return models.Pool{}, models.NewPool{}, false
	}
	p := pool.FromV2PairCreated(w.chain.ChainID, ev.LogAddress, ev, token0, token1, w.chainTokens)
	return p, pool.BuildNewPool(&p, 0), true
}

func (w *Worker) handleV3PoolCreated(ev parser.V3PoolCreated, state *batchState) (models.Pool, models.NewPool, bool) {
	if ev.Pool == zeroAddress || !w.factoryAllowed(ev.LogAddress) {
		return models.Pool{}, models.NewPool{}, false
	}
	token0, token1, ok := w.lookupTokenPair(state, ev.Token0, ev.Token1)
	if !ok {
		return models.Pool{}, models.NewPool{}, false
	}
	p := pool.FromV3PoolCreated(w.chain.ChainID, ev.LogAddress, ev, token0, token1, w.chainTokens)
	return p, pool.BuildNewPool(&p, 0), true
}

func (w *Worker) handleV4Initialize(ev parser.V4Initialize, state *batchState) (models.Pool, models.NewPool, bool) {
	poolID := hexHash(ev.PoolID)
	if poolID == zeroAddress || !w.factoryAllowed(ev.LogAddress) {
		return models.Pool{}, models.NewPool{}, false
	}
	if computed := computeV4PoolID(ev.Currency0, ev.Currency1, ev.Fee, ev.TickSpacing, ev.Hooks); computed != poolID {
		w.log.Warn("v4 pool id mismatch, dropping initialize event", "log_pool_id", poolID, "computed_pool_id", computed)
		return models.Pool{}, models.NewPool{}, false
	}
	token0, token1, ok := w.lookupTokenPair(state, ev.Currency0, ev.Currency1)
	if !ok {
		return models.Pool{}, models.NewPool{}, false
	}
	p := pool.FromV4Initialize(w.chain.ChainID, ev.LogAddress, ev, poolID, token0, token1, w.chainTokens)
	return p, pool.BuildNewPool(&p, 0), true
}

func (w *Worker) handleTransfer(ev parser.Transfer, state *batchState) (models.SupplyEvent, bool) {
	tok, ok := state.tokens[ev.LogAddress]
	if !ok {
		return models.SupplyEvent{}, false
	}
	return pool.BuildSupplyEventFromTransfer(w.chain.ChainID, ev, tok.Decimals), true
}

func (w *Worker) handleDeposit(ev parser.WethDeposit, state *batchState) (models.SupplyEvent, bool) {
	tok, ok := state.tokens[ev.LogAddress]
	if !ok {
		return models.SupplyEvent{}, false
	}
	return pool.BuildSupplyEventFromDeposit(w.chain.ChainID, ev, tok.Decimals), true
}

func (w *Worker) handleWithdrawal(ev parser.WethWithdrawal, state *batchState) (models.SupplyEvent, bool) {
	tok, ok := state.tokens[ev.LogAddress]
	if !ok {
		return models.SupplyEvent{}, false
	}
	return pool.BuildSupplyEventFromWithdrawal(w.chain.ChainID, ev, tok.Decimals), true
}

func (w *Worker) handleV2Sync(ev parser.V2Sync, state *batchState) {
	p, ok := state.pools[ev.LogAddress]
	if !ok {
		return
	}
	pool.ApplyV2Sync(&p, ev, ev.BlockTimestamp)
	state.pools[ev.LogAddress] = p
	w.maybeUpdateNativePrice(&p, state)
}

func (w *Worker) handleV3Initialize(ev parser.V3Initialize, state *batchState) {
	p, ok := state.pools[ev.LogAddress]
	if !ok {
		return
	}
	pool.ApplyV3Initialize(&p, ev, ev.BlockTimestamp)
	state.pools[ev.LogAddress] = p
	w.maybeUpdateNativePrice(&p, state)
}

// maybeUpdateNativePrice refreshes the batch's running native-token
// USD price whenever an event touches the chain's canonical stable
// pool, so the pricing engine constructed at the end of the batch
// sees the freshest possible value.
func (w *Worker) maybeUpdateNativePrice(p *models.Pool, state *batchState) {
	if !w.chainTokens.IsStablePool(p.Address) {
		return
	}
	if price, ok := pricing.NativePriceFromStablePool(p, w.chainTokens.WrappedNativeToken); ok {
		state.nativeTokenPriceUSD = price
	}
}

// v4PoolIDArgs mirrors Uniswap v4's PoolKey ABI encoding:
// keccak256(abi.encode(currency0, currency1, fee, tickSpacing, hooks)).
var v4PoolIDArgs = mustV4PoolIDArgs()

func mustV4PoolIDArgs() abi.Arguments {
	addr, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	u24, err := abi.NewType("uint24", "", nil)
	if err != nil {
		panic(err)
	}
	i24, err := abi.NewType("int24", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Type: addr}, {Type: addr}, {Type: u24}, {Type: i24}, {Type: addr},
	}
}

// computeV4PoolID recomputes a v4 pool id from its PoolKey fields and
// returns it lowercased-hex, for comparison against the id carried on
// the wire — a mismatch means the Initialize log was spoofed or
// corrupted. The two currencies are encoded lower address first, so
// the id does not depend on the order they are passed in.
func computeV4PoolID(currency0, currency1 string, fee uint32, tickSpacing int32, hooks string) string {
	c0, c1 := common.HexToAddress(currency0), common.HexToAddress(currency1)
	if bytes.Compare(c0.Bytes(), c1.Bytes()) > 0 {
		c0, c1 = c1, c0
	}
	packed, err := v4PoolIDArgs.Pack(
		c0,
		c1,
		new(big.Int).SetUint64(uint64(fee&0xffffff)),
		big.NewInt(int64(tickSpacing)),
		common.HexToAddress(hooks),
	)
	if err != nil {
		return ""
	}
	return strings.ToLower(crypto.Keccak256Hash(packed).Hex())
}
