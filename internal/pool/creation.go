// Package pool builds Pool state from creation events and applies
// decoded pool events to it in stream order — the Event→State
// Applicator (spec.md §4.D). Grounded on
// original_source/src/db/models/pool.rs's Pool::from_v2_pool_created /
// from_v3_pool_created / from_v4_pool_created and update_from_event.
package pool

import (
	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/classify"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

// v2StandardFeePPM is the fixed 0.3% fee every V2 pair charges.
const v2StandardFeePPM = 3000

// quoteTokenFor computes the base/quote split and priority tier for a
// token pair under the chain's classifier.
func quoteTokenFor(tokens *classify.ChainTokens, token0, token1 string) (base, quote string, isInverted bool, priority models.QuoteTokenPriority) {
	p0 := tokenPriority(tokens, token0)
	p1 := tokenPriority(tokens, token1)
	base, quote, isInverted = models.DetectQuoteToken(token0, token1, p0, p1)
	if isInverted {
		priority = p0
	} else {
		priority = p1
	}
	return
}

func tokenPriority(tokens *classify.ChainTokens, addr string) models.QuoteTokenPriority {
	return models.GetTokenPriority(addr, tokens.IsStable(addr), tokens.IsWrappedNative(addr), tokens.IsMajorToken(addr))
}

// FromV2PairCreated builds the initial Pool state for a newly observed
// V2 pair.
func FromV2PairCreated(chainID models.ChainID, factory string, ev parser.V2PairCreated, token0, token1 models.Token, tokens *classify.ChainTokens) models.Pool {
	base, quote, inverted, priority := quoteTokenFor(tokens, token0.Address, token1.Address)
	return models.Pool{
		ChainID:            chainID,
		Address:            ev.Pair,
		Token0:             token0.Address,
		Token1:             token1.Address,
		Token0Symbol:       token0.Symbol,
		Token1Symbol:       token1.Symbol,
		Token0Decimals:     token0.Decimals,
		Token1Decimals:     token1.Decimals,
		Fee:                v2StandardFeePPM,
		InitialFee:         v2StandardFeePPM,
		ProtocolVersion:    models.ProtocolV2,
		Factory:            factory,
		BaseToken:          base,
		QuoteToken:         quote,
		IsInverted:         inverted,
		QuoteTokenPriority: priority,
		BlockNumber:        ev.BlockNumber,
		TxHash:             ev.TxHash,
		CreatedAt:          unixToTime(ev.BlockTimestamp),
		Liquidity:          "0",
	}
}

// FromV3PoolCreated builds the initial Pool state for a newly observed
// V3 pool. Reserve/liquidity tracking starts at zero since V3 has no
// Sync event; balances accumulate from subsequent swap/mint/collect
// deltas.
func FromV3PoolCreated(chainID models.ChainID, factory string, ev parser.V3PoolCreated, token0, token1 models.Token, tokens *classify.ChainTokens) models.Pool {
	base, quote, inverted, priority := quoteTokenFor(tokens, token0.Address, token1.Address)
	tickSpacing := ev.TickSpacing
	return models.Pool{
		ChainID:            chainID,
		Address:            ev.Pool,
		Token0:             token0.Address,
		Token1:             token1.Address,
		Token0Symbol:       token0.Symbol,
		Token1Symbol:       token1.Symbol,
		Token0Decimals:     token0.Decimals,
		Token1Decimals:     token1.Decimals,
		Fee:                ev.Fee,
		InitialFee:         ev.Fee,
		ProtocolVersion:    models.ProtocolV3,
		Factory:            factory,
		BaseToken:          base,
		QuoteToken:         quote,
		IsInverted:         inverted,
		QuoteTokenPriority: priority,
		BlockNumber:        ev.BlockNumber,
		TxHash:             ev.TxHash,
		CreatedAt:          unixToTime(ev.BlockTimestamp),
		Reserve0Adjusted:   0,
		Reserve1Adjusted:   0,
		Liquidity:          "0",
		TickSpacing:        &tickSpacing,
	}
}

// FromV4Initialize builds the initial Pool state for a newly observed
// V4 pool, also deriving its opening price from sqrtPriceX96 since V4
// has no separate Sync/Initialize split — pool creation and price
// initialization happen in the same event.
func FromV4Initialize(chainID models.ChainID, factory string, ev parser.V4Initialize, poolID string, token0, token1 models.Token, tokens *classify.ChainTokens) models.Pool {
	base, quote, inverted, priority := quoteTokenFor(tokens, token0.Address, token1.Address)
	tickSpacing := ev.TickSpacing
	tick := ev.Tick

	p := models.Pool{
		ChainID:            chainID,
		Address:            poolID,
		Token0:             token0.Address,
		Token1:             token1.Address,
		Token0Symbol:       token0.Symbol,
		Token1Symbol:       token1.Symbol,
		Token0Decimals:     token0.Decimals,
		Token1Decimals:     token1.Decimals,
		Fee:                ev.Fee,
		InitialFee:         ev.Fee,
		ProtocolVersion:    models.ProtocolV4,
		Factory:            factory,
		HookAddress:        ev.Hooks,
		BaseToken:          base,
		QuoteToken:         quote,
		IsInverted:         inverted,
		QuoteTokenPriority: priority,
		BlockNumber:        ev.BlockNumber,
		TxHash:             ev.TxHash,
		CreatedAt:          unixToTime(ev.BlockTimestamp),
		Reserve0Adjusted:   0,
		Reserve1Adjusted:   0,
		Liquidity:          "0",
		TickSpacing:        &tickSpacing,
		Tick:               &tick,
	}

	if ev.SqrtPriceX96 != nil && ev.SqrtPriceX96.Sign() > 0 {
		sqrtStr := ev.SqrtPriceX96.String()
		p.SqrtPriceX96 = &sqrtStr
		adjusted := bignum.SqrtPriceX96ToAdjustedPrice(ev.SqrtPriceX96, token0.Decimals, token1.Decimals)
		if adjusted > 0 {
			p.Price = &adjusted
			p.Token1Price = &adjusted
			if inverse := 1.0 / adjusted; bignum.ValidatePriceRatio(inverse) {
				p.Token0Price = &inverse
			}
		}
	}

	return p
}
