// Package pricing resolves token/pool/event USD prices from on-chain
// exchange rates — the Pricing Engine (spec.md §4.E). Grounded on
// original_source/src/worker/price_resolver.rs's PriceResolver.
package pricing

import (
	"math"
	"strings"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/classify"
	"github.com/luxfi/dexindexer/internal/models"
)

// maxTokenPriceHops bounds the token-USD path search: a major token
// gets one additional hop beyond the direct-pool lookup.
const maxTokenPriceHops = 1

// Engine resolves USD prices for one chain's batch. It is re-created
// per batch so its memoization cache never outlives the snapshot of
// pool state it was built against.
type Engine struct {
	tokens         *classify.ChainTokens
	nativePriceUSD float64
	cache          *fastcache.Cache
}

// NewEngine builds a pricing Engine scoped to a single batch. cacheBytes
// sizes the per-batch token-price memoization cache; a few hundred
// kilobytes easily covers a batch's distinct token set.
func NewEngine(tokens *classify.ChainTokens, nativePriceUSD float64, cacheBytes int) *Engine {
	if cacheBytes <= 0 {
		cacheBytes = 256 * 1024
	}
	return &Engine{
		tokens:         tokens,
		nativePriceUSD: nativePriceUSD,
		cache:          fastcache.New(cacheBytes),
	}
}

func (e *Engine) cacheGet(token string) (float64, bool) {
	raw, ok := e.cache.HasGet(nil, []byte(token))
	if !ok || len(raw) != 8 {
		return 0, false
	}
	return bytesToFloat64(raw), true
}

func (e *Engine) cacheSet(token string, price float64) {
	e.cache.Set([]byte(token), float64ToBytes(price))
}

// IsWhitelisted reports whether token can anchor USD pricing.
func (e *Engine) IsWhitelisted(token string) bool {
	return e.tokens.IsWhitelisted(token)
}

// TokenPriceUSD resolves a token's USD price: cache, then stablecoin,
// then wrapped-native, then a ≤2-hop pool-graph walk for major/generic
// tokens (spec.md §4.E "Token USD price resolution").
func (e *Engine) TokenPriceUSD(token string, pools map[string]models.Pool) float64 {
	lower := strings.ToLower(token)
	if price, ok := e.cacheGet(lower); ok {
		return price
	}
	if e.tokens.IsStable(lower) {
		e.cacheSet(lower, 1.0)
		return 1.0
	}
	if e.tokens.IsWrappedNative(lower) {
		e.cacheSet(lower, e.nativePriceUSD)
		return e.nativePriceUSD
	}
	price := e.deriveTokenPrice(lower, pools, 0)
	e.cacheSet(lower, price)
	return price
}

// deriveTokenPrice walks the pool graph looking for a whitelisted
// paired side, weighting each candidate by the paired side's USD
// liquidity value and keeping the highest-weight candidate.
func (e *Engine) deriveTokenPrice(token string, pools map[string]models.Pool, depth int) float64 {
	if depth > maxTokenPriceHops {
		return 0
	}

	bestPrice := 0.0
	maxWeight := 0.0

	for _, pool := range pools {
		var pairedToken string
		var priceInPaired *float64
		var tokenIsToken0 bool

		switch {
		case strings.EqualFold(pool.Token0, token):
			pairedToken, priceInPaired, tokenIsToken0 = pool.Token1, pool.Token1Price, true
		case strings.EqualFold(pool.Token1, token):
			pairedToken, priceInPaired, tokenIsToken0 = pool.Token0, pool.Token0Price, false
		default:
			continue
		}

		if priceInPaired == nil || !bignum.ValidatePriceRatio(*priceInPaired) {
			continue
		}

		pairedPriceUSD := e.pairedPriceUSD(pairedToken, pools, depth)
		if pairedPriceUSD <= 0 {
			continue
		}

		tokenUSD := *priceInPaired * pairedPriceUSD
		bounded := boundedOrZero(tokenUSD)
		validated := relativeOrZero(bounded, e.nativePriceUSD)
		if validated <= 0 {
			continue
		}

		weight := pairedBalanceAdjusted(&pool, tokenIsToken0) * pairedPriceUSD
		if weight > maxWeight && weight > bignum.MinPoolNativeLiquidityUSD {
			maxWeight = weight
			bestPrice = validated
		}
	}

	return bestPrice
}

// pairedPriceUSD resolves the paired side's USD price, only for
// whitelisted tokens; major tokens get one more recursive hop.
func (e *Engine) pairedPriceUSD(paired string, pools map[string]models.Pool, depth int) float64 {
	switch {
	case e.tokens.IsStable(paired):
		return 1.0
	case e.tokens.IsWrappedNative(paired):
		return e.nativePriceUSD
	case e.tokens.IsMajorToken(paired) && depth == 0:
		return e.deriveTokenPrice(strings.ToLower(paired), pools, depth+1)
	default:
		return 0
	}
}

// pairedBalanceAdjusted returns the paired side's adjusted balance,
// preferring V3/V4 virtual reserves over raw reserve fields when both
// sqrtPriceX96 and liquidity are present.
func pairedBalanceAdjusted(pool *models.Pool, tokenIsToken0 bool) float64 {
	if pool.Liquidity != "" && pool.Liquidity != "0" && pool.SqrtPriceX96 != nil {
		r0, r1 := bignum.VirtualReserves(bignum.ParseBigInt(pool.Liquidity), bignum.ParseBigInt(*pool.SqrtPriceX96), pool.Token0Decimals, pool.Token1Decimals)
		if tokenIsToken0 {
			return r1
		}
		return r0
	}
	if tokenIsToken0 {
		return pool.Reserve1Adjusted
	}
	return pool.Reserve0Adjusted
}

func boundedOrZero(v float64) float64 {
	if bignum.ValidateUSDPrice(v) {
		return v
	}
	return 0
}

func relativeOrZero(usdPrice, nativePriceUSD float64) float64 {
	if usdPrice <= 0 {
		return 0
	}
	if !bignum.ValidateUSDPriceRelativeToNative(usdPrice, nativePriceUSD) {
		return 0
	}
	return usdPrice
}

// quoteTokenUSD resolves a pool's quote-token USD price, restricted to
// whitelisted tokens (stable/native direct, major via the graph walk;
// generic quote tokens cannot reliably price the pool).
func (e *Engine) quoteTokenUSD(pool *models.Pool, pools map[string]models.Pool) float64 {
	switch {
	case e.tokens.IsStable(pool.QuoteToken):
		return 1.0
	case e.tokens.IsWrappedNative(pool.QuoteToken):
		return e.nativePriceUSD
	case e.tokens.IsMajorToken(pool.QuoteToken):
		return e.TokenPriceUSD(pool.QuoteToken, pools)
	default:
		return 0
	}
}

func float64ToBytes(f float64) []byte {
	bits := math.Float64bits(f)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return b
}

func bytesToFloat64(b []byte) float64 {
	var bits uint64
	for i := 0; i < 8 && i < len(b); i++ {
		bits |= uint64(b[i]) << (8 * i)
	}
	return math.Float64frombits(bits)
}
