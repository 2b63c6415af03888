package models

import (
	"strings"
	"time"
)

// ProtocolVersion identifies which AMM generation a pool belongs to.
type ProtocolVersion string

const (
	ProtocolV2 ProtocolVersion = "v2"
	ProtocolV3 ProtocolVersion = "v3"
	ProtocolV4 ProtocolVersion = "v4"
)

// QuoteTokenPriority ranks a token's suitability as the pricing
// reference side of a pool. Higher wins.
type QuoteTokenPriority int

const (
	PriorityGeneric       QuoteTokenPriority = 10
	PriorityMajorToken    QuoteTokenPriority = 50
	PriorityWrappedNative QuoteTokenPriority = 80
	PriorityStablecoin    QuoteTokenPriority = 100
)

// Pool is the mutable per-pair state the applicator and pricing engine
// operate on. Address is the pair/contract address for V2/V3 and the
// 32-byte pool-id hash (hex) for V4.
type Pool struct {
	ChainID ChainID
	Address string

	// Immutable once created — never overwritten on upsert.
	Token0             string
	Token1             string
	Token0Decimals     uint8
	Token1Decimals     uint8
	Token0Symbol       string
	Token1Symbol       string
	BaseToken          string
	QuoteToken          string
	IsInverted         bool
	QuoteTokenPriority QuoteTokenPriority
	ProtocolVersion    ProtocolVersion
	Factory            string
	InitialFee         uint32
	HookAddress        string
	CreatedAt          time.Time
	BlockNumber        uint64

	// Mutable.
	Fee             uint32
	TxHash          string // tx hash of the most recent event applied
	Reserve0        string // raw base-10 integer string
	Reserve1        string
	Reserve0Adjusted float64
	Reserve1Adjusted float64
	SqrtPriceX96    *string // raw base-10 integer string
	Tick            *int32
	TickSpacing     *int32
	Liquidity       string // raw base-10 integer string, delta-accumulated

	Price       *float64 // token1/token0
	Token0Price *float64 // token0 per token1 = 1/price
	Token1Price *float64 // token1 per token0 = price
	PriceUSD    *float64 // base-token USD price

	TVLUSD       *float64
	TotalSwaps   uint64
	TotalVolume  *float64
	LastSwapAt   *time.Time
	UpdatedAt    *time.Time

	// Rolling-window fields, written only by the cron scheduler's
	// update_24h_stats and update_price_changes jobs from ClickHouse
	// aggregates — never touched by the per-batch applicator, which
	// loads and writes these back unchanged on every upsert.
	Volume24h      *float64
	Swaps24h       *uint64
	PriceChange24h *float64
	PriceChange7d  *float64
}

// NormalizeAddresses lowercases every address field. Called at every
// ingress boundary (parser output, store load/upsert).
func (p *Pool) NormalizeAddresses() {
	p.Address = strings.ToLower(p.Address)
	p.Token0 = strings.ToLower(p.Token0)
	p.Token1 = strings.ToLower(p.Token1)
	p.BaseToken = strings.ToLower(p.BaseToken)
	p.QuoteToken = strings.ToLower(p.QuoteToken)
	p.Factory = strings.ToLower(p.Factory)
	p.HookAddress = strings.ToLower(p.HookAddress)
}

// GetTokenPriority returns the quote-token priority tier for an
// address under the chain's token classification (spec.md §4.E).
func GetTokenPriority(addr string, isStable, isWrappedNative, isMajor bool) QuoteTokenPriority {
	switch {
	case isStable:
		return PriorityStablecoin
	case isWrappedNative:
		return PriorityWrappedNative
	case isMajor:
		return PriorityMajorToken
	default:
		return PriorityGeneric
	}
}

// DetectQuoteToken decides, for a pool with token0/token1, which side
// is base and which is quote, and whether the pair is inverted versus
// the V2/V3 token0=base/token1=quote convention.
//
// Ties resolve by address ordering: callers are expected to pass
// token0 as the lower address (the V2/V3 sorting convention), so no
// explicit tie-break beyond priority(token0) > priority(token1) is
// needed here — equal priorities keep token0 as base.
func DetectQuoteToken(token0, token1 string, p0, p1 QuoteTokenPriority) (base, quote string, isInverted bool) {
	if p0 > p1 {
		return token1, token0, true
	}
	return token0, token1, false
}
