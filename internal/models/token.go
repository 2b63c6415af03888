package models

import (
	"strings"
	"time"
)

// Token is the metadata and current market state of an ERC-20 token on
// one chain. Primary key is (ChainID, Address). Symbol/Name/Decimals
// are immutable once first observed; everything else is mutable.
type Token struct {
	ChainID ChainID
	Address string

	Symbol   string
	Name     string
	Decimals uint8

	PriceUSD      *float64
	PriceUpdatedAt *time.Time

	PriceChange24h *float64
	PriceChange7d  *float64

	LogoURL    *string
	BannerURL  *string
	Website    *string
	Twitter    *string
	Telegram   *string
	Discord    *string

	Volume24h *float64
	Swaps24h  *uint64

	TotalSwaps     *uint64
	TotalVolumeUSD *float64
	PoolCount      *uint64

	CirculatingSupply *float64
	MarketCapUSD      *float64

	FirstSeenBlock *uint64
	LastActivityAt *time.Time
	UpdatedAt      *time.Time
}

// MaxTokenDecimals is the upper bound past which a token is rejected
// (spec.md §3: "reject if >24").
const MaxTokenDecimals = 24

// NewToken builds a Token carrying only on-chain metadata, the shape
// used by the token fetcher before any price state exists.
func NewToken(chainID ChainID, address, symbol, name string, decimals uint8) Token {
	return Token{
		ChainID:  chainID,
		Address:  strings.ToLower(address),
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
}
