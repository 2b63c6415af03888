// Package models holds the persistent and in-memory data shapes shared
// across the indexer: chain configuration, tokens, pools, events and
// the small set of append-only records pushed to the columnar store.
package models

import (
	"strings"
	"time"
)

// ChainID identifies a chain by its on-chain chain id.
type ChainID = uint64

// ChainConfig is one row of the chain configuration table: connection
// details plus the token-classification data used for pricing.
type ChainConfig struct {
	ChainID             ChainID
	Name                string
	StreamURL           string
	RPCURL              string
	Enabled             bool
	NativeTokenAddress  string
	NativeTokenDecimals uint8
	NativeTokenName     string
	NativeTokenSymbol   string
	StableTokenAddress  string
	StableTokenDecimals uint8
	StablePoolAddress   string
	MajorTokens         []string
	Stablecoins         []string
	Factories           []string
	UpdatedAt           *time.Time
}

// Normalize lowercases every address field in place, matching the
// store's "addresses stored lowercased end-to-end" invariant.
func (c *ChainConfig) Normalize() {
	c.NativeTokenAddress = strings.ToLower(c.NativeTokenAddress)
	c.StableTokenAddress = strings.ToLower(c.StableTokenAddress)
	c.StablePoolAddress = strings.ToLower(c.StablePoolAddress)
	for i, a := range c.MajorTokens {
		c.MajorTokens[i] = strings.ToLower(a)
	}
	for i, a := range c.Stablecoins {
		c.Stablecoins[i] = strings.ToLower(a)
	}
	for i, a := range c.Factories {
		c.Factories[i] = strings.ToLower(a)
	}
}

// Equal reports whether two configs carry identical indexing-relevant
// fields. Used by the fleet manager to detect a config change that
// should trigger a worker restart.
func (c *ChainConfig) Equal(other *ChainConfig) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.ChainID != other.ChainID || c.Name != other.Name || c.StreamURL != other.StreamURL ||
		c.RPCURL != other.RPCURL || c.Enabled != other.Enabled ||
		c.NativeTokenAddress != other.NativeTokenAddress ||
		c.NativeTokenDecimals != other.NativeTokenDecimals ||
		c.StableTokenAddress != other.StableTokenAddress ||
		c.StablePoolAddress != other.StablePoolAddress {
		return false
	}
	if !stringSliceEqual(c.MajorTokens, other.MajorTokens) {
		return false
	}
	if !stringSliceEqual(c.Stablecoins, other.Stablecoins) {
		return false
	}
	return stringSliceEqual(c.Factories, other.Factories)
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
