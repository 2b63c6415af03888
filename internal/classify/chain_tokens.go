// Package classify holds the per-chain token classification used by
// the parser and pricing engine to decide which tokens are
// stablecoins, the wrapped-native asset, or "major" reference tokens.
package classify

import "strings"

// ChainTokens is the synchronous, read-only classifier built once per
// chain worker from its ChainConfig. Grounded in
// original_source/src/db/models/chain.rs's ChainTokens.
type ChainTokens struct {
	WrappedNativeToken string
	StableToken        string
	MajorTokens        []string
	Stablecoins        []string
	StablePoolAddress  string
}

// New builds a ChainTokens classifier from already-lowercased fields.
func New(wrappedNative, stableToken string, majorTokens, stablecoins []string, stablePool string) *ChainTokens {
	return &ChainTokens{
		WrappedNativeToken: wrappedNative,
		StableToken:        stableToken,
		MajorTokens:        majorTokens,
		Stablecoins:        stablecoins,
		StablePoolAddress:  stablePool,
	}
}

// IsWrappedNative reports whether token is this chain's wrapped-native
// asset.
func (c *ChainTokens) IsWrappedNative(token string) bool {
	return strings.EqualFold(c.WrappedNativeToken, token)
}

// IsStable reports whether token is classified as a stablecoin. The
// wrapped-native token is NEVER a stablecoin, even if misconfigured
// into the stablecoins list — this is a hard override against
// configuration mistakes (spec.md §9 / §8 boundary behavior).
func (c *ChainTokens) IsStable(token string) bool {
	lower := strings.ToLower(token)
	if c.IsWrappedNative(lower) {
		return false
	}
	if strings.EqualFold(c.StableToken, lower) {
		return true
	}
	for _, s := range c.Stablecoins {
		if strings.EqualFold(s, lower) {
			return true
		}
	}
	return false
}

// IsMajorToken reports whether token is in the chain's major-tokens
// allow-list.
func (c *ChainTokens) IsMajorToken(token string) bool {
	lower := strings.ToLower(token)
	for _, m := range c.MajorTokens {
		if strings.EqualFold(m, lower) {
			return true
		}
	}
	return false
}

// IsStablePool reports whether address is the chain's canonical
// native/stablecoin pool.
func (c *ChainTokens) IsStablePool(address string) bool {
	return strings.EqualFold(c.StablePoolAddress, address)
}

// IsWhitelisted reports whether a token can anchor USD pricing:
// stablecoin ∪ {wrapped-native} ∪ major-tokens.
func (c *ChainTokens) IsWhitelisted(token string) bool {
	return c.IsStable(token) || c.IsWrappedNative(token) || c.IsMajorToken(token)
}
