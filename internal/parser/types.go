// Package parser decodes raw chain logs into typed, ordered events for
// the applicator and pricing engine. Decoding is keyed on topics[0];
// every variant carries just the fields its downstream consumer needs.
package parser

import (
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
)

// ParsedLog is the tagged union of every decodable event shape. Callers
// type-switch on the concrete type; Kind is provided for quick
// branching without importing every variant.
type ParsedLog interface {
	Kind() string
}

// logMeta holds the fields common to most variants.
type logMeta struct {
	LogAddress     string
	BlockNumber    uint64
	LogIndex       uint32
	TxHash         string
	BlockTimestamp uint64
}

type V2PairCreated struct {
	logMeta
	Token0, Token1 string
	Pair           string
}

func (V2PairCreated) Kind() string { return "v2_pair_created" }

type V3PoolCreated struct {
	logMeta
	Token0, Token1 string
	Fee            uint32
	TickSpacing    int32
	Pool           string
}

func (V3PoolCreated) Kind() string { return "v3_pool_created" }

type V4Initialize struct {
	logMeta
	PoolID                 [32]byte
	Currency0, Currency1   string
	Fee                    uint32
	TickSpacing            int32
	Hooks                  string
	SqrtPriceX96           *big.Int
	Tick                   int32
}

func (V4Initialize) Kind() string { return "v4_initialize" }

type V3Initialize struct {
	logMeta
	SqrtPriceX96 *big.Int
	Tick         int32
}

func (V3Initialize) Kind() string { return "v3_initialize" }

type Transfer struct {
	logMeta
	From, To string
	Value    *big.Int
}

func (Transfer) Kind() string { return "transfer" }

type WethDeposit struct {
	logMeta
	Dst    string
	Amount *big.Int
}

func (WethDeposit) Kind() string { return "weth_deposit" }

type WethWithdrawal struct {
	logMeta
	Src    string
	Amount *big.Int
}

func (WethWithdrawal) Kind() string { return "weth_withdrawal" }

type V2Mint struct {
	logMeta
	Sender         string
	Amount0, Amount1 *big.Int
}

func (V2Mint) Kind() string { return "v2_mint" }

type V3Mint struct {
	logMeta
	Sender                    string
	Owner                     string
	TickLower, TickUpper      int32
	Amount                    *big.Int
	Amount0, Amount1          *big.Int
}

func (V3Mint) Kind() string { return "v3_mint" }

type V2Burn struct {
	logMeta
	Sender           string
	Amount0, Amount1 *big.Int
	To               string
}

func (V2Burn) Kind() string { return "v2_burn" }

type V3Burn struct {
	logMeta
	Owner                string
	TickLower, TickUpper int32
	Amount               *big.Int
	Amount0, Amount1     *big.Int
}

func (V3Burn) Kind() string { return "v3_burn" }

type V2Sync struct {
	logMeta
	Reserve0, Reserve1 *big.Int
}

func (V2Sync) Kind() string { return "v2_sync" }

type V3Collect struct {
	logMeta
	Owner                string
	Recipient            string
	TickLower, TickUpper int32
	Amount0, Amount1     *big.Int
}

func (V3Collect) Kind() string { return "v3_collect" }

type V4ModifyLiquidity struct {
	logMeta
	PoolID               [32]byte
	Sender               string
	TickLower, TickUpper int32
	LiquidityDelta       *big.Int
	Salt                 [32]byte
}

func (V4ModifyLiquidity) Kind() string { return "v4_modify_liquidity" }

type V2Swap struct {
	logMeta
	Sender                           string
	Amount0In, Amount1In             *big.Int
	Amount0Out, Amount1Out           *big.Int
	To                               string
}

func (V2Swap) Kind() string { return "v2_swap" }

type V3Swap struct {
	logMeta
	Sender, Recipient    string
	Amount0, Amount1     *big.Int
	SqrtPriceX96         *big.Int
	Liquidity            *big.Int
	Tick                 int32
}

func (V3Swap) Kind() string { return "v3_swap" }

type V4Swap struct {
	logMeta
	PoolID       [32]byte
	Sender       string
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
	Fee          uint32
}

func (V4Swap) Kind() string { return "v4_swap" }

// ParseResult is the output of ParseLogs: parsed events in the
// stream's sequential order, plus two deduplicated address lists for
// the resolver and the pool store.
type ParseResult struct {
	ParsedLogs             []ParsedLog
	TokenAddresses         []string
	ModifiedPoolAddresses  []string
}

// hexAddr lowercases addresses at the parse boundary, per spec.md §4.C's
// "addresses are stored lowercased end-to-end" rule.
func hexAddr(a common.Address) string {
	return strings.ToLower(a.Hex())
}
