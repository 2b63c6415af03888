package parser

import (
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/luxfi/dexindexer/internal/classify"
)

// ParseLogs decodes a batch of raw logs into ParsedLog variants, in the
// logs' original sequential order — the applicator depends on that
// order for correctness (spec.md §4.A). blockTimestamps maps a log's
// block number to its block's timestamp, built by the caller from the
// batch's block headers.
func ParseLogs(logs []*types.Log, blockTimestamps map[uint64]uint64, tokens *classify.ChainTokens) (*ParseResult, error) {
	result := &ParseResult{
		ParsedLogs:            make([]ParsedLog, 0, len(logs)),
		TokenAddresses:        make([]string, 0, len(logs)*2),
		ModifiedPoolAddresses: make([]string, 0, len(logs)),
	}

	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}

		meta := logMeta{
			LogAddress:     hexAddr(log.Address),
			BlockNumber:    log.BlockNumber,
			LogIndex:       uint32(log.Index),
			TxHash:         log.TxHash.Hex(),
			BlockTimestamp: blockTimestamps[log.BlockNumber],
		}

		switch log.Topics[0] {
		case sigTransfer:
			if len(log.Topics) < 3 {
				continue
			}
			from := common.BytesToAddress(log.Topics[1].Bytes())
			to := common.BytesToAddress(log.Topics[2].Bytes())
			if from != (common.Address{}) && to != (common.Address{}) {
				// Neither side is the zero address: not a mint/burn,
				// out of scope for supply tracking.
				continue
			}
			result.TokenAddresses = append(result.TokenAddresses, meta.LogAddress)
			value := new(big.Int).SetBytes(log.Data)
			result.ParsedLogs = append(result.ParsedLogs, Transfer{
				logMeta: meta,
				From:    hexAddr(from),
				To:      hexAddr(to),
				Value:   value,
			})

		case sigDeposit:
			if !tokens.IsWrappedNative(meta.LogAddress) || len(log.Topics) < 2 {
				continue
			}
			dst := common.BytesToAddress(log.Topics[1].Bytes())
			amount := new(big.Int).SetBytes(log.Data)
			result.ParsedLogs = append(result.ParsedLogs, WethDeposit{
				logMeta: meta,
				Dst:     hexAddr(dst),
				Amount:  amount,
			})

		case sigWithdrawal:
			if !tokens.IsWrappedNative(meta.LogAddress) || len(log.Topics) < 2 {
				continue
			}
			src := common.BytesToAddress(log.Topics[1].Bytes())
			amount := new(big.Int).SetBytes(log.Data)
			result.ParsedLogs = append(result.ParsedLogs, WethWithdrawal{
				logMeta: meta,
				Src:     hexAddr(src),
				Amount:  amount,
			})

		case sigV2PairCreated:
			if len(log.Topics) < 3 {
				continue
			}
			token0 := hexAddr(common.BytesToAddress(log.Topics[1].Bytes()))
			token1 := hexAddr(common.BytesToAddress(log.Topics[2].Bytes()))
			vals, err := v2PairCreatedData.Unpack(log.Data)
			if err != nil || len(vals) < 1 {
				continue
			}
			result.TokenAddresses = append(result.TokenAddresses, token0, token1)
			result.ParsedLogs = append(result.ParsedLogs, V2PairCreated{
				logMeta: meta,
				Token0:  token0,
				Token1:  token1,
				Pair:    hexAddr(vals[0].(common.Address)),
			})

		case sigV3PoolCreated:
			if len(log.Topics) < 4 {
				continue
			}
			token0 := hexAddr(common.BytesToAddress(log.Topics[1].Bytes()))
			token1 := hexAddr(common.BytesToAddress(log.Topics[2].Bytes()))
			fee := new(big.Int).SetBytes(log.Topics[3].Bytes()).Uint64()
			vals, err := v3PoolCreatedData.Unpack(log.Data)
			if err != nil || len(vals) < 2 {
				continue
			}
			result.TokenAddresses = append(result.TokenAddresses, token0, token1)
			result.ParsedLogs = append(result.ParsedLogs, V3PoolCreated{
				logMeta:     meta,
				Token0:      token0,
				Token1:      token1,
				Fee:         uint32(fee),
				TickSpacing: int32(vals[0].(*big.Int).Int64()),
				Pool:        hexAddr(vals[1].(common.Address)),
			})

		case sigV4Initialize:
			if len(log.Topics) < 4 {
				continue
			}
			poolID := [32]byte(log.Topics[1])
			currency0 := hexAddr(common.BytesToAddress(log.Topics[2].Bytes()))
			currency1 := hexAddr(common.BytesToAddress(log.Topics[3].Bytes()))
			vals, err := v4InitializeData.Unpack(log.Data)
			if err != nil || len(vals) < 5 {
				continue
			}
			result.TokenAddresses = append(result.TokenAddresses, currency0, currency1)
			result.ParsedLogs = append(result.ParsedLogs, V4Initialize{
				logMeta:      meta,
				PoolID:       poolID,
				Currency0:    currency0,
				Currency1:    currency1,
				Fee:          uint32(vals[0].(*big.Int).Uint64()),
				TickSpacing:  int32(vals[1].(*big.Int).Int64()),
				Hooks:        hexAddr(vals[2].(common.Address)),
				SqrtPriceX96: vals[3].(*big.Int),
				Tick:         int32(vals[4].(*big.Int).Int64()),
			})

		case sigV3Initialize:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			vals, err := v3InitializeData.Unpack(log.Data)
			if err != nil || len(vals) < 2 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V3Initialize{
				logMeta:      meta,
				SqrtPriceX96: vals[0].(*big.Int),
				Tick:         int32(vals[1].(*big.Int).Int64()),
			})

		case sigV2Mint:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 2 {
				continue
			}
			vals, err := v2MintData.Unpack(log.Data)
			if err != nil || len(vals) < 2 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V2Mint{
				logMeta: meta,
				Sender:  hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				Amount0: vals[0].(*big.Int),
				Amount1: vals[1].(*big.Int),
			})

		case sigV3Mint:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 4 {
				continue
			}
			vals, err := v3MintData.Unpack(log.Data)
			if err != nil || len(vals) < 4 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V3Mint{
				logMeta:   meta,
				Owner:     hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				TickLower: topicToInt24(log.Topics[2]),
				TickUpper: topicToInt24(log.Topics[3]),
				Sender:    hexAddr(vals[0].(common.Address)),
				Amount:    vals[1].(*big.Int),
				Amount0:   vals[2].(*big.Int),
				Amount1:   vals[3].(*big.Int),
			})

		case sigV2Burn:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 3 {
				continue
			}
			vals, err := v2BurnData.Unpack(log.Data)
			if err != nil || len(vals) < 2 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V2Burn{
				logMeta: meta,
				Sender:  hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				Amount0: vals[0].(*big.Int),
				Amount1: vals[1].(*big.Int),
				To:      hexAddr(common.BytesToAddress(log.Topics[2].Bytes())),
			})

		case sigV3Burn:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 4 {
				continue
			}
			vals, err := v3BurnData.Unpack(log.Data)
			if err != nil || len(vals) < 3 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V3Burn{
				logMeta:   meta,
				Owner:     hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				TickLower: topicToInt24(log.Topics[2]),
				TickUpper: topicToInt24(log.Topics[3]),
				Amount:    vals[0].(*big.Int),
				Amount0:   vals[1].(*big.Int),
				Amount1:   vals[2].(*big.Int),
			})

		case sigV2Sync:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			vals, err := v2SyncData.Unpack(log.Data)
			if err != nil || len(vals) < 2 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V2Sync{
				logMeta:  meta,
				Reserve0: vals[0].(*big.Int),
				Reserve1: vals[1].(*big.Int),
			})

		case sigV3Collect:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 4 {
				continue
			}
			vals, err := v3CollectData.Unpack(log.Data)
			if err != nil || len(vals) < 3 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V3Collect{
				logMeta:   meta,
				Owner:     hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				TickLower: topicToInt24(log.Topics[2]),
				TickUpper: topicToInt24(log.Topics[3]),
				Recipient: hexAddr(vals[0].(common.Address)),
				Amount0:   vals[1].(*big.Int),
				Amount1:   vals[2].(*big.Int),
			})

		case sigV4ModifyLiquidity:
			if len(log.Topics) < 3 {
				continue
			}
			poolID := [32]byte(log.Topics[1])
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, hexHash(poolID))
			vals, err := v4ModifyLiquidityData.Unpack(log.Data)
			if err != nil || len(vals) < 4 {
				continue
			}
			var salt [32]byte
			if b, ok := vals[3].([32]byte); ok {
				salt = b
			}
			result.ParsedLogs = append(result.ParsedLogs, V4ModifyLiquidity{
				logMeta:        meta,
				PoolID:         poolID,
				Sender:         hexAddr(common.BytesToAddress(log.Topics[2].Bytes())),
				TickLower:      int32(vals[0].(*big.Int).Int64()),
				TickUpper:      int32(vals[1].(*big.Int).Int64()),
				LiquidityDelta: vals[2].(*big.Int),
				Salt:           salt,
			})

		case sigV2Swap:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 3 {
				continue
			}
			vals, err := v2SwapData.Unpack(log.Data)
			if err != nil || len(vals) < 4 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V2Swap{
				logMeta:    meta,
				Sender:     hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				Amount0In:  vals[0].(*big.Int),
				Amount1In:  vals[1].(*big.Int),
				Amount0Out: vals[2].(*big.Int),
				Amount1Out: vals[3].(*big.Int),
				To:         hexAddr(common.BytesToAddress(log.Topics[2].Bytes())),
			})

		case sigV3Swap:
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, meta.LogAddress)
			if len(log.Topics) < 3 {
				continue
			}
			vals, err := v3SwapData.Unpack(log.Data)
			if err != nil || len(vals) < 5 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V3Swap{
				logMeta:      meta,
				Sender:       hexAddr(common.BytesToAddress(log.Topics[1].Bytes())),
				Recipient:    hexAddr(common.BytesToAddress(log.Topics[2].Bytes())),
				Amount0:      vals[0].(*big.Int),
				Amount1:      vals[1].(*big.Int),
				SqrtPriceX96: vals[2].(*big.Int),
				Liquidity:    vals[3].(*big.Int),
				Tick:         int32(vals[4].(*big.Int).Int64()),
			})

		case sigV4Swap:
			if len(log.Topics) < 3 {
				continue
			}
			poolID := [32]byte(log.Topics[1])
			result.ModifiedPoolAddresses = append(result.ModifiedPoolAddresses, hexHash(poolID))
			vals, err := v4SwapData.Unpack(log.Data)
			if err != nil || len(vals) < 6 {
				continue
			}
			result.ParsedLogs = append(result.ParsedLogs, V4Swap{
				logMeta:      meta,
				PoolID:       poolID,
				Sender:       hexAddr(common.BytesToAddress(log.Topics[2].Bytes())),
				Amount0:      vals[0].(*big.Int),
				Amount1:      vals[1].(*big.Int),
				SqrtPriceX96: vals[2].(*big.Int),
				Liquidity:    vals[3].(*big.Int),
				Tick:         int32(vals[4].(*big.Int).Int64()),
				Fee:          uint32(vals[5].(*big.Int).Uint64()),
			})

		default:
			continue
		}
	}

	// Keep the first occurrence of each address, in stream order.
	dedup := func(in []string) []string {
		seen := make(map[string]struct{}, len(in))
		out := in[:0]
		for _, a := range in {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
		return out
	}
	result.TokenAddresses = dedup(result.TokenAddresses)
	result.ModifiedPoolAddresses = dedup(result.ModifiedPoolAddresses)

	return result, nil
}

// hexHash lowercases a 32-byte pool-id hash for storage, matching the
// lowercased-address convention used for V2/V3 pool addresses.
func hexHash(id [32]byte) string {
	return strings.ToLower(common.Hash(id).Hex())
}

// topicToInt24 sign-extends a 32-byte topic word holding a Solidity
// int24 into a Go int32.
func topicToInt24(h common.Hash) int32 {
	v := new(big.Int).SetBytes(h.Bytes())
	// int24 occupies the low 24 bits; values >= 2^23 are negative.
	const bit = 1 << 23
	const mod = 1 << 24
	n := v.Int64() & (mod - 1)
	if n&bit != 0 {
		n -= mod
	}
	return int32(n)
}
