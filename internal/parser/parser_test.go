package parser

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dexindexer/internal/classify"
)

func testTokens() *classify.ChainTokens {
	return classify.New(
		"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		nil,
		nil,
		"0xpool",
	)
}

func packUint(vals ...*big.Int) []byte {
	out := make([]byte, 0, 32*len(vals))
	for _, v := range vals {
		out = append(out, common.LeftPadBytes(v.Bytes(), 32)...)
	}
	return out
}

func TestParseLogsPreservesSequentialOrder(t *testing.T) {
	logs := []*types.Log{
		{
			Address:     common.HexToAddress("0xpool1"),
			Topics:      []common.Hash{sigV2Sync},
			Data:        packUint(big.NewInt(100), big.NewInt(200)),
			BlockNumber: 10,
			Index:       0,
		},
		{
			Address:     common.HexToAddress("0xpool1"),
			Topics:      []common.Hash{sigV2Sync},
			Data:        packUint(big.NewInt(300), big.NewInt(400)),
			BlockNumber: 10,
			Index:       1,
		},
	}

	result, err := ParseLogs(logs, map[uint64]uint64{10: 1234}, testTokens())
	require.NoError(t, err)
	require.Len(t, result.ParsedLogs, 2)

	first, ok := result.ParsedLogs[0].(V2Sync)
	require.True(t, ok)
	assert.Equal(t, "100", first.Reserve0.String())

	second, ok := result.ParsedLogs[1].(V2Sync)
	require.True(t, ok)
	assert.Equal(t, "300", second.Reserve0.String())
}

func TestParseLogsSkipsEmptyTopics(t *testing.T) {
	logs := []*types.Log{{Address: common.HexToAddress("0xpool1"), Topics: nil}}
	result, err := ParseLogs(logs, map[uint64]uint64{}, testTokens())
	require.NoError(t, err)
	assert.Empty(t, result.ParsedLogs)
}

func TestParseLogsTransferRetainsOnlyMintBurn(t *testing.T) {
	zero := common.Address{}
	holder := common.HexToAddress("0x00000000000000000000000000000000000001")

	mintLog := &types.Log{
		Address: common.HexToAddress("0xtoken"),
		Topics: []common.Hash{
			sigTransfer,
			common.BytesToHash(zero.Bytes()),
			common.BytesToHash(holder.Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(1000).Bytes(), 32),
		BlockNumber: 1,
	}
	transferLog := &types.Log{
		Address: common.HexToAddress("0xtoken"),
		Topics: []common.Hash{
			sigTransfer,
			common.BytesToHash(holder.Bytes()),
			common.BytesToHash(holder.Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(1000).Bytes(), 32),
		BlockNumber: 1,
	}

	result, err := ParseLogs([]*types.Log{mintLog, transferLog}, map[uint64]uint64{1: 1}, testTokens())
	require.NoError(t, err)
	require.Len(t, result.ParsedLogs, 1)
	_, ok := result.ParsedLogs[0].(Transfer)
	assert.True(t, ok)
}

func TestParseLogsWethDepositRequiresWrappedNativeAddress(t *testing.T) {
	wrongContract := &types.Log{
		Address: common.HexToAddress("0xnotweth"),
		Topics: []common.Hash{
			sigDeposit,
			common.BytesToHash(common.HexToAddress("0xabc").Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(1).Bytes(), 32),
		BlockNumber: 1,
	}
	result, err := ParseLogs([]*types.Log{wrongContract}, map[uint64]uint64{1: 1}, testTokens())
	require.NoError(t, err)
	assert.Empty(t, result.ParsedLogs)

	rightContract := &types.Log{
		Address: common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		Topics: []common.Hash{
			sigDeposit,
			common.BytesToHash(common.HexToAddress("0xabc").Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(1).Bytes(), 32),
		BlockNumber: 1,
	}
	result, err = ParseLogs([]*types.Log{rightContract}, map[uint64]uint64{1: 1}, testTokens())
	require.NoError(t, err)
	require.Len(t, result.ParsedLogs, 1)
}

func TestParseLogsV2PairCreatedCollectsTokenAddresses(t *testing.T) {
	token0 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1 := common.HexToAddress("0x2222222222222222222222222222222222222222")
	pair := common.HexToAddress("0x3333333333333333333333333333333333333333")

	data, err := v2PairCreatedData.Pack(pair, big.NewInt(1))
	require.NoError(t, err)

	logEntry := &types.Log{
		Address: common.HexToAddress("0xfactory"),
		Topics: []common.Hash{
			sigV2PairCreated,
			common.BytesToHash(token0.Bytes()),
			common.BytesToHash(token1.Bytes()),
		},
		Data:        data,
		BlockNumber: 1,
	}

	result, err := ParseLogs([]*types.Log{logEntry}, map[uint64]uint64{1: 1}, testTokens())
	require.NoError(t, err)
	require.Len(t, result.ParsedLogs, 1)
	assert.ElementsMatch(t, []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	}, result.TokenAddresses)
}

func TestTopicToInt24SignExtends(t *testing.T) {
	pos := common.BigToHash(big.NewInt(100))
	assert.Equal(t, int32(100), topicToInt24(pos))

	// Topics are full 32-byte two's-complement words; Go's big.Int
	// strips sign on .Bytes(), so negative values must be reduced
	// modulo 2^256 before converting to a hash.
	mod256 := new(big.Int).Lsh(big.NewInt(1), 256)
	negVal := new(big.Int).Mod(big.NewInt(-100), mod256)
	neg := common.BigToHash(negVal)
	assert.Equal(t, int32(-100), topicToInt24(neg))
}
