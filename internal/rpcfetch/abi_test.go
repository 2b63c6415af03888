package rpcfetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestERC20ABIPacksKnownSelectors(t *testing.T) {
	for _, method := range []string{"name", "symbol", "decimals"} {
		data, err := erc20ABI.Pack(method)
		require.NoError(t, err)
		assert.Len(t, data, 4, "packed call data for %s should be a bare 4-byte selector", method)
	}
}

func TestMulticall3AddressIsCanonical(t *testing.T) {
	assert.Equal(t, "0xcA11bde05977b3631167028862bE2a173976CA11", multicall3Address.Hex())
}

func TestDecodeAggregateResultRejectsFailedDecimals(t *testing.T) {
	result := decodeAggregateResult("0xtoken", call3Result{Success: true}, call3Result{Success: true}, call3Result{Success: false})
	assert.False(t, result.Ok)
}

func TestDecodeAggregateResultToleratesEmptyNameSymbol(t *testing.T) {
	decimalsData, err := erc20ABI.Methods["decimals"].Outputs.Pack(uint8(18))
	require.NoError(t, err)

	result := decodeAggregateResult(
		"0xtoken",
		call3Result{Success: false},
		call3Result{Success: false},
		call3Result{Success: true, ReturnData: decimalsData},
	)
	require.True(t, result.Ok)
	assert.Equal(t, uint8(18), result.Decimals)
	assert.Empty(t, result.Name)
	assert.Empty(t, result.Symbol)
}

func TestDecodeAggregateResultRejectsExcessiveDecimals(t *testing.T) {
	decimalsData, err := erc20ABI.Methods["decimals"].Outputs.Pack(uint8(30))
	require.NoError(t, err)

	result := decodeAggregateResult(
		"0xtoken",
		call3Result{Success: false},
		call3Result{Success: false},
		call3Result{Success: true, ReturnData: decimalsData},
	)
	assert.False(t, result.Ok)
}
