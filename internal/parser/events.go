package parser

import (
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/crypto"
)

// Event signature hashes, keyed as topics[0]. Computed at package init
// rather than hardcoded, following the same Keccak256-of-signature
// convention geth's bind-generated filterers use.
var (
	sigTransfer   = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	sigDeposit    = crypto.Keccak256Hash([]byte("Deposit(address,uint256)"))
	sigWithdrawal = crypto.Keccak256Hash([]byte("Withdrawal(address,uint256)"))

	sigV2PairCreated = crypto.Keccak256Hash([]byte("PairCreated(address,address,address,uint256)"))
	sigV2Mint        = crypto.Keccak256Hash([]byte("Mint(address,uint256,uint256)"))
	sigV2Burn        = crypto.Keccak256Hash([]byte("Burn(address,uint256,uint256,address)"))
	sigV2Sync        = crypto.Keccak256Hash([]byte("Sync(uint112,uint112)"))
	sigV2Swap        = crypto.Keccak256Hash([]byte("Swap(address,uint256,uint256,uint256,uint256,address)"))

	sigV3PoolCreated = crypto.Keccak256Hash([]byte("PoolCreated(address,address,uint24,int24,address)"))
	sigV3Initialize  = crypto.Keccak256Hash([]byte("Initialize(uint160,int24)"))
	sigV3Mint        = crypto.Keccak256Hash([]byte("Mint(address,address,int24,int24,uint128,uint256,uint256)"))
	sigV3Burn        = crypto.Keccak256Hash([]byte("Burn(address,int24,int24,uint128,uint256,uint256)"))
	sigV3Collect     = crypto.Keccak256Hash([]byte("Collect(address,address,int24,int24,uint128,uint128)"))
	sigV3Swap        = crypto.Keccak256Hash([]byte("Swap(address,address,int256,int256,uint160,uint128,int24)"))

	sigV4Initialize      = crypto.Keccak256Hash([]byte("Initialize(bytes32,address,address,uint24,int24,address,uint160,int24)"))
	sigV4ModifyLiquidity = crypto.Keccak256Hash([]byte("ModifyLiquidity(bytes32,address,int24,int24,int256,bytes32)"))
	sigV4Swap            = crypto.Keccak256Hash([]byte("Swap(bytes32,address,int128,int128,uint160,uint128,int24,uint24)"))
)

// EventTopics returns every topics[0] value ParseLogs understands, for
// callers that need to filter a remote log stream down to just the
// signatures this package can decode.
func EventTopics() []common.Hash {
	return []common.Hash{
		sigTransfer, sigDeposit, sigWithdrawal,
		sigV2PairCreated, sigV2Mint, sigV2Burn, sigV2Sync, sigV2Swap,
		sigV3PoolCreated, sigV3Initialize, sigV3Mint, sigV3Burn, sigV3Collect, sigV3Swap,
		sigV4Initialize, sigV4ModifyLiquidity, sigV4Swap,
	}
}

// argsMustNew builds an abi.Arguments list for a log's non-indexed data
// fields, panicking on a bad type string since these are fixed,
// compile-time-known event shapes (a panic here would mean a typo in
// this file, not bad input).
func argsMustNew(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

var (
	v2PairCreatedData = argsMustNew("address", "uint256")
	v2MintData        = argsMustNew("uint256", "uint256")
	v2BurnData        = argsMustNew("uint256", "uint256")
	v2SyncData        = argsMustNew("uint112", "uint112")
	v2SwapData        = argsMustNew("uint256", "uint256", "uint256", "uint256")

	v3PoolCreatedData = argsMustNew("int24", "address")
	v3InitializeData  = argsMustNew("uint160", "int24")
	v3MintData        = argsMustNew("address", "uint128", "uint256", "uint256")
	v3BurnData        = argsMustNew("uint128", "uint256", "uint256")
	v3CollectData     = argsMustNew("address", "uint128", "uint128")
	v3SwapData        = argsMustNew("int256", "int256", "uint160", "uint128", "int24")

	v4InitializeData      = argsMustNew("uint24", "int24", "address", "uint160", "int24")
	v4ModifyLiquidityData = argsMustNew("int24", "int24", "int256", "bytes32")
	v4SwapData            = argsMustNew("int128", "int128", "uint160", "uint128", "int24", "uint24")
)
