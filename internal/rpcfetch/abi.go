package rpcfetch

import (
	"strings"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// multicall3Address is the canonical, chain-independent deployment
// address of Multicall3, the aggregator contract the fetcher batches
// ERC-20 metadata calls through.
var multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const erc20ABIJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]}
]`

const multicall3ABIJSON = `[
	{"type":"function","name":"aggregate3","stateMutability":"view",
	 "inputs":[{"name":"calls","type":"tuple[]","components":[
		{"name":"target","type":"address"},
		{"name":"allowFailure","type":"bool"},
		{"name":"callData","type":"bytes"}
	 ]}],
	 "outputs":[{"name":"returnData","type":"tuple[]","components":[
		{"name":"success","type":"bool"},
		{"name":"returnData","type":"bytes"}
	 ]}]}
]`

var (
	erc20ABI      abi.ABI
	multicall3ABI abi.ABI
)

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(err)
	}
	multicall3ABI, err = abi.JSON(strings.NewReader(multicall3ABIJSON))
	if err != nil {
		panic(err)
	}
}

// call3 mirrors Multicall3's `Call3` tuple: a single sub-call with
// allowFailure semantics so one bad token can't fail the whole batch.
type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// call3Result mirrors Multicall3's `Result` tuple.
type call3Result struct {
	Success    bool
	ReturnData []byte
}
