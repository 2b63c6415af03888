package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

func TestBuildSupplyEventFromTransferClassifiesMintVsBurn(t *testing.T) {
	mint := BuildSupplyEventFromTransfer(1, parser.Transfer{From: zeroAddress, To: "0xholder", Value: big.NewInt(100)}, 18)
	assert.Equal(t, "mint", mint.EventType)

	burn := BuildSupplyEventFromTransfer(1, parser.Transfer{From: "0xholder", To: zeroAddress, Value: big.NewInt(100)}, 18)
	assert.Equal(t, "burn", burn.EventType)
}

func TestBuildSupplyEventFromDepositIsAlwaysMint(t *testing.T) {
	e := BuildSupplyEventFromDeposit(1, parser.WethDeposit{Dst: "0xholder", Amount: big.NewInt(50)}, 18)
	assert.Equal(t, "mint", e.EventType)
}

func TestBuildSupplyEventFromWithdrawalIsAlwaysBurn(t *testing.T) {
	e := BuildSupplyEventFromWithdrawal(1, parser.WethWithdrawal{Src: "0xholder", Amount: big.NewInt(50)}, 18)
	assert.Equal(t, "burn", e.EventType)
}

func TestBuildNewPoolDenormalizesFromPool(t *testing.T) {
	p := models.Pool{
		ChainID: 1, Address: "0xpool", Token0: "0xt0", Token1: "0xt1",
		Token0Symbol: "A", Token1Symbol: "B", ProtocolVersion: models.ProtocolV3, Fee: 500,
	}
	np := BuildNewPool(&p, 12345.0)
	assert.Equal(t, "0xpool", np.PoolAddress)
	assert.Equal(t, "v3", np.ProtocolVersion)
	assert.Equal(t, 12345.0, np.InitialTVLUSD)
}
