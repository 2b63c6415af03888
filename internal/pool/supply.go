package pool

import (
	"math/big"

	"github.com/luxfi/dexindexer/internal/bignum"
	"github.com/luxfi/dexindexer/internal/models"
	"github.com/luxfi/dexindexer/internal/parser"
)

// BuildSupplyEventFromTransfer converts a zero-address ERC-20 Transfer
// into a mint/burn SupplyEvent, grounded on
// original_source/src/db/models/supply_event.rs's SupplyEvent::new.
// A Transfer from zeroAddress is a mint; any other Transfer (the
// parser only keeps ones to zeroAddress) is a burn.
func BuildSupplyEventFromTransfer(chainID models.ChainID, ev parser.Transfer, decimals uint8) models.SupplyEvent {
	eventType := "mint"
	if ev.From != zeroAddress {
		eventType = "burn"
	}
	amount := ev.Value
	if amount == nil {
		amount = zeroBigInt()
	}
	return models.SupplyEvent{
		ChainID:        chainID,
		BlockNumber:    ev.BlockNumber,
		Timestamp:      unixToTime(ev.BlockTimestamp),
		TxHash:         ev.TxHash,
		LogIndex:       ev.LogIndex,
		TokenAddress:   ev.LogAddress,
		EventType:      eventType,
		Amount:         amount.String(),
		AmountAdjusted: bignum.BigIntToFloat(amount, decimals),
	}
}

// BuildSupplyEventFromDeposit converts a wrapped-native Deposit into a
// mint SupplyEvent.
func BuildSupplyEventFromDeposit(chainID models.ChainID, ev parser.WethDeposit, decimals uint8) models.SupplyEvent {
	amount := ev.Amount
	if amount == nil {
		amount = zeroBigInt()
	}
	return models.SupplyEvent{
		ChainID:        chainID,
		BlockNumber:    ev.BlockNumber,
		Timestamp:      unixToTime(ev.BlockTimestamp),
		TxHash:         ev.TxHash,
		LogIndex:       ev.LogIndex,
		TokenAddress:   ev.LogAddress,
		EventType:      "mint",
		Amount:         amount.String(),
		AmountAdjusted: bignum.BigIntToFloat(amount, decimals),
	}
}

// BuildSupplyEventFromWithdrawal converts a wrapped-native Withdrawal
// into a burn SupplyEvent.
func BuildSupplyEventFromWithdrawal(chainID models.ChainID, ev parser.WethWithdrawal, decimals uint8) models.SupplyEvent {
	amount := ev.Amount
	if amount == nil {
		amount = zeroBigInt()
	}
	return models.SupplyEvent{
		ChainID:        chainID,
		BlockNumber:    ev.BlockNumber,
		Timestamp:      unixToTime(ev.BlockTimestamp),
		TxHash:         ev.TxHash,
		LogIndex:       ev.LogIndex,
		TokenAddress:   ev.LogAddress,
		EventType:      "burn",
		Amount:         amount.String(),
		AmountAdjusted: bignum.BigIntToFloat(amount, decimals),
	}
}

// BuildNewPool records a pool-creation discovery row, grounded on
// original_source/src/db/models/new_pool.rs's NewPool::from_pool_created.
// initialTVLUSD is backfilled by the pricing engine later in the same
// batch and passed in here as 0 when not yet known.
func BuildNewPool(p *models.Pool, initialTVLUSD float64) models.NewPool {
	return models.NewPool{
		ChainID:         p.ChainID,
		PoolAddress:     p.Address,
		CreatedAt:       p.CreatedAt,
		BlockNumber:     p.BlockNumber,
		TxHash:          p.TxHash,
		Token0:          p.Token0,
		Token1:          p.Token1,
		Token0Symbol:    p.Token0Symbol,
		Token1Symbol:    p.Token1Symbol,
		Protocol:        "uniswap",
		ProtocolVersion: string(p.ProtocolVersion),
		Fee:             p.Fee,
		InitialTVLUSD:   initialTVLUSD,
	}
}

const zeroAddress = "0x0000000000000000000000000000000000000000"

func zeroBigInt() *big.Int {
	return new(big.Int)
}
