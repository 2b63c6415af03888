package models

import "time"

// EventType enumerates the protocol-level actions recorded against a
// pool in the append-only events table.
type EventType string

const (
	EventSwap            EventType = "swap"
	EventMint            EventType = "mint"
	EventBurn            EventType = "burn"
	EventCollect         EventType = "collect"
	EventModifyLiquidity EventType = "modify_liquidity"
)

// Event is one decoded, priced, append-only record. Primary key is
// (ChainID, BlockNumber, TxHash, LogIndex).
type Event struct {
	ChainID     ChainID
	BlockNumber uint64
	Timestamp   time.Time
	TxHash      string
	TxIndex     uint32
	LogIndex    uint32

	PoolAddress string
	Token0      string
	Token1      string

	Maker string
	Owner string

	EventType EventType

	Amount0         string // raw base-10 integer string
	Amount1         string
	Amount0Adjusted float64
	Amount1Adjusted float64

	// Direction0/Direction1 are -1 (into pool) or +1 (out of pool).
	Direction0 int8
	Direction1 int8

	Price      *float64
	PriceUSD   float64
	VolumeUSD  float64
	FeesUSD    float64
	FeePPM     uint32

	IsSuspicious bool

	SqrtPriceX96 *string
	Tick         *int32
	TickLower    *int32
	TickUpper    *int32
	Liquidity    *string
}

// SupplyEvent is an append-only record of an ERC-20 zero-address
// Transfer (mint/burn) or a wrapped-native Deposit/Withdrawal.
type SupplyEvent struct {
	ChainID        ChainID
	BlockNumber    uint64
	Timestamp      time.Time
	TxHash         string
	LogIndex       uint32
	TokenAddress   string
	EventType      string // "mint" or "burn"
	Amount         string // raw base-10 integer string
	AmountAdjusted float64
}

// NewPool is an append-only discovery-feed record, one row per pool
// creation observation.
type NewPool struct {
	ChainID         ChainID
	PoolAddress     string
	CreatedAt       time.Time
	BlockNumber     uint64
	TxHash          string
	Token0          string
	Token1          string
	Token0Symbol    string
	Token1Symbol    string
	Protocol        string
	ProtocolVersion string
	Fee             uint32
	InitialTVLUSD   float64
}

// PoolSnapshot is an hourly snapshot of pool state for historical
// charts, pushed by the cron scheduler's pool_snapshots job.
type PoolSnapshot struct {
	ChainID     ChainID
	PoolAddress string
	Time        time.Time

	Price    float64
	PriceUSD float64

	TVLUSD   float64
	Reserve0 float64
	Reserve1 float64
	Liquidity string

	Volume24h float64
	Swaps24h  uint64
	Fees24h   float64
}

// TokenSnapshot is an hourly snapshot of token metrics.
type TokenSnapshot struct {
	ChainID      ChainID
	TokenAddress string
	Time         time.Time

	PriceUSD  float64
	PriceOpen float64
	PriceHigh float64
	PriceLow  float64

	MarketCapUSD      float64
	CirculatingSupply float64

	VolumeUSD float64
	SwapCount uint64
	PoolCount uint32
}

// SyncCheckpoint tracks the last successfully indexed block per chain.
type SyncCheckpoint struct {
	ChainID          ChainID
	LastIndexedBlock uint64
	UpdatedAt        time.Time
}

// NativeTokenPrice is the current USD price of a chain's native token,
// derived from the canonical stable pool.
type NativeTokenPrice struct {
	ChainID   ChainID
	PriceUSD  float64
	UpdatedAt time.Time
}

// CronCheckpoint scopes a periodic job's read window to "since last
// run" rather than an unbounded table scan.
type CronCheckpoint struct {
	JobName   string
	LastRunAt time.Time
}

// PoolStatUpdate carries one pool's rolling 24h volume/swap count,
// aggregated from ClickHouse's events table, for the update_24h_stats
// cron job to fold into PostgreSQL.
type PoolStatUpdate struct {
	ChainID     ChainID
	PoolAddress string
	Volume24h   float64
	Swaps24h    uint64
	LastSwapAt  time.Time
}

// TokenStatUpdate is PoolStatUpdate's token-side counterpart: volume is
// split evenly across a swap's two legs before aggregation.
type TokenStatUpdate struct {
	ChainID      ChainID
	TokenAddress string
	Volume24h    float64
	Swaps24h     uint64
}

// PoolPriceChangeUpdate carries a pool's 24h/7d percentage price
// change, derived from ClickHouse hourly candles by the
// update_price_changes cron job.
type PoolPriceChangeUpdate struct {
	ChainID        ChainID
	PoolAddress    string
	PriceChange24h float64
	PriceChange7d  float64
}

// TokenPriceChangeUpdate is PoolPriceChangeUpdate's token-side
// counterpart, additionally carrying circulating supply and market cap
// derived from ClickHouse's supply_events table.
type TokenPriceChangeUpdate struct {
	ChainID           ChainID
	TokenAddress      string
	PriceChange24h    float64
	PriceChange7d     float64
	CirculatingSupply float64
	MarketCapUSD      float64
}

// PoolSnapshotSource is the row shape read back from PostgreSQL by the
// pool_snapshots cron job before being stamped into a PoolSnapshot.
type PoolSnapshotSource struct {
	ChainID     ChainID
	PoolAddress string
	Price       float64
	PriceUSD    float64
	TVLUSD      float64
	Reserve0    float64
	Reserve1    float64
	Liquidity   string
	Volume24h   float64
	Swaps24h    uint64
	Fee         uint32
}

// TokenSnapshotSource is TokenSnapshot's read-side counterpart for the
// token_snapshots cron job.
type TokenSnapshotSource struct {
	ChainID           ChainID
	TokenAddress      string
	PriceUSD          float64
	MarketCapUSD      float64
	CirculatingSupply float64
	Volume24h         float64
	Swaps24h          uint64
	PoolCount         uint64
}

// PoolByToken is a denormalized reverse index: for a given token, the
// pools it appears in and the token paired against it. Populated in
// both directions for every pool.
type PoolByToken struct {
	ChainID            ChainID
	TokenAddress       string
	PoolAddress        string
	PairedToken        string
	PairedTokenSymbol  string
	Protocol           string
	ProtocolVersion    string
	Fee                *uint32
	TVLUSD             *float64
	Volume24h          *float64
}

// PoolByTokenFromPool derives the two PoolByToken entries (one per
// direction) for a pool.
func PoolByTokenFromPool(p *Pool) (forToken0, forToken1 PoolByToken) {
	protocolVersion := string(p.ProtocolVersion)
	forToken0 = PoolByToken{
		ChainID:           p.ChainID,
		TokenAddress:      p.Token0,
		PoolAddress:       p.Address,
		PairedToken:       p.Token1,
		PairedTokenSymbol: p.Token1Symbol,
		ProtocolVersion:   protocolVersion,
		Fee:               &p.Fee,
		TVLUSD:            p.TVLUSD,
	}
	forToken1 = PoolByToken{
		ChainID:           p.ChainID,
		TokenAddress:      p.Token1,
		PoolAddress:       p.Address,
		PairedToken:       p.Token0,
		PairedTokenSymbol: p.Token0Symbol,
		ProtocolVersion:   protocolVersion,
		Fee:               &p.Fee,
		TVLUSD:            p.TVLUSD,
	}
	return
}
