// Package streamclient defines the chain worker's view of the
// streaming log provider: an opaque source of ordered batches of
// blocks and logs. Concrete providers (HyperSync, a self-hosted log
// poller, ...) are out of scope here; only the shape the chain worker
// consumes is defined.
package streamclient

import (
	"context"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// BlockHeader is the minimal per-block data a batch carries: enough
// to build the block_number -> timestamp map the parser needs.
type BlockHeader struct {
	Number    uint64
	Timestamp uint64
}

// Batch is one yield from a Stream: a window of blocks and the raw
// logs within them, plus the block number to resume from on the next
// query.
type Batch struct {
	Blocks    []BlockHeader
	Logs      []*types.Log
	NextBlock uint64
}

// Stream yields batches of blocks/logs starting from a given block,
// in sequential order, until ctx is canceled. Implementations own
// their own reconnect behavior below the Next boundary; the chain
// worker only enforces a receive timeout around each call.
type Stream interface {
	// Next blocks until a batch is available, ctx is canceled, or the
	// underlying source errors. A nil *Batch with a nil error signals
	// the stream ended cleanly (rare; streams are normally unbounded).
	Next(ctx context.Context) (*Batch, error)

	// Close releases any resources (connections, goroutines) held by
	// the stream.
	Close() error
}

// Dialer opens a Stream for one chain starting at fromBlock, selecting
// only the log topics the parser understands.
type Dialer interface {
	Dial(ctx context.Context, streamURL string, fromBlock uint64, topics []common.Hash) (Stream, error)
}
