package rpcfetch

import (
	"context"
	"fmt"

	"github.com/luxfi/geth/ethclient"
)

// Dialer opens an ethclient connection per chain and wraps it in a
// Fetcher. Its Dial returns *Fetcher, so cmd/dexindexer wraps it in a
// small adapter to satisfy internal/fleet.RPCDialer.
type Dialer struct{}

// NewDialer builds a Dialer. Stateless: each Dial call owns its own
// client.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial connects to rpcURL and returns a Fetcher backed by it.
func (Dialer) Dial(ctx context.Context, rpcURL string) (*Fetcher, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("rpcfetch: dial %s: %w", rpcURL, err)
	}
	return New(client), nil
}
