// Package clickhouse implements the append-only half of the
// persistence layer — events, supply events, new-pool discoveries,
// and hourly snapshots — against ClickHouse via the native protocol.
// Grounded on original_source/src/db/clickhouse/{client,ops}.rs, with
// the inserter/batching responsibilities of BatchIngestor carried by
// internal/ingest instead: this package only executes the batch writes
// once a batch is ready.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config is the subset of config.rs's ClickHouseSettings needed to
// dial.
type Config struct {
	Addr     string
	Database string
	User     string
	Password string
}

// Store wraps a native ClickHouse connection and implements
// store.EventSink.
type Store struct {
	conn clickhouse.Conn
}

// New dials ClickHouse over its native protocol.
func New(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &Store{conn: conn}, nil
}

// HealthCheck verifies the connection can still reach the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
