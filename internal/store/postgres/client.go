// Package postgres implements the relational half of the persistence
// layer — mutable chain/token/pool/checkpoint state — against
// PostgreSQL via pgx. Grounded on
// original_source/src/db/postgres/{client,ops}.rs.
package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// connectRetries/connectBaseDelay mirror the original's
// PostgresClient::new dial-with-retry loop.
const (
	connectRetries   = 3
	connectBaseDelay = 100 * time.Millisecond
)

// Store wraps a pgx connection pool and implements every
// internal/store relational interface.
type Store struct {
	pool *pgxpool.Pool
}

// Config is the subset of config.rs's PostgresSettings needed to dial.
type Config struct {
	Host     string
	Port     uint16
	User     string
	Password string
	Database string
	PoolSize int32
}

func (c Config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?pool_max_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Database, c.poolSizeOrDefault())
}

func (c Config) poolSizeOrDefault() int32 {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return 10
}

// New dials PostgreSQL, retrying with exponential backoff up to
// connectRetries times before giving up.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var lastErr error
	for attempt := 0; attempt < connectRetries; attempt++ {
		pool, err := pgxpool.New(ctx, cfg.dsn())
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				return &Store{pool: pool}, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}
		lastErr = err
		if attempt < connectRetries-1 {
			delay := connectBaseDelay * time.Duration(math.Pow(2, float64(attempt+1)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", connectRetries, lastErr)
}

// HealthCheck verifies the pool can still reach the server.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// sanitizeString strips embedded NUL bytes, which Postgres text
// columns reject outright; on-chain name/symbol strings occasionally
// carry them from malformed ERC-20 metadata.
func sanitizeString(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}
