package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chefdigital/chef/internal/utils"
)

// NewPool opens a traced connection pool for databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	config.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())

	return pgxpool.NewWithConfig(ctx, config)
}

// Connect opens a pool and waits until Postgres answers a ping, retrying while
// the database is still coming up.
func Connect(ctx context.Context, databaseURL string, retry utils.RetryConfig) (*pgxpool.Pool, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	attempt := 0
	_, err = utils.WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		attempt++
		err := pool.Ping(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Database not ready", "attempt", attempt, "error", err)
		}
		return struct{}{}, err
	}, retry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
	}
	return pool, nil
}
