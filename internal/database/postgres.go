package database

import (
	"context"
	"fmt"

	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectPostgres opens a pgx pool for cfg.URL, retrying according to
// cfg.ConnRetries and cfg.RetryDelay. Caller owns the pool and must Close it.
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	var pool *pgxpool.Pool
	err = withRetry(ctx, "postgres", cfg.ConnRetries, cfg.RetryDelay, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("connected to postgres (max_conns=%d)", poolCfg.MaxConns)
	return pool, nil
}
