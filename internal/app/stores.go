// Package app assembles the persistence layer shared by the API server and
// the worker-only process.
package app

import (
	"context"
	"fmt"

	"github.com/insightboard/insightboard/internal/accounts"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/database"
	"github.com/insightboard/insightboard/internal/metricscache"
	"github.com/insightboard/insightboard/pkg/logger"
)

// Stores is the persistence layer selected by STORE_DRIVER. One pool (or
// one Mongo client) backs both repositories.
type Stores struct {
	Accounts accounts.Repository
	Metrics  metricscache.Repository
	Ping     func(ctx context.Context) error
	Close    func()
}

// OpenStores connects with the configured retry budget. An error here is
// meant to stop the process.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := database.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(cfg.Database.URL); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Stores{
			Accounts: accounts.NewPostgresRepository(pool),
			Metrics:  metricscache.NewPostgresRepository(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil

	case "mongo":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB, cfg.Database)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB.Database)
		acc := accounts.NewMongoRepository(client, db)
		met := metricscache.NewMongoRepository(db)
		if err := acc.EnsureIndexes(ctx); err != nil {
			logger.Warnf("failed to ensure user indexes: %v", err)
		}
		if err := met.EnsureIndexes(ctx); err != nil {
			logger.Warnf("failed to ensure metrics indexes: %v", err)
		}
		logger.Infof("connected to mongodb (database=%s)", cfg.MongoDB.Database)
		return &Stores{
			Accounts: acc,
			Metrics:  met,
			Ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close:    func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Database.Driver)
}
