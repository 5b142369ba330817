package database

import (
	"context"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectMongoWithRetry wraps ConnectMongo with the same retry policy used
// for postgres. Transactions need a replica set; a standalone server connects
// but every credential upsert will fail.
func ConnectMongoWithRetry(ctx context.Context, mcfg config.MongoDBConfig, dcfg config.DatabaseConfig) (*mongo.Client, error) {
	timeout := mcfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var client *mongo.Client
	err := withRetry(ctx, "mongodb", dcfg.ConnRetries, dcfg.RetryDelay, func(ctx context.Context) error {
		c, err := ConnectMongo(ctx, mcfg.URI, timeout)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
