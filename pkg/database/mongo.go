package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zenarog/zenarog-engine/pkg/config"
	"github.com/zenarog/zenarog-engine/pkg/retry"
)

// NewMongoDatabase connects to MongoDB and returns the configured database.
// The caller disconnects the returned client on shutdown.
func NewMongoDatabase(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().
		ApplyURI(config.ResolveURIForDocker(cfg.URI)).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := retry.Do(ctx, retry.StartupConfig(), func() error {
		return client.Ping(ctx, nil)
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
