// Package mongodb stores chat conversations and messages in MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/playhub/backend/internal/infrastructure/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

// Connect opens a client for cfg.MongoURI and pings the primary
func Connect(ctx context.Context, cfg config.ChatConfig, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("playhub").
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("MongoDB connected", zap.String("database", cfg.MongoDatabase))
	return client, nil
}

// EnsureIndexes creates the indexes the chat repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(conversationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bsonD("pair_key", 1),
			Options: options.Index().SetUnique(true).SetName("uniq_pair_key"),
		},
		{
			Keys:    bsonD("participant_ids", 1, "activity_at", -1),
			Options: options.Index().SetName("idx_participant_activity"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	_, err = db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bsonD("conversation_id", 1, "created_at", -1, "_id", -1),
		Options: options.Index().SetName("idx_conversation_created"),
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}
