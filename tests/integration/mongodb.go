package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/persistence/mongodb"
	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const mongoImage = "mongo:7"

var (
	sharedMongo    *tcmongodb.MongoDBContainer
	sharedMongoMu  sync.Mutex
	sharedMongoURI string
)

// NewMongoTestDB returns a fresh database with the chat indexes on a MongoDB
// container shared by the package. The database is dropped after the test.
func NewMongoTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	sharedMongoMu.Lock()
	if sharedMongo == nil {
		container, err := tcmongodb.Run(ctx, mongoImage)
		if err != nil {
			sharedMongoMu.Unlock()
			require.NoError(t, err, "Failed to start MongoDB container")
		}
		uri, err := container.ConnectionString(ctx)
		if err != nil {
			sharedMongoMu.Unlock()
			require.NoError(t, err, "Failed to get MongoDB connection string")
		}
		sharedMongo = container
		sharedMongoURI = uri
	}
	uri := sharedMongoURI
	sharedMongoMu.Unlock()

	name := "playhub_" + uuid.NewString()[:8]
	client, err := mongodb.Connect(ctx, config.ChatConfig{Store: "mongo", MongoURI: uri, MongoDatabase: name}, zap.NewNop())
	require.NoError(t, err, "Failed to connect to MongoDB")

	db := client.Database(name)
	require.NoError(t, mongodb.EnsureIndexes(ctx, db), "Failed to create indexes")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// CleanupSharedMongoContainer terminates the shared MongoDB container; call it from TestMain
func CleanupSharedMongoContainer() {
	sharedMongoMu.Lock()
	defer sharedMongoMu.Unlock()

	if sharedMongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedMongo.Terminate(ctx)
		sharedMongo = nil
		sharedMongoURI = ""
	}
}
