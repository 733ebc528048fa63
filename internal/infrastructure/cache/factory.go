package cache

import (
	"time"

	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/stream"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed stores when a client is available and
// falls back to in-memory implementations otherwise
type Factory struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a factory. client may be nil.
func NewFactory(client redis.UniversalClient, opts ...FactoryOption) *Factory {
	f := &Factory{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UsesRedis reports whether stores are shared through Redis
func (f *Factory) UsesRedis() bool {
	return f.client != nil
}

// IdempotencyStore returns a store namespaced by prefix
func (f *Factory) IdempotencyStore(prefix string) shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, prefix)
	}
	f.logger.Warn("Redis not configured, using in-memory idempotency store; keys are not shared across instances",
		zap.String("prefix", prefix))
	return NewInMemoryIdempotencyStore(5 * time.Minute)
}

// ViewerTracker returns the stream viewer tracker
func (f *Factory) ViewerTracker() stream.ViewerTracker {
	if f.client != nil {
		return NewRedisViewerTracker(f.client)
	}
	f.logger.Warn("Redis not configured, using in-memory stream viewer tracker")
	return NewInMemoryViewerTracker()
}

// TokenBlacklist returns the JWT blacklist
func (f *Factory) TokenBlacklist() auth.TokenBlacklist {
	if f.client != nil {
		return auth.NewRedisTokenBlacklist(f.client)
	}
	f.logger.Warn("Redis not configured, using in-memory token blacklist")
	return auth.NewInMemoryTokenBlacklist()
}
