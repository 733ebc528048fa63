package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/stream"
	"github.com/redis/go-redis/v9"
)

// RedisViewerTracker keeps the live viewer set of each stream in a Redis SET
// and approximates unique viewers with a HyperLogLog
type RedisViewerTracker struct {
	client redis.UniversalClient
}

// NewRedisViewerTracker creates a tracker on an existing Redis client
func NewRedisViewerTracker(client redis.UniversalClient) *RedisViewerTracker {
	return &RedisViewerTracker{client: client}
}

func viewersKey(streamID uuid.UUID) string {
	return "stream:viewers:" + streamID.String()
}

func uniqueKey(streamID uuid.UUID) string {
	return "stream:unique:" + streamID.String()
}

// Join adds the viewer to the live set and the unique counter
func (t *RedisViewerTracker) Join(ctx context.Context, streamID, viewerID uuid.UUID) (stream.ViewerCounts, error) {
	member := viewerID.String()

	pipe := t.client.TxPipeline()
	pipe.SAdd(ctx, viewersKey(streamID), member)
	pipe.PFAdd(ctx, uniqueKey(streamID), member)
	current := pipe.SCard(ctx, viewersKey(streamID))
	unique := pipe.PFCount(ctx, uniqueKey(streamID))
	if _, err := pipe.Exec(ctx); err != nil {
		return stream.ViewerCounts{}, fmt.Errorf("failed to record stream viewer: %w", err)
	}

	return stream.ViewerCounts{Current: current.Val(), Unique: unique.Val()}, nil
}

// Leave removes the viewer from the live set
func (t *RedisViewerTracker) Leave(ctx context.Context, streamID, viewerID uuid.UUID) (stream.ViewerCounts, error) {
	pipe := t.client.TxPipeline()
	pipe.SRem(ctx, viewersKey(streamID), viewerID.String())
	current := pipe.SCard(ctx, viewersKey(streamID))
	unique := pipe.PFCount(ctx, uniqueKey(streamID))
	if _, err := pipe.Exec(ctx); err != nil {
		return stream.ViewerCounts{}, fmt.Errorf("failed to remove stream viewer: %w", err)
	}

	return stream.ViewerCounts{Current: current.Val(), Unique: unique.Val()}, nil
}

// Counts returns the current and unique viewer counts
func (t *RedisViewerTracker) Counts(ctx context.Context, streamID uuid.UUID) (stream.ViewerCounts, error) {
	pipe := t.client.Pipeline()
	current := pipe.SCard(ctx, viewersKey(streamID))
	unique := pipe.PFCount(ctx, uniqueKey(streamID))
	if _, err := pipe.Exec(ctx); err != nil {
		return stream.ViewerCounts{}, fmt.Errorf("failed to read stream viewers: %w", err)
	}
	return stream.ViewerCounts{Current: current.Val(), Unique: unique.Val()}, nil
}

// IsWatching reports whether the viewer is in the live set
func (t *RedisViewerTracker) IsWatching(ctx context.Context, streamID, viewerID uuid.UUID) (bool, error) {
	ok, err := t.client.SIsMember(ctx, viewersKey(streamID), viewerID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check stream viewer: %w", err)
	}
	return ok, nil
}

// Reset drops all tracker state of the stream
func (t *RedisViewerTracker) Reset(ctx context.Context, streamID uuid.UUID) error {
	if err := t.client.Del(ctx, viewersKey(streamID), uniqueKey(streamID)).Err(); err != nil {
		return fmt.Errorf("failed to reset stream viewers: %w", err)
	}
	return nil
}

var _ stream.ViewerTracker = (*RedisViewerTracker)(nil)
