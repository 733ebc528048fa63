package stream

import (
	"context"

	"github.com/google/uuid"
)

// ViewerCounts is a snapshot of a live stream's audience
type ViewerCounts struct {
	Current int64 `json:"current"`
	Unique  int64 `json:"unique"`
}

// ViewerTracker keeps the set of viewers currently watching each live stream.
// Joining twice is a no-op for Current; Unique counts every viewer ever seen.
type ViewerTracker interface {
	Join(ctx context.Context, streamID, viewerID uuid.UUID) (ViewerCounts, error)
	Leave(ctx context.Context, streamID, viewerID uuid.UUID) (ViewerCounts, error)
	Counts(ctx context.Context, streamID uuid.UUID) (ViewerCounts, error)
	IsWatching(ctx context.Context, streamID, viewerID uuid.UUID) (bool, error)

	// Reset drops all state of a stream once it has ended
	Reset(ctx context.Context, streamID uuid.UUID) error
}
