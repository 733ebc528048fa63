package stream

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// Filter filters stream listings
type Filter struct {
	shared.Filter
	Status     Status
	Category   string
	StreamerID *uuid.UUID
}

// Repository defines the interface for stream persistence
type Repository interface {
	Create(ctx context.Context, stream *Stream) error

	// Update saves the stream with an optimistic version check
	Update(ctx context.Context, stream *Stream) error

	FindByID(ctx context.Context, id uuid.UUID) (*Stream, error)

	// FindLiveByStreamer returns the streamer's live stream or shared.ErrNotFound
	FindLiveByStreamer(ctx context.Context, streamerID uuid.UUID) (*Stream, error)

	List(ctx context.Context, filter Filter) ([]*Stream, int64, error)

	// RecordJoin adds one view and stores the tracker counts, raising the peak atomically
	RecordJoin(ctx context.Context, id uuid.UUID, counts ViewerCounts) error

	// RecordLeave stores the current viewer count after a viewer left
	RecordLeave(ctx context.Context, id uuid.UUID, counts ViewerCounts) error

	// IncrementLikes adds one like to a live stream and returns the new total
	IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error)

	// ListLiveStartedBefore returns live streams started before cutoff
	ListLiveStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Stream, error)
}
