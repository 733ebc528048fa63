package stream

import (
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStreamStarted = "StreamStarted"
	EventTypeStreamEnded   = "StreamEnded"
)

// StreamStartedEvent is published when a stream goes live
type StreamStartedEvent struct {
	shared.BaseDomainEvent
	StreamID   uuid.UUID `json:"stream_id"`
	StreamerID uuid.UUID `json:"streamer_id"`
	Title      string    `json:"title"`
}

// NewStreamStartedEvent creates a new StreamStartedEvent
func NewStreamStartedEvent(s *Stream) *StreamStartedEvent {
	return &StreamStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStreamStarted, AggregateTypeStream, s.ID),
		StreamID:        s.ID,
		StreamerID:      s.StreamerID,
		Title:           s.Title,
	}
}

// StreamEndedEvent is published when a stream goes off air
type StreamEndedEvent struct {
	shared.BaseDomainEvent
	StreamID      uuid.UUID `json:"stream_id"`
	StreamerID    uuid.UUID `json:"streamer_id"`
	PeakViewers   int64     `json:"peak_viewers"`
	TotalViews    int64     `json:"total_views"`
	UniqueViewers int64     `json:"unique_viewers"`
}

// NewStreamEndedEvent creates a new StreamEndedEvent
func NewStreamEndedEvent(s *Stream) *StreamEndedEvent {
	return &StreamEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStreamEnded, AggregateTypeStream, s.ID),
		StreamID:        s.ID,
		StreamerID:      s.StreamerID,
		PeakViewers:     s.PeakViewers,
		TotalViews:      s.TotalViews,
		UniqueViewers:   s.UniqueViewers,
	}
}
