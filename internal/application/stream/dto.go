package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/stream"
)

// StreamDTO is the API view of a stream. StreamKey is only set for the streamer.
type StreamDTO struct {
	ID             uuid.UUID  `json:"id"`
	StreamerID     uuid.UUID  `json:"streamer_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	ThumbnailURL   string     `json:"thumbnail_url"`
	StreamKey      string     `json:"stream_key,omitempty"`
	Status         string     `json:"status"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CurrentViewers int64      `json:"current_viewers"`
	PeakViewers    int64      `json:"peak_viewers"`
	TotalViews     int64      `json:"total_views"`
	UniqueViewers  int64      `json:"unique_viewers"`
	LikeCount      int64      `json:"like_count"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToStreamDTO converts a stream for viewerID, hiding the stream key from everyone else
func ToStreamDTO(s *stream.Stream, viewerID uuid.UUID) StreamDTO {
	dto := StreamDTO{
		ID:             s.ID,
		StreamerID:     s.StreamerID,
		Title:          s.Title,
		Description:    s.Description,
		Category:       s.Category,
		ThumbnailURL:   s.ThumbnailURL,
		Status:         string(s.Status),
		ScheduledFor:   s.ScheduledFor,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		CurrentViewers: s.CurrentViewers,
		PeakViewers:    s.PeakViewers,
		TotalViews:     s.TotalViews,
		UniqueViewers:  s.UniqueViewers,
		LikeCount:      s.LikeCount,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if viewerID != uuid.Nil && s.IsOwnedBy(viewerID) {
		dto.StreamKey = s.StreamKey
	}
	return dto
}

// CreateStreamInput carries the fields of a new stream
type CreateStreamInput struct {
	Title        string
	Description  string
	Category     string
	ScheduledFor *time.Time
}

// UpdateStreamInput carries optional stream changes
type UpdateStreamInput struct {
	Title        *string
	Description  *string
	Category     *string
	ScheduledFor *time.Time
}

// ViewerState is returned by join and leave
type ViewerState struct {
	StreamID       uuid.UUID `json:"stream_id"`
	Watching       bool      `json:"watching"`
	CurrentViewers int64     `json:"current_viewers"`
	UniqueViewers  int64     `json:"unique_viewers"`
}

// LikeResult is returned by LikeStream
type LikeResult struct {
	StreamID  uuid.UUID `json:"stream_id"`
	LikeCount int64     `json:"like_count"`
}
