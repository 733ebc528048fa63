package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/stream"
)

// StreamModel is the persistence model for the Stream aggregate.
type StreamModel struct {
	AggregateModel
	StreamerID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	Title          string        `gorm:"type:varchar(140);not null"`
	Description    string        `gorm:"type:text"`
	Category       string        `gorm:"type:varchar(50);index"`
	ThumbnailURL   string        `gorm:"type:varchar(500)"`
	StreamKey      string        `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status         stream.Status `gorm:"type:varchar(20);not null;index"`
	ScheduledFor   *time.Time
	StartedAt      *time.Time `gorm:"index"`
	EndedAt        *time.Time
	CurrentViewers int64 `gorm:"not null;default:0"`
	PeakViewers    int64 `gorm:"not null;default:0"`
	TotalViews     int64 `gorm:"not null;default:0"`
	UniqueViewers  int64 `gorm:"not null;default:0"`
	LikeCount      int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StreamModel) TableName() string {
	return "streams"
}

// ToDomain converts the persistence model to a domain Stream.
func (m *StreamModel) ToDomain() *stream.Stream {
	return &stream.Stream{
		BaseAggregateRoot: m.ToAggregateRoot(),
		StreamerID:        m.StreamerID,
		Title:             m.Title,
		Description:       m.Description,
		Category:          m.Category,
		ThumbnailURL:      m.ThumbnailURL,
		StreamKey:         m.StreamKey,
		Status:            m.Status,
		ScheduledFor:      m.ScheduledFor,
		StartedAt:         m.StartedAt,
		EndedAt:           m.EndedAt,
		CurrentViewers:    m.CurrentViewers,
		PeakViewers:       m.PeakViewers,
		TotalViews:        m.TotalViews,
		UniqueViewers:     m.UniqueViewers,
		LikeCount:         m.LikeCount,
	}
}

// StreamModelFromDomain creates a new persistence model from a domain Stream.
func StreamModelFromDomain(s *stream.Stream) *StreamModel {
	m := &StreamModel{
		StreamerID:     s.StreamerID,
		Title:          s.Title,
		Description:    s.Description,
		Category:       s.Category,
		ThumbnailURL:   s.ThumbnailURL,
		StreamKey:      s.StreamKey,
		Status:         s.Status,
		ScheduledFor:   s.ScheduledFor,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		CurrentViewers: s.CurrentViewers,
		PeakViewers:    s.PeakViewers,
		TotalViews:     s.TotalViews,
		UniqueViewers:  s.UniqueViewers,
		LikeCount:      s.LikeCount,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
