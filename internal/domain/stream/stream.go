package stream

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// AggregateTypeStream is the aggregate type name used in domain events
const AggregateTypeStream = "Stream"

// Status represents the lifecycle of a stream session
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusEnded     Status = "ended"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	return s == StatusScheduled || s == StatusLive || s == StatusEnded
}

// ErrAlreadyLive is returned when a streamer tries to go live twice
var ErrAlreadyLive = shared.NewDomainError("ALREADY_LIVE", "You already have a live stream")

// Stream is one live-stream session and its viewer counters
type Stream struct {
	shared.BaseAggregateRoot
	StreamerID     uuid.UUID
	Title          string
	Description    string
	Category       string
	ThumbnailURL   string
	StreamKey      string
	Status         Status
	ScheduledFor   *time.Time
	StartedAt      *time.Time
	EndedAt        *time.Time
	CurrentViewers int64
	PeakViewers    int64
	TotalViews     int64
	UniqueViewers  int64
	LikeCount      int64
}

// NewStream creates a scheduled stream with a fresh stream key
func NewStream(streamerID uuid.UUID, title, description, category string, scheduledFor *time.Time) (*Stream, error) {
	if streamerID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Streamer is required")
	}
	s := &Stream{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StreamerID:        streamerID,
		Status:            StatusScheduled,
		StreamKey:         GenerateStreamKey(),
	}
	if err := s.setDetails(title, description, category); err != nil {
		return nil, err
	}
	if scheduledFor != nil {
		if scheduledFor.Before(time.Now().Add(-time.Minute)) {
			return nil, shared.ErrInvalidInput.WithMessage("Scheduled time cannot be in the past")
		}
		t := scheduledFor.UTC()
		s.ScheduledFor = &t
	}
	return s, nil
}

// GenerateStreamKey returns a random secret used by broadcasting software
func GenerateStreamKey() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "live_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return "live_" + hex.EncodeToString(buf)
}

// StreamUpdate carries optional changes; nil fields are left unchanged
type StreamUpdate struct {
	Title        *string
	Description  *string
	Category     *string
	ScheduledFor *time.Time
}

// Update edits the stream details. Ended streams are read-only.
func (s *Stream) Update(upd StreamUpdate) error {
	if s.Status == StatusEnded {
		return shared.ErrInvalidState.WithMessage("Ended streams cannot be edited")
	}
	title, desc, cat := s.Title, s.Description, s.Category
	if upd.Title != nil {
		title = *upd.Title
	}
	if upd.Description != nil {
		desc = *upd.Description
	}
	if upd.Category != nil {
		cat = *upd.Category
	}
	if err := s.setDetails(title, desc, cat); err != nil {
		return err
	}
	if upd.ScheduledFor != nil && s.Status == StatusScheduled {
		t := upd.ScheduledFor.UTC()
		s.ScheduledFor = &t
	}
	s.Touch()
	s.IncrementVersion()
	return nil
}

// SetThumbnail stores the public thumbnail URL
func (s *Stream) SetThumbnail(url string) {
	s.ThumbnailURL = url
	s.Touch()
	s.IncrementVersion()
}

// RegenerateStreamKey replaces the stream key
func (s *Stream) RegenerateStreamKey() error {
	if s.Status == StatusEnded {
		return shared.ErrInvalidState.WithMessage("Ended streams have no stream key")
	}
	s.StreamKey = GenerateStreamKey()
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Start moves a scheduled stream to live
func (s *Stream) Start(now time.Time) error {
	if s.Status != StatusScheduled {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot start a stream in %s status", s.Status))
	}
	s.Status = StatusLive
	s.StartedAt = &now
	s.CurrentViewers = 0
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewStreamStartedEvent(s))
	return nil
}

// End moves a live stream to ended and freezes its counters
func (s *Stream) End(now time.Time, counts ViewerCounts) error {
	if s.Status != StatusLive {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot end a stream in %s status", s.Status))
	}
	if counts.Unique > s.UniqueViewers {
		s.UniqueViewers = counts.Unique
	}
	if counts.Current > s.PeakViewers {
		s.PeakViewers = counts.Current
	}
	s.Status = StatusEnded
	s.EndedAt = &now
	s.CurrentViewers = 0
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewStreamEndedEvent(s))
	return nil
}

// CanBeWatched returns an error unless viewers can join
func (s *Stream) CanBeWatched() error {
	if s.Status != StatusLive {
		return shared.ErrInvalidState.WithMessage("Stream is not live")
	}
	return nil
}

// ApplyViewerCounts mirrors tracker counts into the record; joined adds one view
func (s *Stream) ApplyViewerCounts(counts ViewerCounts, joined bool) {
	if joined {
		s.TotalViews++
	}
	s.CurrentViewers = max(counts.Current, 0)
	if counts.Unique > s.UniqueViewers {
		s.UniqueViewers = counts.Unique
	}
	if s.CurrentViewers > s.PeakViewers {
		s.PeakViewers = s.CurrentViewers
	}
}

// IsLive reports whether the stream is on air
func (s *Stream) IsLive() bool {
	return s.Status == StatusLive
}

// IsOwnedBy reports whether userID is the streamer
func (s *Stream) IsOwnedBy(userID uuid.UUID) bool {
	return s.StreamerID == userID
}

// Duration is the time spent live; running streams are measured up to now
func (s *Stream) Duration(now time.Time) time.Duration {
	if s.StartedAt == nil {
		return 0
	}
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(*s.StartedAt) {
		return 0
	}
	return end.Sub(*s.StartedAt)
}

// Analytics is the owner's view of a stream's counters
type Analytics struct {
	StreamID        uuid.UUID  `json:"stream_id"`
	Status          Status     `json:"status"`
	CurrentViewers  int64      `json:"current_viewers"`
	PeakViewers     int64      `json:"peak_viewers"`
	TotalViews      int64      `json:"total_views"`
	UniqueViewers   int64      `json:"unique_viewers"`
	LikeCount       int64      `json:"like_count"`
	DurationSeconds int64      `json:"duration_seconds"`
	ViewsPerMinute  float64    `json:"views_per_minute"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// Analytics computes the stream analytics at now
func (s *Stream) Analytics(now time.Time) Analytics {
	d := s.Duration(now)
	a := Analytics{
		StreamID:        s.ID,
		Status:          s.Status,
		CurrentViewers:  s.CurrentViewers,
		PeakViewers:     s.PeakViewers,
		TotalViews:      s.TotalViews,
		UniqueViewers:   s.UniqueViewers,
		LikeCount:       s.LikeCount,
		DurationSeconds: int64(d / time.Second),
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
	if minutes := d.Minutes(); minutes >= 1 {
		a.ViewsPerMinute = float64(s.TotalViews) / minutes
	} else {
		a.ViewsPerMinute = float64(s.TotalViews)
	}
	return a
}

func (s *Stream) setDetails(title, description, category string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	category = strings.ToLower(strings.TrimSpace(category))
	if n := utf8.RuneCountInString(title); n < 1 || n > 140 {
		return shared.NewDomainError("INVALID_STREAM_TITLE", "Title must be 1 to 140 characters")
	}
	if utf8.RuneCountInString(description) > 2000 {
		return shared.NewDomainError("INVALID_STREAM_DESCRIPTION", "Description cannot exceed 2000 characters")
	}
	if utf8.RuneCountInString(category) > 50 {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 50 characters")
	}
	s.Title, s.Description, s.Category = title, description, category
	return nil
}
