// Package stream manages live-stream sessions, their audience counters and
// analytics.
package stream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/stream"
	"go.uber.org/zap"
)

var errStreamNotFound = shared.ErrNotFound.WithMessage("Stream not found")

// Metrics receives stream counters. telemetry.Metrics implements it.
type Metrics interface {
	StreamJoined()
	LiveStreamDelta(delta int)
}

type noopMetrics struct{}

func (noopMetrics) StreamJoined()       {}
func (noopMetrics) LiveStreamDelta(int) {}

// Actor is the authenticated caller
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Service handles stream operations
type Service struct {
	repo    stream.Repository
	tracker stream.ViewerTracker
	uploads *upload.Service
	events  shared.EventPublisher
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new stream service. metrics may be nil.
func NewService(
	repo stream.Repository,
	tracker stream.ViewerTracker,
	uploads *upload.Service,
	events shared.EventPublisher,
	metrics Metrics,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		repo:    repo,
		tracker: tracker,
		uploads: uploads,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateStream schedules a new stream for streamerID
func (s *Service) CreateStream(ctx context.Context, streamerID uuid.UUID, input CreateStreamInput) (*StreamDTO, error) {
	st, err := stream.NewStream(streamerID, input.Title, input.Description, input.Category, input.ScheduledFor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("Stream created",
		zap.String("stream_id", st.ID.String()),
		zap.String("streamer_id", streamerID.String()))
	dto := ToStreamDTO(st, streamerID)
	return &dto, nil
}

// UpdateStream edits the details of a stream owned by streamerID
func (s *Service) UpdateStream(ctx context.Context, streamerID, id uuid.UUID, input UpdateStreamInput) (*StreamDTO, error) {
	st, err := s.findOwned(ctx, Actor{UserID: streamerID}, id)
	if err != nil {
		return nil, err
	}
	if err := st.Update(stream.StreamUpdate{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		ScheduledFor: input.ScheduledFor,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	dto := ToStreamDTO(st, streamerID)
	return &dto, nil
}

// RegenerateStreamKey issues a new stream key
func (s *Service) RegenerateStreamKey(ctx context.Context, streamerID, id uuid.UUID) (*StreamDTO, error) {
	st, err := s.findOwned(ctx, Actor{UserID: streamerID}, id)
	if err != nil {
		return nil, err
	}
	if err := st.RegenerateStreamKey(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	dto := ToStreamDTO(st, streamerID)
	return &dto, nil
}

// CreateThumbnailUpload returns a presigned upload for a stream thumbnail
func (s *Service) CreateThumbnailUpload(ctx context.Context, streamerID, id uuid.UUID, contentType string) (*upload.Ticket, error) {
	st, err := s.findOwned(ctx, Actor{UserID: streamerID}, id)
	if err != nil {
		return nil, err
	}
	return s.uploads.CreateUpload(ctx, upload.ScopeThumbnail, st.ID, contentType)
}

// SetThumbnail stores an uploaded thumbnail and removes the previous one
func (s *Service) SetThumbnail(ctx context.Context, streamerID, id uuid.UUID, key string) (*StreamDTO, error) {
	st, err := s.findOwned(ctx, Actor{UserID: streamerID}, id)
	if err != nil {
		return nil, err
	}
	url, err := s.uploads.Confirm(ctx, upload.ScopeThumbnail, st.ID, key)
	if err != nil {
		return nil, err
	}
	previous := st.ThumbnailURL
	st.SetThumbnail(url)
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	if previous != "" && previous != url {
		if err := s.uploads.Discard(ctx, previous); err != nil {
			s.logger.Warn("Failed to delete previous thumbnail",
				zap.String("stream_id", st.ID.String()),
				zap.Error(err))
		}
	}
	dto := ToStreamDTO(st, streamerID)
	return &dto, nil
}

// StartStream puts a scheduled stream on air. A streamer has at most one live stream.
func (s *Service) StartStream(ctx context.Context, streamerID, id uuid.UUID) (*StreamDTO, error) {
	st, err := s.findOwned(ctx, Actor{UserID: streamerID}, id)
	if err != nil {
		return nil, err
	}
	live, err := s.repo.FindLiveByStreamer(ctx, streamerID)
	switch {
	case err == nil && live.ID != st.ID:
		return nil, stream.ErrAlreadyLive.WithDetails(map[string]any{"stream_id": live.ID})
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if err := st.Start(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	if err := s.tracker.Reset(ctx, st.ID); err != nil {
		s.logger.Warn("Failed to reset viewer tracker", zap.String("stream_id", st.ID.String()), zap.Error(err))
	}
	s.metrics.LiveStreamDelta(1)

	s.logger.Info("Stream started",
		zap.String("stream_id", st.ID.String()),
		zap.String("streamer_id", streamerID.String()))
	s.publish(ctx, st)
	dto := ToStreamDTO(st, streamerID)
	return &dto, nil
}

// EndStream takes a live stream off air and freezes its counters.
// The streamer or an admin may end it.
func (s *Service) EndStream(ctx context.Context, actor Actor, id uuid.UUID) (*StreamDTO, error) {
	st, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.end(ctx, st); err != nil {
		return nil, err
	}
	dto := ToStreamDTO(st, actor.UserID)
	return &dto, nil
}

func (s *Service) end(ctx context.Context, st *stream.Stream) error {
	counts, err := s.tracker.Counts(ctx, st.ID)
	if err != nil {
		s.logger.Warn("Failed to read viewer counts, ending with stored counters",
			zap.String("stream_id", st.ID.String()),
			zap.Error(err))
		counts = stream.ViewerCounts{}
	}
	if err := st.End(s.now(), counts); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, st); err != nil {
		return err
	}
	if err := s.tracker.Reset(ctx, st.ID); err != nil {
		s.logger.Warn("Failed to clear viewer tracker", zap.String("stream_id", st.ID.String()), zap.Error(err))
	}
	s.metrics.LiveStreamDelta(-1)

	s.logger.Info("Stream ended",
		zap.String("stream_id", st.ID.String()),
		zap.Int64("peak_viewers", st.PeakViewers),
		zap.Int64("total_views", st.TotalViews))
	s.publish(ctx, st)
	return nil
}

// GetStream returns a stream; live streams carry the tracker's audience size
func (s *Service) GetStream(ctx context.Context, viewerID, id uuid.UUID) (*StreamDTO, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.IsLive() {
		if counts, err := s.tracker.Counts(ctx, st.ID); err == nil {
			st.ApplyViewerCounts(counts, false)
		}
	}
	dto := ToStreamDTO(st, viewerID)
	return &dto, nil
}

// ListStreams returns streams matching filter
func (s *Service) ListStreams(ctx context.Context, viewerID uuid.UUID, filter stream.Filter) ([]StreamDTO, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, shared.ErrInvalidInput.WithMessage("Unknown stream status")
	}
	streams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]StreamDTO, len(streams))
	for i, st := range streams {
		out[i] = ToStreamDTO(st, viewerID)
	}
	return out, total, nil
}

// ListUserStreams returns the streams of streamerID
func (s *Service) ListUserStreams(ctx context.Context, viewerID, streamerID uuid.UUID, filter stream.Filter) ([]StreamDTO, int64, error) {
	filter.StreamerID = &streamerID
	return s.ListStreams(ctx, viewerID, filter)
}

// JoinStream adds viewerID to the live audience. Every join counts as a view;
// the viewer set keeps the current audience free of duplicates.
func (s *Service) JoinStream(ctx context.Context, viewerID, id uuid.UUID) (*ViewerState, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.CanBeWatched(); err != nil {
		return nil, err
	}
	counts, err := s.tracker.Join(ctx, st.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RecordJoin(ctx, st.ID, counts); err != nil {
		return nil, err
	}
	s.metrics.StreamJoined()
	return &ViewerState{
		StreamID:       st.ID,
		Watching:       true,
		CurrentViewers: counts.Current,
		UniqueViewers:  counts.Unique,
	}, nil
}

// LeaveStream removes viewerID from the audience. Leaving twice is not an error.
func (s *Service) LeaveStream(ctx context.Context, viewerID, id uuid.UUID) (*ViewerState, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.IsLive() {
		return &ViewerState{StreamID: st.ID, CurrentViewers: 0, UniqueViewers: st.UniqueViewers}, nil
	}
	counts, err := s.tracker.Leave(ctx, st.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RecordLeave(ctx, st.ID, counts); err != nil {
		return nil, err
	}
	return &ViewerState{
		StreamID:       st.ID,
		CurrentViewers: counts.Current,
		UniqueViewers:  counts.Unique,
	}, nil
}

// LikeStream adds a like to a live stream
func (s *Service) LikeStream(ctx context.Context, viewerID, id uuid.UUID) (*LikeResult, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.CanBeWatched(); err != nil {
		return nil, shared.ErrInvalidState.WithMessage("Only live streams can be liked")
	}
	likes, err := s.repo.IncrementLikes(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Stream liked",
		zap.String("stream_id", st.ID.String()),
		zap.String("viewer_id", viewerID.String()))
	return &LikeResult{StreamID: st.ID, LikeCount: likes}, nil
}

// GetAnalytics returns the counters of a stream to its streamer or an admin
func (s *Service) GetAnalytics(ctx context.Context, actor Actor, id uuid.UUID) (*stream.Analytics, error) {
	st, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if st.IsLive() {
		counts, err := s.tracker.Counts(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		st.ApplyViewerCounts(counts, false)
	}
	analytics := st.Analytics(s.now())
	return &analytics, nil
}

// CloseStaleStreams ends live streams that have been on air longer than
// maxDuration and returns how many were ended
func (s *Service) CloseStaleStreams(ctx context.Context, maxDuration time.Duration, batchSize int) (int, error) {
	streams, err := s.repo.ListLiveStartedBefore(ctx, s.now().Add(-maxDuration), batchSize)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, st := range streams {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		if err := s.end(ctx, st); err != nil {
			if !errors.Is(err, shared.ErrConcurrencyConflict) && !errors.Is(err, shared.ErrInvalidState) {
				s.logger.Error("Failed to end stale stream",
					zap.String("stream_id", st.ID.String()),
					zap.Error(err))
			}
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *Service) publish(ctx context.Context, st *stream.Stream) {
	events := st.PullDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish stream events", zap.Error(err))
	}
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*stream.Stream, error) {
	st, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errStreamNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) findOwned(ctx context.Context, actor Actor, id uuid.UUID) (*stream.Stream, error) {
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !st.IsOwnedBy(actor.UserID) {
		return nil, shared.ErrForbidden.WithMessage("Only the streamer can manage this stream")
	}
	return st, nil
}
