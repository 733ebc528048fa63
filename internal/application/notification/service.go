// Package notification stores user notifications and creates them from
// domain events.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/notification"
	"github.com/playhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var errNotificationNotFound = shared.ErrNotFound.WithMessage("Notification not found")

// Pusher delivers a fresh notification to the recipient's open connections.
// The realtime hub implements it.
type Pusher interface {
	PushNotification(ctx context.Context, recipientID uuid.UUID, n NotificationDTO)
}

// Presence reports whether a user has an open connection
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

// Metrics counts created notifications. telemetry.Metrics implements it.
type Metrics interface {
	NotificationCreated(kind string, n int)
}

type noopMetrics struct{}

func (noopMetrics) NotificationCreated(string, int) {}

// Service manages notifications
type Service struct {
	repo    notification.Repository
	pusher  Pusher
	metrics Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new notification service
func NewService(repo notification.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: noopMetrics{},
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithPusher sets the realtime pusher
func (s *Service) WithPusher(p Pusher) *Service {
	s.pusher = p
	return s
}

// WithMetrics sets the metrics sink
func (s *Service) WithMetrics(m Metrics) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// List returns the caller's notifications, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter notification.Filter) ([]NotificationDTO, int64, error) {
	list, total, err := s.repo.ListByRecipient(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]NotificationDTO, len(list))
	for i, n := range list {
		out[i] = ToNotificationDTO(n)
	}
	return out, total, nil
}

// UnreadCount counts the caller's unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read. Repeating it is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*NotificationDTO, error) {
	n, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.IsRead() {
		now := s.now()
		if err := s.repo.MarkRead(ctx, n.ID, now); err != nil {
			return nil, err
		}
		n.MarkRead(now)
	}
	dto := ToNotificationDTO(n)
	return &dto, nil
}

// MarkAllRead marks every unread notification of the caller and returns how many changed
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

// Delete removes one of the caller's notifications
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, n.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errNotificationNotFound
		}
		return err
	}
	return nil
}

// Notify stores notifications built from inputs and pushes them to online
// recipients. Invalid inputs are skipped with a warning.
func (s *Service) Notify(ctx context.Context, inputs ...notification.Input) error {
	batch := make([]*notification.Notification, 0, len(inputs))
	for _, in := range inputs {
		n, err := notification.New(in)
		if err != nil {
			s.logger.Warn("Skipping invalid notification",
				zap.String("type", string(in.Type)),
				zap.String("recipient_id", in.RecipientID.String()),
				zap.Error(err))
			continue
		}
		batch = append(batch, n)
	}
	switch len(batch) {
	case 0:
		return nil
	case 1:
		if err := s.repo.Create(ctx, batch[0]); err != nil {
			return err
		}
	default:
		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			return err
		}
	}

	counts := make(map[notification.Type]int)
	for _, n := range batch {
		counts[n.Type]++
		if s.pusher != nil {
			s.pusher.PushNotification(ctx, n.RecipientID, ToNotificationDTO(n))
		}
	}
	for kind, n := range counts {
		s.metrics.NotificationCreated(string(kind), n)
	}
	return nil
}

// PurgeRead deletes read notifications older than retention
func (s *Service) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteReadBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Purged read notifications", zap.Int64("count", deleted))
	}
	return deleted, nil
}

func (s *Service) findOwned(ctx context.Context, userID, id uuid.UUID) (*notification.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errNotificationNotFound
		}
		return nil, err
	}
	if n.RecipientID != userID {
		return nil, errNotificationNotFound
	}
	return n, nil
}
