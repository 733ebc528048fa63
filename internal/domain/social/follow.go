package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// AggregateTypeFollow is the aggregate type name used in domain events
const AggregateTypeFollow = "Follow"

// EventTypeUserFollowed is published when a follow edge is created
const EventTypeUserFollowed = "UserFollowed"

// Follow is a directed edge: FollowerID follows FolloweeID
type Follow struct {
	FollowerID uuid.UUID
	FolloweeID uuid.UUID
	CreatedAt  time.Time
}

// NewFollow creates a follow edge; a user cannot follow themselves
func NewFollow(followerID, followeeID uuid.UUID) (*Follow, error) {
	if followerID == uuid.Nil || followeeID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Follower and followee are required")
	}
	if followerID == followeeID {
		return nil, shared.ErrInvalidInput.WithMessage("You cannot follow yourself")
	}
	return &Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}, nil
}

// UserFollowedEvent is published after a new follow edge is stored
type UserFollowedEvent struct {
	shared.BaseDomainEvent
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
}

// NewUserFollowedEvent creates a new UserFollowedEvent
func NewUserFollowedEvent(f *Follow) *UserFollowedEvent {
	return &UserFollowedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserFollowed, AggregateTypeFollow, f.FolloweeID),
		FollowerID:      f.FollowerID,
		FolloweeID:      f.FolloweeID,
	}
}

// FollowRepository persists the follow graph together with the users' counters
type FollowRepository interface {
	// Create stores the edge and increments both counters in one transaction.
	// Returns false without error when the edge already exists.
	Create(ctx context.Context, follow *Follow) (bool, error)

	// Delete removes the edge and decrements both counters (never below zero).
	// Returns false without error when there was no edge.
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// FollowingSet returns which of candidates are followed by followerID
	FollowingSet(ctx context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error)

	// ListFollowers returns the edges pointing at userID, newest first
	ListFollowers(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Follow, int64, error)

	// ListFollowing returns the edges leaving userID, newest first
	ListFollowing(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Follow, int64, error)

	// FollowerIDsAfter pages through all follower ids of userID ordered by id
	FollowerIDsAfter(ctx context.Context, userID, after uuid.UUID, limit int) ([]uuid.UUID, error)
}
