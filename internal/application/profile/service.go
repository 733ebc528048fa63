// Package profile serves public profiles, profile editing, avatars and the
// follow graph.
package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/social"
	"go.uber.org/zap"
)

// Service handles profile and follow operations
type Service struct {
	userRepo   identity.UserRepository
	followRepo social.FollowRepository
	uploads    *upload.Service
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewService creates a new profile service
func NewService(
	userRepo identity.UserRepository,
	followRepo social.FollowRepository,
	uploads *upload.Service,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		userRepo:   userRepo,
		followRepo: followRepo,
		uploads:    uploads,
		events:     events,
		logger:     logger,
	}
}

// GetProfile returns a public profile. viewerID is uuid.Nil for anonymous callers.
func (s *Service) GetProfile(ctx context.Context, viewerID uuid.UUID, username string) (*ProfileDTO, error) {
	user, err := s.findActive(ctx, username)
	if err != nil {
		return nil, err
	}
	dto := ToProfileDTO(user)
	if viewerID != uuid.Nil && viewerID != user.ID {
		following, err := s.followRepo.Exists(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		dto.IsFollowing = &following
	}
	return dto, nil
}

// SearchUsers matches username and display name
func (s *Service) SearchUsers(ctx context.Context, viewerID uuid.UUID, filter shared.Filter) ([]UserSummary, int64, error) {
	users, total, err := s.userRepo.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]UserSummary, len(users))
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		summaries[i] = ToUserSummary(u)
		ids[i] = u.ID
	}
	if err := s.markFollowing(ctx, viewerID, summaries, ids); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// UpdateProfile applies profile changes of the caller
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(identity.ProfileUpdate{
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		Location:    input.Location,
		Website:     input.Website,
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return ToProfileDTO(user), nil
}

// CreateAvatarUpload returns a presigned upload for a new avatar
func (s *Service) CreateAvatarUpload(ctx context.Context, userID uuid.UUID, contentType string) (*upload.Ticket, error) {
	return s.uploads.CreateUpload(ctx, upload.ScopeAvatar, userID, contentType)
}

// ConfirmAvatar stores the uploaded avatar and removes the previous one
func (s *Service) ConfirmAvatar(ctx context.Context, userID uuid.UUID, key string) (*ProfileDTO, error) {
	url, err := s.uploads.Confirm(ctx, upload.ScopeAvatar, userID, key)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.AvatarURL
	user.SetAvatar(url)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != url {
		if err := s.uploads.Discard(ctx, previous); err != nil {
			s.logger.Warn("Failed to delete previous avatar",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}
	return ToProfileDTO(user), nil
}

// Follow makes followerID follow the user named username. Following twice is not an error.
func (s *Service) Follow(ctx context.Context, followerID uuid.UUID, username string) (*ProfileDTO, error) {
	target, err := s.findActive(ctx, username)
	if err != nil {
		return nil, err
	}
	follow, err := social.NewFollow(followerID, target.ID)
	if err != nil {
		return nil, err
	}
	created, err := s.followRepo.Create(ctx, follow)
	if err != nil {
		return nil, err
	}
	if created {
		target.FollowerCount++
		if s.events != nil {
			if err := s.events.Publish(ctx, social.NewUserFollowedEvent(follow)); err != nil {
				s.logger.Warn("Failed to publish follow event", zap.Error(err))
			}
		}
		s.logger.Info("User followed",
			zap.String("follower_id", followerID.String()),
			zap.String("followee_id", target.ID.String()))
	}

	dto := ToProfileDTO(target)
	following := true
	dto.IsFollowing = &following
	return dto, nil
}

// Unfollow removes the follow edge if it exists
func (s *Service) Unfollow(ctx context.Context, followerID uuid.UUID, username string) (*ProfileDTO, error) {
	target, err := s.findActive(ctx, username)
	if err != nil {
		return nil, err
	}
	if followerID == target.ID {
		return nil, shared.ErrInvalidInput.WithMessage("You cannot unfollow yourself")
	}
	deleted, err := s.followRepo.Delete(ctx, followerID, target.ID)
	if err != nil {
		return nil, err
	}
	if deleted && target.FollowerCount > 0 {
		target.FollowerCount--
	}

	dto := ToProfileDTO(target)
	following := false
	dto.IsFollowing = &following
	return dto, nil
}

// ListFollowers returns who follows username, newest first
func (s *Service) ListFollowers(ctx context.Context, viewerID uuid.UUID, username string, filter shared.Filter) ([]UserSummary, int64, error) {
	user, err := s.findActive(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	follows, total, err := s.followRepo.ListFollowers(ctx, user.ID, filter)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.summarize(ctx, viewerID, follows, func(f social.Follow) uuid.UUID { return f.FollowerID })
	return summaries, total, err
}

// ListFollowing returns who username follows, newest first
func (s *Service) ListFollowing(ctx context.Context, viewerID uuid.UUID, username string, filter shared.Filter) ([]UserSummary, int64, error) {
	user, err := s.findActive(ctx, username)
	if err != nil {
		return nil, 0, err
	}
	follows, total, err := s.followRepo.ListFollowing(ctx, user.ID, filter)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.summarize(ctx, viewerID, follows, func(f social.Follow) uuid.UUID { return f.FolloweeID })
	return summaries, total, err
}

// summarize loads the users on the other end of follows, keeping the edge order
func (s *Service) summarize(ctx context.Context, viewerID uuid.UUID, follows []social.Follow, other func(social.Follow) uuid.UUID) ([]UserSummary, error) {
	ids := make([]uuid.UUID, len(follows))
	for i, f := range follows {
		ids[i] = other(f)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	summaries := make([]UserSummary, 0, len(follows))
	present := make([]uuid.UUID, 0, len(follows))
	for _, f := range follows {
		u, ok := byID[other(f)]
		if !ok {
			continue
		}
		summary := ToUserSummary(u)
		followedAt := f.CreatedAt
		summary.FollowedAt = &followedAt
		summaries = append(summaries, summary)
		present = append(present, u.ID)
	}
	if err := s.markFollowing(ctx, viewerID, summaries, present); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Service) markFollowing(ctx context.Context, viewerID uuid.UUID, summaries []UserSummary, ids []uuid.UUID) error {
	if viewerID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	set, err := s.followRepo.FollowingSet(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range summaries {
		if summaries[i].ID == viewerID {
			continue
		}
		following := set[summaries[i].ID]
		summaries[i].IsFollowing = &following
	}
	return nil
}

func (s *Service) findActive(ctx context.Context, username string) (*identity.User, error) {
	normalized, err := identity.NormalizeUsername(username)
	if err != nil {
		return nil, shared.ErrNotFound.WithMessage("User not found")
	}
	user, err := s.userRepo.FindByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("User not found")
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, shared.ErrNotFound.WithMessage("User not found")
	}
	return user, nil
}
