package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles administrative user operations
type UserService struct {
	userRepo  identity.UserRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwt:       jwtService,
		blacklist: blacklist,
		events:    events,
		logger:    logger,
	}
}

// Suspend blocks a user and signs out all of their sessions
func (s *UserService) Suspend(ctx context.Context, adminID, userID uuid.UUID) (*UserInfo, error) {
	if adminID == userID {
		return nil, shared.ErrInvalidInput.WithMessage("You cannot suspend yourself")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Suspend(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwt.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to invalidate tokens of suspended user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}
	s.publish(ctx, user)

	s.logger.Info("User suspended",
		zap.String("user_id", user.ID.String()),
		zap.String("admin_id", adminID.String()))
	return ToUserInfo(user), nil
}

// Reactivate lifts a suspension
func (s *UserService) Reactivate(ctx context.Context, adminID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User reactivated",
		zap.String("user_id", user.ID.String()),
		zap.String("admin_id", adminID.String()))
	return ToUserInfo(user), nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.PullDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
