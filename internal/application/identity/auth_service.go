package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an account and signs the new user in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := identity.NewUser(input.Username, input.Email, input.Password, input.DisplayName)
	if err != nil {
		return nil, err
	}

	if exists, err := s.userRepo.ExistsByUsername(ctx, user.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.ErrAlreadyExists.WithMessage("Username is already taken")
	}
	if exists, err := s.userRepo.ExistsByEmail(ctx, user.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.ErrAlreadyExists.WithMessage("Email is already registered")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return s.issueTokens(user)
}

// Login authenticates a user by username or email and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.findByLogin(ctx, input.Login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown account", zap.String("login", input.Login))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if err := user.CheckCanLogin(now); err != nil {
		s.logger.Warn("Login rejected",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordFailedLogin(now)
		if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", identity.MaxFailedLoginAttempts))
			return nil, identity.ErrAccountLocked
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedLoginAttempts))
		return nil, identity.ErrInvalidCredentials
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", input.IP))

	return s.issueTokens(user)
}

func (s *AuthService) findByLogin(ctx context.Context, login string) (*identity.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		email, err := identity.NormalizeEmail(login)
		if err != nil {
			return nil, shared.ErrNotFound
		}
		return s.userRepo.FindByEmail(ctx, email)
	}
	username, err := identity.NormalizeUsername(login)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return s.userRepo.FindByUsername(ctx, username)
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, mapTokenError(auth.ErrMissingUserID)
	}

	if claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, mapTokenError(auth.ErrTokenBlacklisted)
		}
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return nil, err
	}
	if invalidated {
		return nil, mapTokenError(auth.ErrTokenBlacklisted)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("User no longer exists")
		}
		return nil, err
	}
	if err := user.CheckCanLogin(s.now()); err != nil {
		return nil, err
	}

	pair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, tokenInput(user))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}
	// the old refresh token must not be replayed
	if claims.ID != "" {
		if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.logger.Warn("Failed to retire refresh token", zap.Error(err))
		}
	}

	return newAuthResult(pair, user), nil
}

// Logout revokes the access token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
			return err
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the current user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserInfo(user), nil
}

// ChangePassword replaces the password, invalidates every token issued
// before now and returns a fresh pair for the caller's session
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to invalidate tokens after password change",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *identity.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(tokenInput(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}
	return newAuthResult(pair, user), nil
}

func (s *AuthService) publish(ctx context.Context, user *identity.User) {
	events := user.PullDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}

func tokenInput(user *identity.User) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
}

func newAuthResult(pair *auth.TokenPair, user *identity.User) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}
}

// mapTokenError maps JWT errors to domain errors
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
