package identity

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	identity.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Search(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("alice", "alice@example.com", "Password123", "Alice")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "playhub-test",
		MaxRefreshCount:        10,
	})
}

func createAuthService(userRepo *MockUserRepository, blacklist auth.TokenBlacklist, events shared.EventPublisher) *AuthService {
	return NewAuthService(userRepo, newTestJWT(), blacklist, events, zap.NewNop())
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and returns tokens", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		events := new(MockEventPublisher)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), events)

		userRepo.On("ExistsByUsername", ctx, "bob").Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, "bob@example.com").Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
		events.On("Publish", ctx, mock.MatchedBy(func(evts []shared.DomainEvent) bool {
			return len(evts) == 1 && evts[0].EventType() == identity.EventTypeUserRegistered
		})).Return(nil)

		result, err := svc.Register(ctx, RegisterInput{
			Username: "Bob",
			Email:    "BOB@example.com",
			Password: "Password123",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, "bob", result.User.Username)
		assert.Equal(t, "bob", result.User.DisplayName)
		userRepo.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)

		userRepo.On("ExistsByUsername", ctx, "bob").Return(true, nil)

		_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Password123"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)

		_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short"})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "WEAK_PASSWORD", domainErr.Code)
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
	user := newTestUser(t)
	user.FailedLoginAttempts = 3

	userRepo.On("FindByUsername", ctx, "alice").Return(user, nil)
	userRepo.On("UpdateLoginState", ctx, user).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Login: " Alice ", Password: "Password123"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLoginAt)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_ByEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
	user := newTestUser(t)

	userRepo.On("FindByEmail", ctx, "alice@example.com").Return(user, nil)
	userRepo.On("UpdateLoginState", ctx, user).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Login: "ALICE@example.com", Password: "Password123"})

	require.NoError(t, err)
	assert.Equal(t, "alice", result.User.Username)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)

	userRepo.On("FindByUsername", ctx, "nobody").Return(nil, shared.ErrNotFound)

	_, err := svc.Login(ctx, LoginInput{Login: "nobody", Password: "Password123"})

	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAuthService_Login_LocksAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
	user := newTestUser(t)

	userRepo.On("FindByUsername", ctx, "alice").Return(user, nil)
	userRepo.On("UpdateLoginState", ctx, user).Return(nil)

	for i := 1; i < identity.MaxFailedLoginAttempts; i++ {
		_, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "WrongPass1"})
		require.ErrorIs(t, err, identity.ErrInvalidCredentials, "attempt %d", i)
	}

	_, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "WrongPass1"})
	assert.ErrorIs(t, err, identity.ErrAccountLocked)
	require.NotNil(t, user.LockedUntil)

	// the right password does not help while locked
	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "Password123"})
	assert.ErrorIs(t, err, identity.ErrAccountLocked)

	// after the lockout expires the user can log in again
	svc.now = func() time.Time { return user.LockedUntil.Add(time.Second) }
	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "Password123"})
	assert.NoError(t, err)
}

func TestAuthService_Login_Suspended(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
	user := newTestUser(t)
	require.NoError(t, user.Suspend())

	userRepo.On("FindByUsername", ctx, "alice").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "Password123"})

	assert.ErrorIs(t, err, shared.ErrForbidden)
	userRepo.AssertNotCalled(t, "UpdateLoginState", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a new pair and retires the old refresh token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		blacklist := auth.NewInMemoryTokenBlacklist()
		svc := createAuthService(userRepo, blacklist, nil)
		user := newTestUser(t)

		pair, err := svc.jwtService.GenerateTokenPair(tokenInput(user))
		require.NoError(t, err)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		result, err := svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)

		_, err = svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "TOKEN_REVOKED", domainErr.Code)
	})

	t.Run("rejects access tokens", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
		user := newTestUser(t)

		pair, err := svc.jwtService.GenerateTokenPair(tokenInput(user))
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, RefreshTokenInput{RefreshToken: pair.AccessToken})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
	})

	t.Run("rejects tokens issued before a password change", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		blacklist := auth.NewInMemoryTokenBlacklist()
		svc := createAuthService(userRepo, blacklist, nil)
		user := newTestUser(t)

		pair, err := svc.jwtService.GenerateTokenPair(tokenInput(user))
		require.NoError(t, err)
		claims, err := svc.jwtService.ValidateRefreshToken(pair.RefreshToken)
		require.NoError(t, err)

		invalidated, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), claims.GetIssuedAtTime().Add(-time.Second))
		require.NoError(t, err)
		assert.False(t, invalidated)

		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), time.Hour))
		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), claims.GetIssuedAtTime().Add(-time.Second))
		require.NoError(t, err)
		assert.True(t, invalidated)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := createAuthService(new(MockUserRepository), blacklist, nil)

	err := svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenJTI: "jti-1", TokenTTL: time.Minute})
	require.NoError(t, err)

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
		user := newTestUser(t)
		version := user.Version

		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Update", ctx, user).Return(nil)

		result, err := svc.ChangePassword(ctx, ChangePasswordInput{
			UserID:      user.ID,
			OldPassword: "Password123",
			NewPassword: "NewPassword456",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, version+1, user.Version)
		assert.True(t, user.VerifyPassword("NewPassword456"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := createAuthService(userRepo, auth.NewInMemoryTokenBlacklist(), nil)
		user := newTestUser(t)

		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err := svc.ChangePassword(ctx, ChangePasswordInput{
			UserID:      user.ID,
			OldPassword: "Nope12345",
			NewPassword: "NewPassword456",
		})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PASSWORD", domainErr.Code)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_SuspendAndReactivate(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := NewUserService(userRepo, newTestJWT(), blacklist, nil, zap.NewNop())
	user := newTestUser(t)
	adminID := uuid.New()

	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)

	info, err := svc.Suspend(ctx, adminID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.StatusSuspended), info.Status)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, invalidated)

	info, err = svc.Reactivate(ctx, adminID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, string(identity.StatusActive), info.Status)

	_, err = svc.Suspend(ctx, user.ID, user.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
