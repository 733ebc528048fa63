package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
)

// RegisterInput contains the input for user registration
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// LoginInput contains the input for user login. Login is a username or an email.
type LoginInput struct {
	Login    string
	Password string
	IP       string // Client IP for login tracking
}

// AuthResult is returned by Register, Login and Refresh
type AuthResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	User                  *UserInfo `json:"user"`
}

// UserInfo is the private view of the authenticated user
type UserInfo struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	Location       string     `json:"location"`
	Website        string     `json:"website"`
	AvatarURL      string     `json:"avatar_url"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	FollowerCount  int        `json:"follower_count"`
	FollowingCount int        `json:"following_count"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToUserInfo converts a domain user to UserInfo
func ToUserInfo(u *identity.User) *UserInfo {
	return &UserInfo{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		Location:       u.Location,
		Website:        u.Website,
		AvatarURL:      u.AvatarURL,
		Role:           string(u.Role),
		Status:         string(u.Status),
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string        // JWT ID of the access token being retired
	TokenTTL time.Duration // remaining lifetime of that token
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}
