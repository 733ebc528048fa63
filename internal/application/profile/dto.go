package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
)

// ProfileDTO is the public view of a user
type ProfileDTO struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Website        string    `json:"website"`
	AvatarURL      string    `json:"avatar_url"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	IsFollowing    *bool     `json:"is_following,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserSummary is the compact view used in lists
type UserSummary struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	AvatarURL   string     `json:"avatar_url"`
	FollowedAt  *time.Time `json:"followed_at,omitempty"`
	IsFollowing *bool      `json:"is_following,omitempty"`
}

// UpdateProfileInput carries optional profile fields
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Website     *string
}

// ToProfileDTO converts a domain user to its public view
func ToProfileDTO(u *identity.User) *ProfileDTO {
	return &ProfileDTO{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		Location:       u.Location,
		Website:        u.Website,
		AvatarURL:      u.AvatarURL,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
	}
}

// ToUserSummary converts a domain user to a summary
func ToUserSummary(u *identity.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
