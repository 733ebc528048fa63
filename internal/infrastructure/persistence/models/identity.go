package models

import (
	"time"

	"github.com/playhub/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	AggregateModel
	Username            string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	Email               string          `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash        string          `gorm:"type:varchar(255);not null"`
	DisplayName         string          `gorm:"type:varchar(50);not null"`
	Bio                 string          `gorm:"type:varchar(500)"`
	Location            string          `gorm:"type:varchar(100)"`
	Website             string          `gorm:"type:varchar(200)"`
	AvatarURL           string          `gorm:"type:varchar(500)"`
	Role                identity.Role   `gorm:"type:varchar(20);not null;default:'user'"`
	Status              identity.Status `gorm:"type:varchar(20);not null;default:'active'"`
	FollowerCount       int             `gorm:"not null;default:0"`
	FollowingCount      int             `gorm:"not null;default:0"`
	FailedLoginAttempts int             `gorm:"not null;default:0"`
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	PasswordChangedAt   *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot:   m.ToAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		DisplayName:         m.DisplayName,
		Bio:                 m.Bio,
		Location:            m.Location,
		Website:             m.Website,
		AvatarURL:           m.AvatarURL,
		Role:                m.Role,
		Status:              m.Status,
		FollowerCount:       m.FollowerCount,
		FollowingCount:      m.FollowingCount,
		FailedLoginAttempts: m.FailedLoginAttempts,
		LockedUntil:         m.LockedUntil,
		LastLoginAt:         m.LastLoginAt,
		PasswordChangedAt:   m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Bio = u.Bio
	m.Location = u.Location
	m.Website = u.Website
	m.AvatarURL = u.AvatarURL
	m.Role = u.Role
	m.Status = u.Status
	m.FollowerCount = u.FollowerCount
	m.FollowingCount = u.FollowingCount
	m.FailedLoginAttempts = u.FailedLoginAttempts
	m.LockedUntil = u.LockedUntil
	m.LastLoginAt = u.LastLoginAt
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
