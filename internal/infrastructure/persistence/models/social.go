package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/social"
)

// FollowModel is one edge of the follow graph.
type FollowModel struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_follows_followee"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (FollowModel) TableName() string {
	return "follows"
}

// ToDomain converts the model to a domain Follow
func (m *FollowModel) ToDomain() social.Follow {
	return social.Follow{
		FollowerID: m.FollowerID,
		FolloweeID: m.FolloweeID,
		CreatedAt:  m.CreatedAt,
	}
}

// FollowModelFromDomain creates a model from a domain Follow
func FollowModelFromDomain(f *social.Follow) *FollowModel {
	return &FollowModel{
		FollowerID: f.FollowerID,
		FolloweeID: f.FolloweeID,
		CreatedAt:  f.CreatedAt,
	}
}
