package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for a notification.
type NotificationModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	RecipientID uuid.UUID         `gorm:"type:uuid;not null;index:idx_notifications_recipient_created,priority:1"`
	ActorID     *uuid.UUID        `gorm:"type:uuid"`
	Type        notification.Type `gorm:"type:varchar(30);not null"`
	Title       string            `gorm:"type:varchar(200);not null"`
	Body        string            `gorm:"type:varchar(1000)"`
	EntityType  string            `gorm:"type:varchar(30)"`
	EntityID    *uuid.UUID        `gorm:"type:uuid"`
	ReadAt      *time.Time        `gorm:"index"`
	CreatedAt   time.Time         `gorm:"not null;index:idx_notifications_recipient_created,priority:2"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		ActorID:     m.ActorID,
		Type:        m.Type,
		Title:       m.Title,
		Body:        m.Body,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// NotificationModelFromDomain creates a model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Type:        n.Type,
		Title:       n.Title,
		Body:        n.Body,
		EntityType:  n.EntityType,
		EntityID:    n.EntityID,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}
