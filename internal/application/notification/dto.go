package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/notification"
)

// NotificationDTO is the API view of a notification
type NotificationDTO struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToNotificationDTO converts a domain notification
func ToNotificationDTO(n *notification.Notification) NotificationDTO {
	return NotificationDTO{
		ID:         n.ID,
		Type:       string(n.Type),
		ActorID:    n.ActorID,
		Title:      n.Title,
		Body:       n.Body,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.IsRead(),
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}
