package identity

import (
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeUserRegistered    = "UserRegistered"
	EventTypeUserStatusChanged = "UserStatusChanged"
)

// UserRegisteredEvent is published when a new account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Username:        u.Username,
		Email:           u.Email,
	}
}

// UserStatusChangedEvent is published when an admin suspends or reactivates a user
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Status Status    `json:"status"`
}

// NewUserStatusChangedEvent creates a new UserStatusChangedEvent
func NewUserStatusChangedEvent(u *User) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Status:          u.Status,
	}
}
