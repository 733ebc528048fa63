package notification

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// Type identifies what a notification is about
type Type string

const (
	TypeFollow         Type = "follow"
	TypeMessage        Type = "message"
	TypeOrderPlaced    Type = "order_placed"
	TypeOrderPaid      Type = "order_paid"
	TypeOrderFulfilled Type = "order_fulfilled"
	TypeOrderCancelled Type = "order_cancelled"
	TypeStreamLive     Type = "stream_live"
	TypeSystem         Type = "system"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeFollow, TypeMessage, TypeOrderPlaced, TypeOrderPaid, TypeOrderFulfilled,
		TypeOrderCancelled, TypeStreamLive, TypeSystem:
		return true
	}
	return false
}

// Entity types a notification can point at
const (
	EntityUser         = "user"
	EntityConversation = "conversation"
	EntityOrder        = "order"
	EntityStream       = "stream"
)

// Notification is a message shown to one recipient
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	ActorID     *uuid.UUID
	Type        Type
	Title       string
	Body        string
	EntityType  string
	EntityID    *uuid.UUID
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Input carries the fields of a new notification
type Input struct {
	RecipientID uuid.UUID
	ActorID     *uuid.UUID
	Type        Type
	Title       string
	Body        string
	EntityType  string
	EntityID    *uuid.UUID
}

// New creates an unread notification
func New(in Input) (*Notification, error) {
	if in.RecipientID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Recipient is required")
	}
	if !in.Type.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Unknown notification type")
	}
	title := truncate(strings.TrimSpace(in.Title), 200)
	if title == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Notification title is required")
	}
	return &Notification{
		ID:          uuid.New(),
		RecipientID: in.RecipientID,
		ActorID:     in.ActorID,
		Type:        in.Type,
		Title:       title,
		Body:        truncate(strings.TrimSpace(in.Body), 1000),
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MarkRead sets the read time once
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
}

// IsRead reports whether the notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Filter filters notification listings
type Filter struct {
	shared.Filter
	UnreadOnly bool
}

// Repository defines the interface for notification persistence
type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// CreateBatch stores many notifications in one statement
	CreateBatch(ctx context.Context, ns []*Notification) error

	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, filter Filter) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)

	// MarkRead sets read_at when it is still unset
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkAllRead marks every unread notification of recipientID and returns how many changed
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteReadBefore purges read notifications older than cutoff
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
