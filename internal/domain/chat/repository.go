package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// FindOrCreate returns the stored conversation with the same participant
	// pair, or stores conv. The bool reports whether conv was created.
	FindOrCreate(ctx context.Context, conv *Conversation) (*Conversation, bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// ListByParticipant returns userID's conversations, most recent message first
	ListByParticipant(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*Conversation, int64, error)

	// UpdateLastMessage stores the preview fields
	UpdateLastMessage(ctx context.Context, conv *Conversation) error

	// MarkRead moves userID's read marker forward to at
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
}

// MessageCursor is the position of the oldest message of a history page.
// Messages sharing a timestamp are ordered by id, so the next page starts
// exactly after the cursor.
type MessageCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the cursor positioned at m
func CursorOf(m *Message) *MessageCursor {
	return &MessageCursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error

	// ListBefore returns up to limit messages that sort before the cursor
	// (all when nil), newest first by (created_at, id)
	ListBefore(ctx context.Context, conversationID uuid.UUID, before *MessageCursor, limit int) ([]*Message, error)

	// CountUnread counts messages from others created after since (all when nil)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since *time.Time) (int64, error)
}
