package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeMessageSent  = "MessageSent"
	EventTypeMessagesRead = "MessagesRead"
)

// MessageSentEvent is published after a message is stored
type MessageSentEvent struct {
	shared.BaseDomainEvent
	MessageID      uuid.UUID   `json:"message_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	RecipientIDs   []uuid.UUID `json:"recipient_ids"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewMessageSentEvent creates a new MessageSentEvent
func NewMessageSentEvent(c *Conversation, m *Message) *MessageSentEvent {
	return &MessageSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageSent, AggregateTypeConversation, c.ID),
		MessageID:       m.ID,
		ConversationID:  c.ID,
		SenderID:        m.SenderID,
		RecipientIDs:    c.OtherParticipants(m.SenderID),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

// MessagesReadEvent is published when a participant moves their read marker
type MessagesReadEvent struct {
	shared.BaseDomainEvent
	ConversationID uuid.UUID   `json:"conversation_id"`
	ReaderID       uuid.UUID   `json:"user_id"`
	RecipientIDs   []uuid.UUID `json:"recipient_ids"`
	ReadAt         time.Time   `json:"read_at"`
}

// NewMessagesReadEvent creates a new MessagesReadEvent
func NewMessagesReadEvent(c *Conversation, readerID uuid.UUID, at time.Time) *MessagesReadEvent {
	return &MessagesReadEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessagesRead, AggregateTypeConversation, c.ID),
		ConversationID:  c.ID,
		ReaderID:        readerID,
		RecipientIDs:    c.OtherParticipants(readerID),
		ReadAt:          at,
	}
}
