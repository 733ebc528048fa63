package chat

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// MaxMessageLength is the longest message content in characters
const MaxMessageLength = 2000

// Message is one chat message
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	CreatedAt      time.Time
}

// NewMessage creates a message with trimmed content
func NewMessage(conversationID, senderID uuid.UUID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 2000 characters")
	}
	return &Message{
		ID:             shared.NewID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// IsReadBy reports whether the message is covered by the reader's marker.
// Own messages are always read.
func (m *Message) IsReadBy(userID uuid.UUID, lastReadAt *time.Time) bool {
	if m.SenderID == userID {
		return true
	}
	return lastReadAt != nil && !m.CreatedAt.After(*lastReadAt)
}
