package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/profile"
	"github.com/playhub/backend/internal/domain/chat"
)

// MessageDTO is the API view of a message. Read is true once every other
// participant's marker covers it.
type MessageDTO struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// LastMessageDTO is the conversation preview
type LastMessageDTO struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationDTO is a conversation as seen by one participant
type ConversationDTO struct {
	ID          uuid.UUID            `json:"id"`
	Participant *profile.UserSummary `json:"participant"`
	LastMessage *LastMessageDTO      `json:"last_message,omitempty"`
	UnreadCount int64                `json:"unread_count"`
	LastReadAt  *time.Time           `json:"last_read_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ReadReceipt is returned by MarkAsRead
type ReadReceipt struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

// ToMessageDTO converts a message in the context of its conversation
func ToMessageDTO(conv *chat.Conversation, m *chat.Message) MessageDTO {
	read := true
	for _, other := range conv.OtherParticipants(m.SenderID) {
		if !m.IsReadBy(other, conv.LastReadAt(other)) {
			read = false
			break
		}
	}
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Read:           read,
		CreatedAt:      m.CreatedAt,
	}
}

func toConversationDTO(conv *chat.Conversation, viewerID uuid.UUID, other *profile.UserSummary, unread int64) ConversationDTO {
	dto := ConversationDTO{
		ID:          conv.ID,
		Participant: other,
		UnreadCount: unread,
		LastReadAt:  conv.LastReadAt(viewerID),
		CreatedAt:   conv.CreatedAt,
		UpdatedAt:   conv.UpdatedAt,
	}
	if conv.LastMessageAt != nil && conv.LastMessageSenderID != nil {
		dto.LastMessage = &LastMessageDTO{
			Content:   conv.LastMessagePreview,
			SenderID:  *conv.LastMessageSenderID,
			CreatedAt: *conv.LastMessageAt,
		}
	}
	return dto
}
