package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
)

// ConversationModel is the persistence model for a direct conversation.
type ConversationModel struct {
	BaseModel
	PairKey             string                         `gorm:"type:varchar(80);not null;uniqueIndex"`
	LastMessagePreview  string                         `gorm:"type:varchar(400)"`
	LastMessageSenderID *uuid.UUID                     `gorm:"type:uuid"`
	LastMessageAt       *time.Time                     `gorm:"index"`
	Participants        []ConversationParticipantModel `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ConversationModel) TableName() string {
	return "conversations"
}

// ConversationParticipantModel holds a participant and their read marker.
type ConversationParticipantModel struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	LastReadAt     *time.Time
	JoinedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConversationParticipantModel) TableName() string {
	return "conversation_participants"
}

// ToDomain converts the model to a domain Conversation. Participants must have been preloaded.
func (m *ConversationModel) ToDomain() *chat.Conversation {
	participants := make([]chat.Participant, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, chat.Participant{
			UserID:     p.UserID,
			LastReadAt: p.LastReadAt,
			JoinedAt:   p.JoinedAt,
		})
	}
	return &chat.Conversation{
		BaseEntity:          m.BaseModel.ToDomain(),
		Participants:        participants,
		LastMessagePreview:  m.LastMessagePreview,
		LastMessageSenderID: m.LastMessageSenderID,
		LastMessageAt:       m.LastMessageAt,
	}
}

// ConversationModelFromDomain creates a model, participants included.
func ConversationModelFromDomain(c *chat.Conversation) *ConversationModel {
	m := &ConversationModel{
		PairKey:             c.PairKey(),
		LastMessagePreview:  c.LastMessagePreview,
		LastMessageSenderID: c.LastMessageSenderID,
		LastMessageAt:       c.LastMessageAt,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	for _, p := range c.Participants {
		m.Participants = append(m.Participants, ConversationParticipantModel{
			ConversationID: c.ID,
			UserID:         p.UserID,
			LastReadAt:     p.LastReadAt,
			JoinedAt:       p.JoinedAt,
		})
	}
	return m
}

// MessageModel is the persistence model for a chat message.
type MessageModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;index:idx_messages_conversation_created,priority:3"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts the model to a domain Message
func (m *MessageModel) ToDomain() *chat.Message {
	return &chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// MessageModelFromDomain creates a model from a domain Message
func MessageModelFromDomain(msg *chat.Message) *MessageModel {
	return &MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}
