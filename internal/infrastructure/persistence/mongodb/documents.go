package mongodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
)

// ParticipantDocument is an embedded conversation member
type ParticipantDocument struct {
	UserID     string     `bson:"user_id"`
	LastReadAt *time.Time `bson:"last_read_at,omitempty"`
	JoinedAt   time.Time  `bson:"joined_at"`
}

// ConversationDocument is the stored form of a conversation.
// ActivityAt is the last message time, or the creation time before any message.
type ConversationDocument struct {
	ID                  string                `bson:"_id"`
	PairKey             string                `bson:"pair_key"`
	ParticipantIDs      []string              `bson:"participant_ids"`
	Participants        []ParticipantDocument `bson:"participants"`
	LastMessagePreview  string                `bson:"last_message_preview"`
	LastMessageSenderID *string               `bson:"last_message_sender_id,omitempty"`
	LastMessageAt       *time.Time            `bson:"last_message_at,omitempty"`
	ActivityAt          time.Time             `bson:"activity_at"`
	CreatedAt           time.Time             `bson:"created_at"`
	UpdatedAt           time.Time             `bson:"updated_at"`
}

// MessageDocument is the stored form of a message
type MessageDocument struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	SenderID       string    `bson:"sender_id"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"created_at"`
}

// mongo keeps milliseconds; truncating on write keeps cursors and markers comparable
func msTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func msTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := msTime(*t)
	return &v
}

func conversationFromDomain(c *chat.Conversation) *ConversationDocument {
	doc := &ConversationDocument{
		ID:                 c.ID.String(),
		PairKey:            c.PairKey(),
		LastMessagePreview: c.LastMessagePreview,
		LastMessageAt:      msTimePtr(c.LastMessageAt),
		ActivityAt:         msTime(c.CreatedAt),
		CreatedAt:          msTime(c.CreatedAt),
		UpdatedAt:          msTime(c.UpdatedAt),
	}
	if c.LastMessageAt != nil {
		doc.ActivityAt = msTime(*c.LastMessageAt)
	}
	if c.LastMessageSenderID != nil {
		sender := c.LastMessageSenderID.String()
		doc.LastMessageSenderID = &sender
	}
	for _, p := range c.Participants {
		doc.ParticipantIDs = append(doc.ParticipantIDs, p.UserID.String())
		doc.Participants = append(doc.Participants, ParticipantDocument{
			UserID:     p.UserID.String(),
			LastReadAt: msTimePtr(p.LastReadAt),
			JoinedAt:   msTime(p.JoinedAt),
		})
	}
	return doc
}

func (d *ConversationDocument) toDomain() *chat.Conversation {
	c := &chat.Conversation{
		BaseEntity: shared.BaseEntity{
			ID:        uuid.MustParse(d.ID),
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		LastMessagePreview: d.LastMessagePreview,
		LastMessageAt:      d.LastMessageAt,
	}
	if d.LastMessageSenderID != nil {
		if sender, err := uuid.Parse(*d.LastMessageSenderID); err == nil {
			c.LastMessageSenderID = &sender
		}
	}
	for _, p := range d.Participants {
		c.Participants = append(c.Participants, chat.Participant{
			UserID:     uuid.MustParse(p.UserID),
			LastReadAt: p.LastReadAt,
			JoinedAt:   p.JoinedAt,
		})
	}
	return c
}

func messageFromDomain(m *chat.Message) *MessageDocument {
	return &MessageDocument{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		CreatedAt:      msTime(m.CreatedAt),
	}
}

func (d *MessageDocument) toDomain() *chat.Message {
	return &chat.Message{
		ID:             uuid.MustParse(d.ID),
		ConversationID: uuid.MustParse(d.ConversationID),
		SenderID:       uuid.MustParse(d.SenderID),
		Content:        d.Content,
		CreatedAt:      d.CreatedAt,
	}
}

// bsonD builds an ordered document from key/value pairs
func bsonD(pairs ...any) bson.D {
	d := make(bson.D, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, bson.E{Key: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}
