package chat

import (
	"bytes"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// AggregateTypeConversation is the aggregate type name used in domain events
const AggregateTypeConversation = "Conversation"

const previewLength = 100

// Participant is a member of a conversation with their read marker
type Participant struct {
	UserID     uuid.UUID
	LastReadAt *time.Time
	JoinedAt   time.Time
}

// Conversation is a direct conversation between two users
type Conversation struct {
	shared.BaseEntity
	Participants        []Participant
	LastMessagePreview  string
	LastMessageSenderID *uuid.UUID
	LastMessageAt       *time.Time
}

// NewDirectConversation creates a conversation between a and b.
// Participants are stored in a stable order so the pair is unique.
func NewDirectConversation(a, b uuid.UUID) (*Conversation, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Participants are required")
	}
	if a == b {
		return nil, shared.ErrInvalidInput.WithMessage("You cannot start a conversation with yourself")
	}
	first, second := orderedPair(a, b)
	c := &Conversation{BaseEntity: shared.NewBaseEntity()}
	c.Participants = []Participant{
		{UserID: first, JoinedAt: c.CreatedAt},
		{UserID: second, JoinedAt: c.CreatedAt},
	}
	return c, nil
}

func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// PairKey is the unique key of the direct conversation between a and b
func PairKey(a, b uuid.UUID) string {
	first, second := orderedPair(a, b)
	return first.String() + ":" + second.String()
}

// PairKey returns the unique key of this conversation's participant pair
func (c *Conversation) PairKey() string {
	if len(c.Participants) != 2 {
		return ""
	}
	return PairKey(c.Participants[0].UserID, c.Participants[1].UserID)
}

// ParticipantIDs returns the ids of all participants
func (c *Conversation) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Participants))
	for i, p := range c.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// HasParticipant reports whether userID belongs to the conversation
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// EnsureParticipant returns FORBIDDEN unless userID belongs to the conversation
func (c *Conversation) EnsureParticipant(userID uuid.UUID) error {
	if !c.HasParticipant(userID) {
		return shared.ErrForbidden.WithMessage("You are not a participant of this conversation")
	}
	return nil
}

// OtherParticipants returns every participant except userID
func (c *Conversation) OtherParticipants(userID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range c.Participants {
		if p.UserID != userID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// LastReadAt returns the read marker of userID
func (c *Conversation) LastReadAt(userID uuid.UUID) *time.Time {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p.LastReadAt
		}
	}
	return nil
}

// RecordMessage updates the last-message preview
func (c *Conversation) RecordMessage(m *Message) {
	preview := m.Content
	if utf8.RuneCountInString(preview) > previewLength {
		preview = string([]rune(preview)[:previewLength])
	}
	sender := m.SenderID
	at := m.CreatedAt
	c.LastMessagePreview = preview
	c.LastMessageSenderID = &sender
	c.LastMessageAt = &at
	c.UpdatedAt = at
}

// MarkRead moves userID's read marker to at. Markers never move backwards.
func (c *Conversation) MarkRead(userID uuid.UUID, at time.Time) error {
	for i := range c.Participants {
		if c.Participants[i].UserID != userID {
			continue
		}
		if last := c.Participants[i].LastReadAt; last == nil || at.After(*last) {
			c.Participants[i].LastReadAt = &at
		}
		return nil
	}
	return shared.ErrForbidden.WithMessage("You are not a participant of this conversation")
}
