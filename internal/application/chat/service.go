// Package chat serves direct conversations between users.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/profile"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 100
)

var errConversationNotFound = shared.ErrNotFound.WithMessage("Conversation not found")

// Service handles conversations and messages
type Service struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	users         identity.UserRepository
	events        shared.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a new chat service
func NewService(
	conversations chat.ConversationRepository,
	messages chat.MessageRepository,
	users identity.UserRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		users:         users,
		events:        events,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ListConversations returns the caller's conversations with the other
// participant and the caller's unread count
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ConversationDTO, int64, error) {
	convs, total, err := s.conversations.ListByParticipant(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	var otherIDs []uuid.UUID
	for _, c := range convs {
		otherIDs = append(otherIDs, c.OtherParticipants(userID)...)
	}
	summaries, err := s.summaries(ctx, otherIDs)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ConversationDTO, 0, len(convs))
	for _, c := range convs {
		unread, err := s.messages.CountUnread(ctx, c.ID, userID, c.LastReadAt(userID))
		if err != nil {
			return nil, 0, err
		}
		var other *profile.UserSummary
		if ids := c.OtherParticipants(userID); len(ids) > 0 {
			other = summaries[ids[0]]
		}
		out = append(out, toConversationDTO(c, userID, other, unread))
	}
	return out, total, nil
}

// StartConversation returns the direct conversation with participantID,
// creating it on first contact
func (s *Service) StartConversation(ctx context.Context, userID, participantID uuid.UUID) (*ConversationDTO, bool, error) {
	if userID == participantID {
		return nil, false, shared.ErrInvalidInput.WithMessage("You cannot start a conversation with yourself")
	}
	other, err := s.users.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, shared.ErrNotFound.WithMessage("User not found")
		}
		return nil, false, err
	}
	if !other.IsActive() {
		return nil, false, shared.ErrNotFound.WithMessage("User not found")
	}

	conv, err := chat.NewDirectConversation(userID, participantID)
	if err != nil {
		return nil, false, err
	}
	stored, created, err := s.conversations.FindOrCreate(ctx, conv)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("Conversation started",
			zap.String("conversation_id", stored.ID.String()),
			zap.String("user_id", userID.String()),
			zap.String("participant_id", participantID.String()))
	}

	unread, err := s.messages.CountUnread(ctx, stored.ID, userID, stored.LastReadAt(userID))
	if err != nil {
		return nil, false, err
	}
	summary := profile.ToUserSummary(other)
	dto := toConversationDTO(stored, userID, &summary, unread)
	return &dto, created, nil
}

// GetMessages returns the page of history before the cursor, oldest first
func (s *Service) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, before *chat.MessageCursor, limit int) ([]MessageDTO, error) {
	conv, err := s.Participant(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultMessageLimit
	case limit > MaxMessageLimit:
		limit = MaxMessageLimit
	}

	msgs, err := s.messages.ListBefore(ctx, conv.ID, before, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = ToMessageDTO(conv, m)
	}
	return out, nil
}

// SendMessage stores a message from userID and publishes MessageSent
func (s *Service) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content string) (*MessageDTO, error) {
	conv, err := s.Participant(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	msg, err := chat.NewMessage(conv.ID, userID, content)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = s.now()

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	conv.RecordMessage(msg)
	if err := s.conversations.UpdateLastMessage(ctx, conv); err != nil {
		return nil, err
	}

	s.publish(ctx, chat.NewMessageSentEvent(conv, msg))
	dto := ToMessageDTO(conv, msg)
	return &dto, nil
}

// MarkAsRead moves the caller's read marker to now and publishes MessagesRead
func (s *Service) MarkAsRead(ctx context.Context, userID, conversationID uuid.UUID) (*ReadReceipt, error) {
	conv, err := s.Participant(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := conv.MarkRead(userID, at); err != nil {
		return nil, err
	}
	if err := s.conversations.MarkRead(ctx, conv.ID, userID, at); err != nil {
		return nil, err
	}
	s.publish(ctx, chat.NewMessagesReadEvent(conv, userID, at))
	return &ReadReceipt{ConversationID: conv.ID, UserID: userID, ReadAt: at}, nil
}

// UnreadCount sums the caller's unread messages over all conversations
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	filter := shared.Filter{Page: 1, PageSize: 100}
	var total int64
	for {
		convs, count, err := s.conversations.ListByParticipant(ctx, userID, filter)
		if err != nil {
			return 0, err
		}
		for _, c := range convs {
			n, err := s.messages.CountUnread(ctx, c.ID, userID, c.LastReadAt(userID))
			if err != nil {
				return 0, err
			}
			total += n
		}
		if len(convs) == 0 || int64(filter.Page*filter.PageSize) >= count {
			return total, nil
		}
		filter.Page++
	}
}

// Participant loads a conversation and checks that userID belongs to it.
// Non-members get NOT_FOUND.
func (s *Service) Participant(ctx context.Context, userID, conversationID uuid.UUID) (*chat.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errConversationNotFound
	}
	return conv, nil
}

func (s *Service) summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*profile.UserSummary, error) {
	out := make(map[uuid.UUID]*profile.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		summary := profile.ToUserSummary(u)
		out[u.ID] = &summary
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, evt shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish chat event",
			zap.String("event_type", evt.EventType()),
			zap.Error(err))
	}
}
