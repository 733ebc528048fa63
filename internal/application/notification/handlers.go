package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/notification"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/domain/stream"
	"go.uber.org/zap"
)

// FollowerBatchSize is how many followers one stream_live batch covers
const FollowerBatchSize = 500

func unexpectedEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()))
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

// displayName returns the actor's display name, or "Someone" when the user is gone
func displayName(ctx context.Context, users identity.UserRepository, id uuid.UUID) string {
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return "Someone"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// FollowHandler notifies users about new followers
type FollowHandler struct {
	svc    *Service
	users  identity.UserRepository
	logger *zap.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(svc *Service, users identity.UserRepository, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{svc: svc, users: users, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *FollowHandler) EventTypes() []string {
	return []string{social.EventTypeUserFollowed}
}

// Handle processes a UserFollowedEvent
func (h *FollowHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*social.UserFollowedEvent)
	if !ok {
		return unexpectedEvent(h.logger, social.EventTypeUserFollowed, event)
	}
	actor := e.FollowerID
	return h.svc.Notify(ctx, notification.Input{
		RecipientID: e.FolloweeID,
		ActorID:     &actor,
		Type:        notification.TypeFollow,
		Title:       displayName(ctx, h.users, e.FollowerID) + " started following you",
		EntityType:  notification.EntityUser,
		EntityID:    &actor,
	})
}

// MessageHandler notifies recipients who were offline when a message arrived
type MessageHandler struct {
	svc      *Service
	users    identity.UserRepository
	presence Presence
	logger   *zap.Logger
}

// NewMessageHandler creates a new MessageHandler. A nil presence treats
// everybody as offline.
func NewMessageHandler(svc *Service, users identity.UserRepository, presence Presence, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, users: users, presence: presence, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MessageHandler) EventTypes() []string {
	return []string{chat.EventTypeMessageSent}
}

// Handle processes a MessageSentEvent
func (h *MessageHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*chat.MessageSentEvent)
	if !ok {
		return unexpectedEvent(h.logger, chat.EventTypeMessageSent, event)
	}

	var offline []uuid.UUID
	for _, id := range e.RecipientIDs {
		if h.presence == nil || !h.presence.IsOnline(id) {
			offline = append(offline, id)
		}
	}
	if len(offline) == 0 {
		return nil
	}

	sender := e.SenderID
	conversation := e.ConversationID
	title := "New message from " + displayName(ctx, h.users, e.SenderID)
	inputs := make([]notification.Input, len(offline))
	for i, id := range offline {
		inputs[i] = notification.Input{
			RecipientID: id,
			ActorID:     &sender,
			Type:        notification.TypeMessage,
			Title:       title,
			Body:        e.Content,
			EntityType:  notification.EntityConversation,
			EntityID:    &conversation,
		}
	}
	return h.svc.Notify(ctx, inputs...)
}

// OrderHandler notifies buyers and sellers about order transitions
type OrderHandler struct {
	svc    *Service
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(svc *Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderHandler) EventTypes() []string {
	return []string{
		store.EventTypeOrderPlaced,
		store.EventTypeOrderPaid,
		store.EventTypeOrderFulfilled,
		store.EventTypeOrderCancelled,
	}
}

// Handle processes order events
func (h *OrderHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var inputs []notification.Input
	switch e := event.(type) {
	case *store.OrderPlacedEvent:
		inputs = h.forSellers(e.OrderEventPayload, notification.TypeOrderPlaced,
			"New order "+e.OrderNumber,
			fmt.Sprintf("You received an order totalling %s", e.Total.String()))
	case *store.OrderPaidEvent:
		inputs = append(inputs, h.forBuyer(e.OrderEventPayload, notification.TypeOrderPaid,
			"Payment received for order "+e.OrderNumber, ""))
		inputs = append(inputs, h.forSellers(e.OrderEventPayload, notification.TypeOrderPaid,
			"Order "+e.OrderNumber+" was paid", "It is ready to be fulfilled")...)
	case *store.OrderFulfilledEvent:
		inputs = append(inputs, h.forBuyer(e.OrderEventPayload, notification.TypeOrderFulfilled,
			"Order "+e.OrderNumber+" was fulfilled", ""))
	case *store.OrderCancelledEvent:
		inputs = h.forSellers(e.OrderEventPayload, notification.TypeOrderCancelled,
			"Order "+e.OrderNumber+" was cancelled", e.Reason)
	default:
		return unexpectedEvent(h.logger, "Order*", event)
	}
	return h.svc.Notify(ctx, inputs...)
}

func (h *OrderHandler) forBuyer(p store.OrderEventPayload, kind notification.Type, title, body string) notification.Input {
	order := p.OrderID
	return notification.Input{
		RecipientID: p.BuyerID,
		Type:        kind,
		Title:       title,
		Body:        body,
		EntityType:  notification.EntityOrder,
		EntityID:    &order,
	}
}

func (h *OrderHandler) forSellers(p store.OrderEventPayload, kind notification.Type, title, body string) []notification.Input {
	order := p.OrderID
	buyer := p.BuyerID
	inputs := make([]notification.Input, 0, len(p.SellerIDs))
	for _, seller := range p.SellerIDs {
		if seller == p.BuyerID {
			continue
		}
		inputs = append(inputs, notification.Input{
			RecipientID: seller,
			ActorID:     &buyer,
			Type:        kind,
			Title:       title,
			Body:        body,
			EntityType:  notification.EntityOrder,
			EntityID:    &order,
		})
	}
	return inputs
}

// StreamLiveHandler notifies every follower of a streamer that went live.
// Followers are paged by id so large audiences are written in batches.
type StreamLiveHandler struct {
	svc     *Service
	users   identity.UserRepository
	follows social.FollowRepository
	logger  *zap.Logger
}

// NewStreamLiveHandler creates a new StreamLiveHandler
func NewStreamLiveHandler(svc *Service, users identity.UserRepository, follows social.FollowRepository, logger *zap.Logger) *StreamLiveHandler {
	return &StreamLiveHandler{svc: svc, users: users, follows: follows, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *StreamLiveHandler) EventTypes() []string {
	return []string{stream.EventTypeStreamStarted}
}

// Handle processes a StreamStartedEvent
func (h *StreamLiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*stream.StreamStartedEvent)
	if !ok {
		return unexpectedEvent(h.logger, stream.EventTypeStreamStarted, event)
	}

	streamer := e.StreamerID
	streamID := e.StreamID
	title := displayName(ctx, h.users, e.StreamerID) + " is live"

	after := uuid.Nil
	notified := 0
	for {
		ids, err := h.follows.FollowerIDsAfter(ctx, e.StreamerID, after, FollowerBatchSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		inputs := make([]notification.Input, len(ids))
		for i, id := range ids {
			inputs[i] = notification.Input{
				RecipientID: id,
				ActorID:     &streamer,
				Type:        notification.TypeStreamLive,
				Title:       title,
				Body:        e.Title,
				EntityType:  notification.EntityStream,
				EntityID:    &streamID,
			}
		}
		if err := h.svc.Notify(ctx, inputs...); err != nil {
			return err
		}
		notified += len(ids)
		after = ids[len(ids)-1]
		if len(ids) < FollowerBatchSize {
			break
		}
	}

	if notified > 0 {
		h.logger.Info("Notified followers of live stream",
			zap.String("stream_id", e.StreamID.String()),
			zap.Int("followers", notified))
	}
	return nil
}

// Handlers returns every notification handler wired to its dependencies
func Handlers(svc *Service, users identity.UserRepository, follows social.FollowRepository, presence Presence, logger *zap.Logger) []shared.EventHandler {
	return []shared.EventHandler{
		NewFollowHandler(svc, users, logger),
		NewMessageHandler(svc, users, presence, logger),
		NewOrderHandler(svc, logger),
		NewStreamLiveHandler(svc, users, follows, logger),
	}
}

var (
	_ shared.EventHandler = (*FollowHandler)(nil)
	_ shared.EventHandler = (*MessageHandler)(nil)
	_ shared.EventHandler = (*OrderHandler)(nil)
	_ shared.EventHandler = (*StreamLiveHandler)(nil)
)
