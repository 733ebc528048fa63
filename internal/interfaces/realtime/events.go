package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	appchat "github.com/playhub/backend/internal/application/chat"
	appnotification "github.com/playhub/backend/internal/application/notification"
)

// Client events
const (
	EventSendMessage = "send-message"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
	EventMarkAsRead  = "mark-as-read"
	EventPing        = "ping"
)

// Server events
const (
	EventNewMessage        = "new-message"
	EventMessageSent       = "message-sent"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventMessagesRead      = "messages-read"
	EventNotification      = "notification"
	EventPong              = "pong"
	EventError             = "error"
)

type incomingFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outgoingFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SendMessagePayload is the data of send-message
type SendMessagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
	ClientID       string    `json:"client_id,omitempty"`
}

// ConversationPayload is the data of typing-start, typing-stop and mark-as-read
type ConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// NewMessagePayload is the data of new-message
type NewMessagePayload struct {
	Message appchat.MessageDTO `json:"message"`
}

// MessageSentPayload acknowledges a send-message to its sender
type MessageSentPayload struct {
	ClientID string             `json:"client_id,omitempty"`
	Message  appchat.MessageDTO `json:"message"`
}

// TypingPayload is the data of user-typing and user-stopped-typing
type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

// MessagesReadPayload is the data of messages-read
type MessagesReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

// NotificationPayload is the data of notification
type NotificationPayload struct {
	Notification appnotification.NotificationDTO `json:"notification"`
}

// ErrorPayload reports a failed client event
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
