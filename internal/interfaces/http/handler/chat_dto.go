package handler

import "github.com/playhub/backend/internal/interfaces/http/dto"

// StartConversationRequest finds or creates a direct conversation
type StartConversationRequest struct {
	ParticipantID string `json:"participant_id" binding:"required,uuid"`
}

// SendMessageRequest represents the request body for a chat message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// MessageListQuery pages backwards through a conversation. before and
// before_id are the created_at and id of the oldest message already shown.
type MessageListQuery struct {
	Before   string `form:"before"`
	BeforeID string `form:"before_id" binding:"omitempty,uuid"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ConversationListQuery holds query parameters for conversation listings
type ConversationListQuery struct {
	dto.ListRequest
}

// NotificationListQuery holds query parameters for notification listings
type NotificationListQuery struct {
	dto.ListRequest
	UnreadOnly bool `form:"unread_only"`
}

// MarkAllReadResponse reports how many notifications changed
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
