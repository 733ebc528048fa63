package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/chat"
	domainchat "github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/interfaces/http/dto"
)

const defaultMessagePageSize = 50

// ChatHandler handles conversation and message requests
type ChatHandler struct {
	BaseHandler
	chatService *chat.Service
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Most recent activity first, with the other participant and unread count
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]chat.ConversationDTO,meta=dto.Meta}
// @Router       /conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var query ConversationListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter := query.ToFilter()

	conversations, total, err := h.chatService.ListConversations(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, conversations, total, filter)
}

// StartConversation godoc
// @Summary      Start conversation
// @Description  Returns the existing conversation with the participant when there is one
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body StartConversationRequest true "Participant"
// @Success      200 {object} dto.Response{data=chat.ConversationDTO}
// @Success      201 {object} dto.Response{data=chat.ConversationDTO}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /conversations [post]
func (h *ChatHandler) StartConversation(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req StartConversationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	conv, created, err := h.chatService.StartConversation(c.Request.Context(), userID, uuid.MustParse(req.ParticipantID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created {
		h.Created(c, conv)
		return
	}
	h.Success(c, conv)
}

// GetMessages godoc
// @Summary      List messages
// @Description  The newest page before the cursor, oldest first
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Conversation ID"
// @Param        before query string false "RFC 3339 created_at of the oldest message shown"
// @Param        before_id query string false "ID of the oldest message shown"
// @Param        limit query int false "Page size, at most 100"
// @Success      200 {object} dto.Response{data=[]chat.MessageDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /conversations/{id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var query MessageListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	before, err := parseTimePtr(query.Before)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "before must be an RFC 3339 timestamp")
		return
	}
	var cursor *domainchat.MessageCursor
	if before != nil {
		cursor = &domainchat.MessageCursor{CreatedAt: *before}
		if query.BeforeID != "" {
			cursor.ID = uuid.MustParse(query.BeforeID)
		}
	} else if query.BeforeID != "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "before_id needs before")
		return
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultMessagePageSize
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), userID, id, cursor, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, messages)
}

// SendMessage godoc
// @Summary      Send message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Conversation ID"
// @Param        request body SendMessageRequest true "Message"
// @Success      201 {object} dto.Response{data=chat.MessageDTO}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// MarkAsRead godoc
// @Summary      Mark conversation read
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Conversation ID"
// @Success      200 {object} dto.Response{data=chat.ReadReceipt}
// @Failure      404 {object} ErrorResponse
// @Router       /conversations/{id}/read [post]
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.chatService.MarkAsRead(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// UnreadCount godoc
// @Summary      Unread message count
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=CountData}
// @Router       /conversations/unread-count [get]
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	count, err := h.chatService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}
