package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/infrastructure/logger"
	"github.com/playhub/backend/internal/interfaces/http/dto"
	"github.com/playhub/backend/internal/interfaces/realtime"
	"go.uber.org/zap"
)

// SocketHandler upgrades authenticated requests to the chat socket
type SocketHandler struct {
	BaseHandler
	hub *realtime.Hub
}

// NewSocketHandler creates a new socket handler
func NewSocketHandler(hub *realtime.Hub) *SocketHandler {
	return &SocketHandler{hub: hub}
}

// Connect godoc
// @Summary      Open chat socket
// @Description  Websocket upgrade. Frames are JSON {"event", "data"}.
// @Tags         chat
// @Security     BearerAuth
// @Success      101
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /ws [get]
func (h *SocketHandler) Connect(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	err := h.hub.Serve(c.Writer, c.Request, userID)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// the connection was upgraded or the upgrader already answered
		logger.GetGinLogger(c).Debug("Socket closed with error", zap.Error(err))
		return
	}
	if errors.Is(err, realtime.ErrTooManyConnections) {
		h.Error(c, http.StatusTooManyRequests, dto.ErrCodeTooManyConnections, realtime.ErrTooManyConnections.Message)
		return
	}
	h.HandleError(c, err)
}
