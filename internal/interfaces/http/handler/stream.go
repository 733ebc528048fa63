package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstream "github.com/playhub/backend/internal/application/stream"
	"github.com/playhub/backend/internal/domain/stream"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
)

// StreamHandler handles live stream requests
type StreamHandler struct {
	BaseHandler
	streamService *appstream.Service
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(streamService *appstream.Service) *StreamHandler {
	return &StreamHandler{streamService: streamService}
}

// List godoc
// @Summary      List streams
// @Tags         streams
// @Produce      json
// @Param        status query string false "scheduled, live or ended"
// @Param        category query string false "Category"
// @Param        streamer_id query string false "Streamer ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstream.StreamDTO,meta=dto.Meta}
// @Router       /streams [get]
func (h *StreamHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	streams, total, err := h.streamService.ListStreams(c.Request.Context(), middleware.GetUserUUID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, streams, total, filter.Filter)
}

// ListByStreamer godoc
// @Summary      List a streamer's streams
// @Tags         streams
// @Produce      json
// @Param        id path string true "Streamer ID"
// @Param        status query string false "scheduled, live or ended"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstream.StreamDTO,meta=dto.Meta}
// @Router       /streamers/{id}/streams [get]
func (h *StreamHandler) ListByStreamer(c *gin.Context) {
	streamerID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	streams, total, err := h.streamService.ListUserStreams(c.Request.Context(), middleware.GetUserUUID(c), streamerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, streams, total, filter.Filter)
}

func (h *StreamHandler) bindFilter(c *gin.Context) (stream.Filter, bool) {
	var query StreamListQuery
	if !h.BindQuery(c, &query) {
		return stream.Filter{}, false
	}
	filter := stream.Filter{
		Filter:   query.ToFilter(),
		Status:   stream.Status(query.Status),
		Category: query.Category,
	}
	if query.StreamerID != "" {
		id := uuid.MustParse(query.StreamerID)
		filter.StreamerID = &id
	}
	return filter, true
}

// Get godoc
// @Summary      Get stream
// @Description  The stream key is only included for the owner
// @Tags         streams
// @Produce      json
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /streams/{id} [get]
func (h *StreamHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	st, err := h.streamService.GetStream(c.Request.Context(), middleware.GetUserUUID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Create godoc
// @Summary      Create stream
// @Tags         streams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateStreamRequest true "Stream"
// @Success      201 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      400 {object} ErrorResponse
// @Router       /streams [post]
func (h *StreamHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req CreateStreamRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st, err := h.streamService.CreateStream(c.Request.Context(), userID, appstream.CreateStreamInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, st)
}

// Update godoc
// @Summary      Update stream
// @Tags         streams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Param        request body UpdateStreamRequest true "Changes"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      403 {object} ErrorResponse
// @Router       /streams/{id} [patch]
func (h *StreamHandler) Update(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	var req UpdateStreamRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st, err := h.streamService.UpdateStream(c.Request.Context(), userID, id, appstream.UpdateStreamInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// RegenerateKey godoc
// @Summary      Regenerate stream key
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Router       /streams/{id}/key [post]
func (h *StreamHandler) RegenerateKey(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	st, err := h.streamService.RegenerateStreamKey(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// CreateThumbnailUpload godoc
// @Summary      Start thumbnail upload
// @Tags         streams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Param        request body UploadRequest true "Upload details"
// @Success      201 {object} dto.Response{data=upload.Ticket}
// @Router       /streams/{id}/thumbnail/upload [post]
func (h *StreamHandler) CreateThumbnailUpload(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	var req UploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ticket, err := h.streamService.CreateThumbnailUpload(c.Request.Context(), userID, id, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// SetThumbnail godoc
// @Summary      Set thumbnail
// @Tags         streams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Param        request body ConfirmUploadRequest true "Object key"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /streams/{id}/thumbnail [put]
func (h *StreamHandler) SetThumbnail(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.streamService.SetThumbnail(c.Request.Context(), userID, id, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Start godoc
// @Summary      Go live
// @Description  Only one live stream per streamer
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /streams/{id}/start [post]
func (h *StreamHandler) Start(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	st, err := h.streamService.StartStream(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// End godoc
// @Summary      End stream
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.StreamDTO}
// @Failure      422 {object} ErrorResponse
// @Router       /streams/{id}/end [post]
func (h *StreamHandler) End(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	st, err := h.streamService.EndStream(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Join godoc
// @Summary      Join stream
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.ViewerState}
// @Failure      422 {object} ErrorResponse
// @Router       /streams/{id}/join [post]
func (h *StreamHandler) Join(c *gin.Context) {
	h.viewerAction(c, h.streamService.JoinStream)
}

// Leave godoc
// @Summary      Leave stream
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.ViewerState}
// @Router       /streams/{id}/leave [post]
func (h *StreamHandler) Leave(c *gin.Context) {
	h.viewerAction(c, h.streamService.LeaveStream)
}

func (h *StreamHandler) viewerAction(c *gin.Context, action func(context.Context, uuid.UUID, uuid.UUID) (*appstream.ViewerState, error)) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	state, err := action(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Like godoc
// @Summary      Like stream
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=appstream.LikeResult}
// @Failure      422 {object} ErrorResponse
// @Router       /streams/{id}/like [post]
func (h *StreamHandler) Like(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}
	result, err := h.streamService.LikeStream(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Analytics godoc
// @Summary      Stream analytics
// @Description  Owner or admin only
// @Tags         streams
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Stream ID"
// @Success      200 {object} dto.Response{data=stream.Analytics}
// @Failure      403 {object} ErrorResponse
// @Router       /streams/{id}/analytics [get]
func (h *StreamHandler) Analytics(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	analytics, err := h.streamService.GetAnalytics(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analytics)
}

// ownerAndID returns the caller and the stream id from the path
func (h *StreamHandler) ownerAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (h *StreamHandler) actorAndID(c *gin.Context) (appstream.Actor, uuid.UUID, bool) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return appstream.Actor{}, uuid.Nil, false
	}
	return appstream.Actor{UserID: userID, IsAdmin: isAdmin(c)}, id, true
}
