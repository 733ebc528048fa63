package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/identity"
	"github.com/playhub/backend/internal/application/profile"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
)

// UserHandler handles profile, follow and user administration requests
type UserHandler struct {
	BaseHandler
	profiles *profile.Service
	users    *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(profiles *profile.Service, users *identity.UserService) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		users:    users,
	}
}

// Search godoc
// @Summary      Search users
// @Description  Match usernames and display names
// @Tags         users
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]profile.UserSummary,meta=dto.Meta}
// @Failure      400 {object} ErrorResponse
// @Router       /users [get]
func (h *UserHandler) Search(c *gin.Context) {
	var query UserListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter := query.ToFilter()

	users, total, err := h.profiles.SearchUsers(c.Request.Context(), middleware.GetUserUUID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, filter)
}

// GetProfile godoc
// @Summary      Get profile
// @Description  Public profile; is_following is set for authenticated callers
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} dto.Response{data=profile.ProfileDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.profiles.GetProfile(c.Request.Context(), middleware.GetUserUUID(c), c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// UpdateProfile godoc
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=profile.ProfileDTO}
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /profile [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), userID, profile.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Location:    req.Location,
		Website:     req.Website,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// CreateAvatarUpload godoc
// @Summary      Start avatar upload
// @Description  Returns a presigned PUT URL for a new avatar image
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UploadRequest true "Upload details"
// @Success      201 {object} dto.Response{data=upload.Ticket}
// @Failure      400 {object} ErrorResponse
// @Router       /profile/avatar/upload [post]
func (h *UserHandler) CreateAvatarUpload(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req UploadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ticket, err := h.profiles.CreateAvatarUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// ConfirmAvatar godoc
// @Summary      Confirm avatar upload
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ConfirmUploadRequest true "Object key"
// @Success      200 {object} dto.Response{data=profile.ProfileDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /profile/avatar [put]
func (h *UserHandler) ConfirmAvatar(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.profiles.ConfirmAvatar(c.Request.Context(), userID, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Follow godoc
// @Summary      Follow a user
// @Description  Following twice is not an error
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Username"
// @Success      200 {object} dto.Response{data=profile.ProfileDTO}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /users/{username}/follow [post]
func (h *UserHandler) Follow(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.Follow(c.Request.Context(), userID, c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Username"
// @Success      200 {object} dto.Response{data=profile.ProfileDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /users/{username}/follow [delete]
func (h *UserHandler) Unfollow(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	p, err := h.profiles.Unfollow(c.Request.Context(), userID, c.Param("username"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListFollowers godoc
// @Summary      List followers
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]profile.UserSummary,meta=dto.Meta}
// @Failure      404 {object} ErrorResponse
// @Router       /users/{username}/followers [get]
func (h *UserHandler) ListFollowers(c *gin.Context) {
	h.listFollows(c, h.profiles.ListFollowers)
}

// ListFollowing godoc
// @Summary      List followed users
// @Tags         users
// @Produce      json
// @Param        username path string true "Username"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]profile.UserSummary,meta=dto.Meta}
// @Failure      404 {object} ErrorResponse
// @Router       /users/{username}/following [get]
func (h *UserHandler) ListFollowing(c *gin.Context) {
	h.listFollows(c, h.profiles.ListFollowing)
}

type followLister func(ctx context.Context, viewerID uuid.UUID, username string, filter shared.Filter) ([]profile.UserSummary, int64, error)

func (h *UserHandler) listFollows(c *gin.Context, list followLister) {
	var query UserListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter := query.ToFilter()

	users, total, err := list(c.Request.Context(), middleware.GetUserUUID(c), c.Param("username"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, users, total, filter)
}

// Suspend godoc
// @Summary      Suspend a user
// @Description  Admin only. Signs the user out everywhere.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/users/{id}/suspend [post]
func (h *UserHandler) Suspend(c *gin.Context) {
	adminID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	userID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Suspend(c.Request.Context(), adminID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Reactivate godoc
// @Summary      Reactivate a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/users/{id}/reactivate [post]
func (h *UserHandler) Reactivate(c *gin.Context) {
	adminID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	userID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Reactivate(c.Request.Context(), adminID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
