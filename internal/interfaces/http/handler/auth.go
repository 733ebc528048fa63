package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/application/identity"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
)

// refreshCookiePath keeps the refresh token off every request but the auth ones
const refreshCookiePath = "/api/v1/auth"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookies     config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookies config.CookieConfig) *AuthHandler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

// Register godoc
// @Summary      Sign up
// @Description  Create an account and start a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Account details"
// @Success      201 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Created(c, result)
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with a username or email and a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Login:    req.Login,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Success(c, result)
}

// Refresh godoc
// @Summary      Refresh access token
// @Description  Exchange a refresh token (body or cookie) for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest false "Refresh token"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token, _ = c.Cookie(middleware.RefreshTokenCookie)
	}
	if token == "" {
		h.Unauthorized(c, "Refresh token is required")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), identity.RefreshTokenInput{RefreshToken: token})
	if err != nil {
		h.clearTokenCookies(c)
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Success(c, result)
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke the current access token and clear session cookies
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response
// @Failure      401 {object} ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	input := identity.LogoutInput{UserID: userID}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		input.TokenJTI = claims.ID
		input.TokenTTL = claims.GetRemainingTTL()
	}

	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}

	h.clearTokenCookies(c)
	h.Message(c, "Logged out successfully")
}

// Me godoc
// @Summary      Current user
// @Description  Get the authenticated user's account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      401 {object} ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Replace the password; every other session is signed out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200 {object} dto.Response{data=identity.AuthResult}
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setTokenCookies(c, result)
	h.Success(c, result)
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, result *identity.AuthResult) {
	now := time.Now()
	h.writeCookie(c, middleware.AccessTokenCookie, result.AccessToken, h.cookies.Path,
		maxAge(result.AccessTokenExpiresAt, now))
	h.writeCookie(c, middleware.RefreshTokenCookie, result.RefreshToken, refreshCookiePath,
		maxAge(result.RefreshTokenExpiresAt, now))
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	h.writeCookie(c, middleware.AccessTokenCookie, "", h.cookies.Path, -1)
	h.writeCookie(c, middleware.RefreshTokenCookie, "", refreshCookiePath, -1)
}

func (h *AuthHandler) writeCookie(c *gin.Context, name, value, path string, age int) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(name, value, age, path, h.cookies.Domain, h.cookies.Secure, true)
}

func maxAge(expiresAt, now time.Time) int {
	return max(int(expiresAt.Sub(now).Seconds()), 1)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
