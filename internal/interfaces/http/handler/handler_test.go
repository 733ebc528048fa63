package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/application/chat"
	appidentity "github.com/playhub/backend/internal/application/identity"
	appnotification "github.com/playhub/backend/internal/application/notification"
	"github.com/playhub/backend/internal/application/profile"
	appstore "github.com/playhub/backend/internal/application/store"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"github.com/playhub/backend/internal/infrastructure/cache"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/payment"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/storage"
	"github.com/playhub/backend/internal/interfaces/http/dto"
	"github.com/playhub/backend/internal/interfaces/http/handler"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
	"github.com/playhub/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	identity.PasswordHashCost = bcrypt.MinCost
	middleware.SetupValidator()
	os.Exit(m.Run())
}

// apiServer wires the handlers to real services over an in-memory database
type apiServer struct {
	engine *gin.Engine
	events *testutil.RecordingPublisher
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zap.NewNop()
	events := testutil.NewRecordingPublisher()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-32-characters",
		RefreshSecret:          "handler-test-refresh-secret-32-chr",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "playhub-test",
		MaxRefreshCount:        10,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	idem := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idem.Close() })

	userRepo := persistence.NewGormUserRepository(db)
	followRepo := persistence.NewGormFollowRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	scope := persistence.NewGormTransactionScope(db)
	uploads := upload.NewService(storage.NewStubObjectStorage(""), 0, 0)
	gateway := payment.NewStubGateway()

	authHandler := handler.NewAuthHandler(
		appidentity.NewAuthService(userRepo, jwtService, blacklist, events, logger),
		config.CookieConfig{Path: "/", SameSite: "lax"},
	)
	userHandler := handler.NewUserHandler(
		profile.NewService(userRepo, followRepo, uploads, events, logger),
		appidentity.NewUserService(userRepo, jwtService, blacklist, events, logger),
	)
	productHandler := handler.NewProductHandler(appstore.NewProductService(productRepo, uploads, logger))
	cartHandler := handler.NewCartHandler(
		appstore.NewCartService(cartRepo, productRepo, logger),
		appstore.NewCheckoutService(appstore.CheckoutDeps{
			Scope:       scope,
			CartRepo:    cartRepo,
			ProductRepo: productRepo,
			OrderRepo:   orderRepo,
			Gateway:     gateway,
			Idempotency: idem,
			Events:      events,
			Logger:      logger,
		}),
	)
	orderHandler := handler.NewOrderHandler(appstore.NewOrderService(appstore.OrderDeps{
		Scope:       scope,
		OrderRepo:   orderRepo,
		Gateway:     gateway,
		Idempotency: idem,
		Events:      events,
		Logger:      logger,
	}))
	chatHandler := handler.NewChatHandler(chat.NewService(
		persistence.NewGormConversationRepository(db),
		persistence.NewGormMessageRepository(db),
		userRepo, events, logger,
	))
	notificationHandler := handler.NewNotificationHandler(
		appnotification.NewService(persistence.NewGormNotificationRepository(db), logger),
	)

	jwtCfg := middleware.JWTMiddlewareConfig{JWTService: jwtService, TokenBlacklist: blacklist, Logger: logger}
	engine := gin.New()
	engine.Use(middleware.RequestID())

	v1 := engine.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.Refresh)
	v1.POST("/payments/webhook", orderHandler.PaymentWebhook)

	public := v1.Group("", middleware.OptionalJWTAuth(jwtCfg))
	public.GET("/users/:username", userHandler.GetProfile)
	public.GET("/store/items", productHandler.ListStoreItems)

	authed := v1.Group("", middleware.JWTAuth(jwtCfg))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)
	authed.PATCH("/profile", userHandler.UpdateProfile)
	authed.POST("/users/:username/follow", userHandler.Follow)
	authed.DELETE("/users/:username/follow", userHandler.Unfollow)
	authed.POST("/products", productHandler.Create)
	authed.POST("/cart/items", cartHandler.AddItem)
	authed.POST("/cart/checkout", cartHandler.Checkout)
	authed.GET("/orders", orderHandler.ListMine)
	authed.POST("/conversations", chatHandler.StartConversation)
	authed.POST("/conversations/:id/messages", chatHandler.SendMessage)
	authed.GET("/conversations/:id/messages", chatHandler.GetMessages)
	authed.GET("/conversations/unread-count", chatHandler.UnreadCount)
	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

	return &apiServer{engine: engine, events: events}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	headers map[string]string
	cookies []*http.Cookie
}

func (s *apiServer) do(t *testing.T, c call) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

// signUp registers a user and returns its access token and public info
func (s *apiServer) signUp(t *testing.T, username string) (string, appidentity.UserInfo) {
	t.Helper()
	rec, resp := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/v1/auth/register",
		body: map[string]string{
			"username": username,
			"email":    username + "@example.com",
			"password": "hunter2hunter2",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result appidentity.AuthResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	return result.AccessToken, *result.User
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
