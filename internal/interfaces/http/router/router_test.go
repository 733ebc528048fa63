package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/infrastructure/auth"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/playhub/backend/internal/infrastructure/telemetry"
	"github.com/playhub/backend/internal/interfaces/http/handler"
	"github.com/playhub/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testJWTConfig() middleware.JWTMiddlewareConfig {
	return middleware.JWTMiddlewareConfig{
		JWTService: auth.NewJWTService(config.JWTConfig{
			Secret:                 "router-test-secret-at-least-32-chars",
			RefreshSecret:          "router-test-refresh-secret-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "router-test",
		}),
	}
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, c.FullPath()) }

func TestRouter_Setup(t *testing.T) {
	t.Run("defaults to v1", func(t *testing.T) {
		r := NewRouter(gin.New())
		assert.Equal(t, "/api/v1", r.Prefix())
	})

	t.Run("mounts groups under the versioned prefix", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine, WithAPIVersion("v2"))
		r.Register(
			NewDomainGroup("a", "/a").GET("/ping", ok),
			NewDomainGroup("b", "/b").POST("", ok),
		)
		r.Setup()

		assert.Equal(t, "/api/v2/a/ping", serve(engine, http.MethodGet, "/api/v2/a/ping", nil).Body.String())
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodPost, "/api/v2/b", nil).Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/a/ping", nil).Code)
	})

	t.Run("router middleware runs before group middleware", func(t *testing.T) {
		engine := gin.New()
		var order []string
		mark := func(name string) gin.HandlerFunc {
			return func(c *gin.Context) {
				order = append(order, name)
				c.Next()
			}
		}

		r := NewRouter(engine).Use(mark("router"))
		g := NewDomainGroup("g", "/g", mark("group"))
		g.Group("sub", "/sub", mark("sub")).GET("/x", ok)
		r.Register(g)
		r.Setup()

		w := serve(engine, http.MethodGet, "/api/v1/g/sub/x", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"router", "group", "sub"}, order)
	})
}

func TestDomainGroup_Methods(t *testing.T) {
	g := NewDomainGroup("items", "/items")
	g.GET("/:id", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)
	g.Handle(http.MethodOptions, "", ok)

	engine := gin.New()
	g.RegisterRoutes(engine.Group("/api"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/items/1"},
		{http.MethodPost, "/api/items"},
		{http.MethodPut, "/api/items/1"},
		{http.MethodPatch, "/api/items/1"},
		{http.MethodDelete, "/api/items/1"},
		{http.MethodOptions, "/api/items"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serve(engine, tt.method, tt.path, nil).Code)
		})
	}

	assert.Equal(t, "items", g.Name())
	assert.Equal(t, "/items", g.Prefix())
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("store", "")
	g.Group("cart", "/cart").GET("", ok).POST("/items", ok)
	g.GET("/health", ok)

	assert.ElementsMatch(t, []string{
		"GET /health",
		"GET /cart",
		"POST /cart/items",
	}, g.Routes())
}

func TestNew_RouteTable(t *testing.T) {
	engine := New(Config{}, Deps{JWT: testJWTConfig()}, Handlers{})

	registered := map[string]bool{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"PUT /api/v1/auth/password",
		"GET /api/v1/users",
		"GET /api/v1/users/:username",
		"POST /api/v1/users/:username/follow",
		"DELETE /api/v1/users/:username/follow",
		"GET /api/v1/users/:username/followers",
		"PATCH /api/v1/profile",
		"PUT /api/v1/profile/avatar",
		"GET /api/v1/store/items",
		"GET /api/v1/store/categories",
		"POST /api/v1/products",
		"POST /api/v1/products/:id/stock",
		"GET /api/v1/cart",
		"POST /api/v1/cart/checkout",
		"PUT /api/v1/cart/items/:productId",
		"GET /api/v1/orders/sales",
		"POST /api/v1/orders/:id/fulfill",
		"POST /api/v1/payments/webhook",
		"GET /api/v1/streams",
		"POST /api/v1/streams/:id/join",
		"GET /api/v1/streamers/:id/streams",
		"GET /api/v1/conversations/unread-count",
		"POST /api/v1/conversations/:id/messages",
		"POST /api/v1/notifications/read-all",
		"DELETE /api/v1/notifications/:id",
		"POST /api/v1/admin/users/:id/suspend",
		"GET /swagger/*any",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}

	// optional collaborators are left out when nil
	assert.False(t, registered["GET /api/v1/ws"])
	assert.False(t, registered["GET /health"])
	assert.False(t, registered["GET /metrics"])
}

func TestNew_Middleware(t *testing.T) {
	jwt := testJWTConfig()
	engine := New(Config{
		HTTP: config.HTTPConfig{
			AuthRateLimitEnabled:  true,
			AuthRateLimitRequests: 1,
			AuthRateLimitWindow:   time.Minute,
		},
	}, Deps{JWT: jwt, Metrics: telemetry.NewMetrics()}, Handlers{
		Auth: handler.NewAuthHandler(nil, config.CookieConfig{}),
	})

	t.Run("protected routes need a token", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/cart", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("admin routes need the admin role", func(t *testing.T) {
		pair, err := jwt.JWTService.GenerateTokenPair(auth.GenerateTokenInput{
			UserID: uuid.New(), Username: "viewer", Role: "user",
		})
		require.NoError(t, err)

		w := serve(engine, http.MethodPost, "/api/v1/admin/users/"+uuid.NewString()+"/suspend", http.Header{
			"Authorization": {"Bearer " + pair.AccessToken},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("swagger is hidden when disabled", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/swagger/index.html", nil).Code)
	})

	t.Run("metrics endpoint is exposed", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("security headers are set", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/cart", nil)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("login is rate limited per client", func(t *testing.T) {
		// an empty body fails validation before the service is touched
		w := serve(engine, http.MethodPost, "/api/v1/auth/login", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = serve(engine, http.MethodPost, "/api/v1/auth/login", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
