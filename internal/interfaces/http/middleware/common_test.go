package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Len(t, rec.Body.String(), 36)
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://playhub.example"}
	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/api", okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "https://playhub.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, "https://playhub.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api", nil)
		req.Header.Set("Origin", "https://playhub.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		wild := gin.New()
		wild.Use(CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}))
		wild.GET("/api", okHandler)

		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		wild.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestSecure(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	router := gin.New()
	router.Use(Secure(cfg))
	router.GET("/api", okHandler)
	router.GET("/swagger/index.html", okHandler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(100))
	router.POST("/upload", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 200)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeRequestTooLarge)

	// chunked bodies have no declared length and are cut off while reading
	req = httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"a":"`+strings.Repeat("x", 200)+`"}`))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSwaggerProtection(t *testing.T) {
	newRouter := func(cfg SwaggerConfig) *gin.Engine {
		r := gin.New()
		r.GET("/swagger/*any", SwaggerProtection(cfg, nil), okHandler)
		return r
	}
	get := func(r *gin.Engine, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, get(newRouter(SwaggerConfig{}), "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(newRouter(SwaggerConfig{Enabled: true}), "10.0.0.1"))

	restricted := newRouter(SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.1.0.0/16", "192.168.1.5"}})
	assert.Equal(t, http.StatusOK, get(restricted, "10.1.2.3"))
	assert.Equal(t, http.StatusOK, get(restricted, "192.168.1.5"))
	assert.Equal(t, http.StatusForbidden, get(restricted, "172.16.0.1"))
}

type recordingHTTPMetrics struct {
	mu       sync.Mutex
	inFlight int
	routes   []string
	statuses []int
}

func (m *recordingHTTPMetrics) HTTPStarted() func() {
	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}
}

func (m *recordingHTTPMetrics) ObserveHTTP(_, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
	m.statuses = append(m.statuses, status)
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	rec := &recordingHTTPMetrics{}
	router := gin.New()
	router.Use(Metrics(DefaultHTTPMetricsConfig(rec)))
	router.GET("/api/v1/streams/:id", okHandler)
	router.GET("/health", okHandler)

	for _, path := range []string{"/api/v1/streams/123", "/api/v1/streams/456", "/health", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.routes, 3)
	assert.Equal(t, []string{"/api/v1/streams/:id", "/api/v1/streams/:id", ""}, rec.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusNotFound}, rec.statuses)
	assert.Zero(t, rec.inFlight)
}
