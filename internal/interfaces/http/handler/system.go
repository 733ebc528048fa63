package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/interfaces/http/dto"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler handles health and build information requests
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	redis     Pinger
	startTime time.Time
}

// NewSystemHandler creates a new system handler. redis may be nil when
// Redis is not configured.
func NewSystemHandler(name, version string, db, redis Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		redis:     redis,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check result
// @Description Health check result
type HealthResponse struct {
	Status   string            `json:"status" example:"ok"`
	Version  string            `json:"version" example:"1.0.0"`
	Uptime   string            `json:"uptime" example:"1h30m45s"`
	Checks   map[string]string `json:"checks"`
	Datetime time.Time         `json:"datetime"`
}

// Health godoc
// @Summary      Health check
// @Description  Database and Redis reachability. Answers 503 when the database is down.
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Checks:   map[string]string{},
		Datetime: time.Now().UTC(),
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Checks["database"] = "down"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			resp.Checks["redis"] = "down"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["redis"] = "up"
		}
	}

	c.JSON(status, resp)
}

// SystemInfoResponse represents system information
// @Description System information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"PlayHub API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
