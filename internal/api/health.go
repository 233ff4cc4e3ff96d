package api

import (
	"net/http"
	"time"

	"solo-persona/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports component health
type HealthHandler struct {
	checker   *health.Checker
	version   string
	startTime time.Time
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                       `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Version    string                       `json:"version"`
	Uptime     string                       `json:"uptime"`
	Components map[string]*health.Component `json:"components"`
}

func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version, startTime: time.Now()}
}

// Health runs the checks and returns 503 when a critical component is down
func (h *HealthHandler) Health(c *gin.Context) {
	h.checker.RunChecks()

	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Components: h.checker.GetStatus(),
	}
	code := http.StatusOK
	if !h.checker.IsSystemHealthy() {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// RegisterHealthRoutes registers health check related routes
func (h *HealthHandler) RegisterHealthRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
}
