package handlers

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthHandler serves the uptime endpoints used by keep-alive monitors.
// These bypass the response envelope: monitors expect a flat payload.
type HealthHandler struct {
	Env     string
	Version string
	Logger  *logrus.Logger
	started time.Time
}

func NewHealthHandler(env, version string, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Env: env, Version: version, Logger: logger, started: time.Now()}
}

// Health GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now().UTC()
	if h.Env == "production" && strings.Contains(c.GetHeader("User-Agent"), "KeepAlive") && h.Logger != nil {
		h.Logger.WithField("timestamp", now.Format(time.RFC3339)).Info("health check (keep-alive)")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   now.Format(time.RFC3339),
		"uptime":      time.Since(h.started).Seconds(),
		"environment": h.Env,
		"version":     h.Version,
		"memory": gin.H{
			"used":  float64(mem.HeapAlloc) / 1024 / 1024,
			"total": float64(mem.HeapSys) / 1024 / 1024,
		},
	})
}

// Ping GET /api/ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
