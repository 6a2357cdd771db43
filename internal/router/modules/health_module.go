package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/notely-app/notely-api/internal/interface/http"
)

// HealthModule exposes the uptime endpoints. No auth, no rate limit: these
// are hit by keep-alive monitors.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.Handler.Health)
	rg.GET("/ping", m.Handler.Ping)
}
