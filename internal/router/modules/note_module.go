package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notely-app/notely-api/internal/container"
	"github.com/notely-app/notely-api/internal/domain/repository"
	handlers "github.com/notely-app/notely-api/internal/interface/http"
	"github.com/notely-app/notely-api/internal/interface/middleware"
	"github.com/notely-app/notely-api/pkg/helpers"
)

// NoteModule wires the notes CRUD behind the session gate.
// All routes require a valid bearer token for a verified identity.
type NoteModule struct {
	Handler *handlers.NoteHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewNoteModule(h *handlers.NoteHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *NoteModule {
	return &NoteModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *NoteModule) Register(rg *gin.RouterGroup) {
	notes := rg.Group("/notes")
	notes.Use(
		middleware.Auth(m.Repo, m.JWT),
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()),
	)
	{
		notes.POST("", m.Handler.Create)
		notes.GET("", m.Handler.List)
		notes.GET("/search", m.Handler.Search)
		notes.GET("/:id", m.Handler.Get)
		notes.PUT("/:id", m.Handler.Update)
		notes.DELETE("/:id", m.Handler.Delete)
	}
}
