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

// AuthModule wires the OTP and Google sign-in endpoints.
// Public: POST /api/auth/{signup,verify-signup,login,verify-login,resend-otp},
// GET /api/auth/google{,/callback}
// Protected: GET /api/auth/profile
//
// The OTP endpoints themselves are never rate limited; only the protected
// profile route carries a per-user limiter.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Google  *handlers.GoogleHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, g *handlers.GoogleHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Google: g, Repo: repo, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", m.Handler.Signup)
		auth.POST("/verify-signup", m.Handler.VerifySignup)
		auth.POST("/login", m.Handler.Login)
		auth.POST("/verify-login", m.Handler.VerifyLogin)
		auth.POST("/resend-otp", m.Handler.ResendOTP)

		auth.GET("/google", m.Google.Start)
		auth.GET("/google/callback", m.Google.Callback)
	}

	protected := rg.Group("/auth")
	protected.Use(
		middleware.Auth(m.Repo, m.JWT),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()),
	)
	{
		protected.GET("/profile", m.Handler.GetProfile)
	}
}
