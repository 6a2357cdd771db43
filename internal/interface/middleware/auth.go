package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notely-app/notely-api/internal/domain/repository"
	"github.com/notely-app/notely-api/pkg/helpers"
	"github.com/notely-app/notely-api/pkg/response"
)

// Auth validates the Authorization bearer token and loads the identity behind
// it. A missing token and a token pointing at a missing or unverified user
// both yield 401; a token that fails signature or expiry checks yields 403.
// Sets userID and userEmail in the Gin context on success.
func Auth(repo repository.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "Access token required", nil)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.AbortError(c, http.StatusForbidden, "Invalid or expired token", nil)
			return
		}

		u, err := repo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || !u.Verified {
			response.AbortError(c, http.StatusUnauthorized, "Invalid token or user not verified", nil)
			return
		}

		c.Set("userID", u.ID)
		c.Set("userEmail", u.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
