package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/application"
	"github.com/notely-app/notely-api/internal/infrastructure/google"
	"github.com/notely-app/notely-api/pkg/helpers"
	"github.com/notely-app/notely-api/pkg/response"
)

const oauthStateTTL = 10 * time.Minute

// GoogleHandler drives the Google sign-in roundtrip: redirect to the consent
// screen with a one-shot state nonce, then resolve the asserted profile into
// a local identity and hand a session token back to the frontend.
type GoogleHandler struct {
	Google      *google.Client
	Linker      *application.Linker
	Auth        *application.AuthService
	RDB         *redis.Client
	Logger      *logrus.Logger
	FrontendURL string
}

func NewGoogleHandler(gc *google.Client, linker *application.Linker, auth *application.AuthService, rdb *redis.Client, logger *logrus.Logger, frontendURL string) *GoogleHandler {
	return &GoogleHandler{Google: gc, Linker: linker, Auth: auth, RDB: rdb, Logger: logger, FrontendURL: frontendURL}
}

func genState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Start GET /api/auth/google
func (h *GoogleHandler) Start(c *gin.Context) {
	if h.Google == nil {
		response.Error(c, http.StatusServiceUnavailable, "Google sign-in is not configured", nil)
		return
	}
	state, err := genState()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
		return
	}
	if h.RDB != nil {
		if err := helpers.SaveOAuthState(c.Request.Context(), h.RDB, state, oauthStateTTL); err != nil {
			if h.Logger != nil {
				h.Logger.WithError(err).Error("failed to persist oauth state")
			}
			response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
			return
		}
	}
	c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthCodeURL(state))
}

// Callback GET /api/auth/google/callback
func (h *GoogleHandler) Callback(c *gin.Context) {
	if h.Google == nil {
		response.Error(c, http.StatusServiceUnavailable, "Google sign-in is not configured", nil)
		return
	}
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.Error(c, http.StatusBadRequest, "Missing code or state", nil)
		return
	}
	if h.RDB != nil {
		ok, err := helpers.ConsumeOAuthState(c.Request.Context(), h.RDB, state)
		if err != nil {
			if h.Logger != nil {
				h.Logger.WithError(err).Error("oauth state lookup failed")
			}
			response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
			return
		}
		if !ok {
			response.Error(c, http.StatusBadRequest, "Invalid or expired state", nil)
			return
		}
	}

	profile, err := h.Google.FetchProfile(c.Request.Context(), code)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("google code exchange failed")
		}
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	u, err := h.Linker.Resolve(c.Request.Context(), application.ExternalProfile{
		ProviderID: profile.ID,
		Email:      profile.Email,
		Name:       profile.Name,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("resolving google identity failed")
		}
		response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
		return
	}

	sess, err := h.Auth.Mint(u)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
		return
	}

	redirect := h.FrontendURL + "/auth/google?token=" + url.QueryEscape(sess.Token) +
		"&email=" + url.QueryEscape(u.Email) +
		"&name=" + url.QueryEscape(u.Name)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}
