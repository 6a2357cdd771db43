package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/application"
	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/pkg/response"
	"github.com/notely-app/notely-api/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
	DOB   string `json:"dob"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required,otp"`
}

// userPayload is the identity shape returned to clients. OTP state never
// leaves the server.
type userPayload struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

func toUserPayload(u *entity.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, Name: u.Name, IsVerified: u.Verified}
}

// authError translates service errors into the client-facing status and
// message for the OTP endpoints.
func (h *AuthHandler) authError(c *gin.Context, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		switch verr.Field {
		case "email":
			response.Error(c, http.StatusBadRequest, "Please enter a valid email address", nil)
		case "name":
			response.Error(c, http.StatusBadRequest, "Name must be between 2 and 50 characters long", nil)
		case "dob":
			response.Error(c, http.StatusBadRequest, "Please enter a valid date of birth", nil)
		default:
			response.Error(c, http.StatusBadRequest, verr.Error(), nil)
		}
	case errors.Is(err, application.ErrAlreadyRegistered):
		response.Error(c, http.StatusBadRequest, "User already exists. Please use login instead.", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error(c, http.StatusBadRequest, "User not found. Please sign up first.", nil)
	case errors.Is(err, application.ErrNoChallenge):
		response.Error(c, http.StatusBadRequest, "Invalid request. Please request a new OTP.", nil)
	case errors.Is(err, application.ErrOTPMismatch):
		response.Error(c, http.StatusBadRequest, "Invalid OTP. Please check and try again.", nil)
	case errors.Is(err, application.ErrOTPExpired):
		response.Error(c, http.StatusBadRequest, "OTP has expired. Please request a new one.", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("auth request failed")
		}
		response.Error(c, http.StatusInternalServerError, "Server error. Please try again later.", nil)
	}
}

// Signup POST /api/auth/signup
// Starts registration for a new email: stores a pending identity and sends
// an OTP. A verified email is rejected; an unverified one gets a fresh code.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email and name are required", validation.ToDetails(err))
		return
	}
	email, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{Email: req.Email, Name: req.Name, DOB: req.DOB})
	if err != nil {
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": email}, "OTP sent to your email address. Please verify to complete registration.")
}

// VerifySignup POST /api/auth/verify-signup
func (h *AuthHandler) VerifySignup(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email and OTP are required", validation.ToDetails(err))
		return
	}
	u, sess, err := h.Svc.VerifySignup(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": sess.Token, "user": toUserPayload(u)}, "Registration successful!")
}

// Login POST /api/auth/login
// Sends a login OTP to a verified identity. Never creates a record.
func (h *AuthHandler) Login(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email is required", validation.ToDetails(err))
		return
	}
	email, err := h.Svc.Login(c.Request.Context(), req.Email)
	if err != nil {
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": email}, "OTP sent to your email address")
}

// VerifyLogin POST /api/auth/verify-login
func (h *AuthHandler) VerifyLogin(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email and OTP are required", validation.ToDetails(err))
		return
	}
	u, sess, err := h.Svc.VerifyLogin(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, application.ErrNoChallenge) {
			response.Error(c, http.StatusBadRequest, "No OTP found. Please request a new one.", nil)
			return
		}
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"token": sess.Token, "user": toUserPayload(u)}, "Login successful!")
}

// ResendOTP POST /api/auth/resend-otp
// Re-issues a code for any existing identity, verified or not.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Email is required", validation.ToDetails(err))
		return
	}
	email, err := h.Svc.Resend(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error(c, http.StatusBadRequest, "User not found", nil)
			return
		}
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": email}, "New OTP sent to your email address")
}

// GetProfile GET /api/auth/profile (auth required)
func (h *AuthHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.Profile(c.Request.Context(), uid)
	if err != nil {
		h.authError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"isVerified": u.Verified,
		"createdAt":  u.CreatedAt,
		"updatedAt":  u.UpdatedAt,
	}}, "Profile retrieved successfully")
}
