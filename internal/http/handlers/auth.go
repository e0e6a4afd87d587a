package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/javuy-backend/internal/http/middleware"
	"github.com/yungbote/javuy-backend/internal/http/response"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type AuthHandlerConfig struct {
	// SecureCookie marks the token cookie Secure. On in production.
	SecureCookie bool
	CookieDomain string
}

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	cfg         AuthHandlerConfig
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
		cfg:         cfg,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := ah.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondServiceError(c, ah.log, err)
		return
	}
	ah.setTokenCookie(c, session.AccessToken)
	response.RespondCreated(c, gin.H{
		"message": "User created",
		"user": gin.H{
			"username": session.User.Username,
			"role":     session.User.Role,
		},
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
	})
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondServiceError(c, ah.log, err)
		return
	}
	ah.setTokenCookie(c, session.AccessToken)
	response.RespondOK(c, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"username": session.User.Username,
			"role":     session.User.Role,
			"xp":       session.User.XP,
		},
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
	})
}

// POST /api/auth/refresh
// body: { "refresh_token": "..." }
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondServiceError(c, ah.log, err)
		return
	}
	ah.setTokenCookie(c, session.AccessToken)
	response.RespondOK(c, gin.H{
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
	})
}

// POST /api/auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	_ = ah.authService.Logout(c.Request.Context(), middleware.ExtractToken(c))
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", ah.cfg.CookieDomain, ah.cfg.SecureCookie, true)
	response.RespondOK(c, gin.H{"message": "Logged out"})
}

// GET /api/auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

func (ah *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	maxAge := int(ah.authService.GetAccessTTL() / time.Second)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", ah.cfg.CookieDomain, ah.cfg.SecureCookie, true)
}
