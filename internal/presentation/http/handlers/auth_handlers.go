package handlers

import (
	"net/http"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/pkg/config"
	"github.com/gin-gonic/gin"
)

const adminCookieName = "admin_auth"

// AuthHandlers contains all authentication-related HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login - operator authentication
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("auth:post_login_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var loginReq struct {
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		AccessKey string `json:"accessKey" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		h.logger.Auth().Error("Login request JSON binding failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.authService.AuthenticateAdmin(loginReq.Email, loginReq.Password, loginReq.AccessKey)

	if !result.Success {
		h.logger.Auth().Warn("Login attempt failed", "error", result.Error, "duration", time.Since(start))
		marker.SetSuccess(false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	c.SetCookie(
		adminCookieName,
		result.Token,
		int(config.AdminTokenTTL.Seconds()),
		"/",
		"",    // domain (empty for current domain)
		false, // secure (set to true in production)
		true,  // httpOnly
	)

	h.logger.Auth().Info("Login successful", "role", result.Role, "duration", time.Since(start))
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"role":    result.Role,
		"message": "Login successful",
	})
}

// PostLogout handles POST /api/v1/auth/logout - clears the admin cookie
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	marker := h.perfTracker.StartOperation("auth:post_logout_request")
	defer marker.Complete()

	c.SetCookie(adminCookieName, "", -1, "/", "", false, true)

	marker.SetSuccess(true)
	h.logger.Auth().Info("Logout successful")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

// GetAuthStatus handles GET /api/v1/auth/status - reports the current session role
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	token, err := c.Cookie(adminCookieName)
	if err == nil && h.authService.ValidateAdminToken(token) {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "role": "admin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false, "role": nil})
}

// AdminOnlyMiddleware guards admin routes behind the JWT cookie, with an
// Authorization header fallback for non-browser clients.
func (h *AuthHandlers) AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookieName)
		if err != nil || token == "" {
			authHeader := c.GetHeader("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				token = authHeader[7:]
			}
		}

		if !h.authService.ValidateAdminToken(token) {
			h.logger.Auth().Debug("Admin route rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin authentication required"})
			return
		}

		c.Next()
	}
}
