package services

import (
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/infrastructure/security"
	"github.com/pixreview/pixreview-go/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles operator authentication and JWT operations
type AuthService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateAdmin validates operator credentials and generates a JWT.
// The password check prefers the bcrypt hash when one is configured,
// with a plaintext fallback for dev setups.
func (a *AuthService) AuthenticateAdmin(email, password, accessKey string) *AuthResult {
	marker := a.perfTracker.StartOperation("auth:admin_login")
	defer marker.Complete()

	ok := email == config.AdminEmail && accessKey == config.AdminAccessKey

	if ok {
		if config.AdminPasswordHash != "" {
			ok = bcrypt.CompareHashAndPassword([]byte(config.AdminPasswordHash), []byte(password)) == nil
		} else {
			ok = password == config.AdminPassword
		}
	}

	if !ok {
		a.logger.LogAuthOperation("admin_login", email, false, nil)
		marker.SetSuccess(false)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateAdminToken(email, config.JWTSecret, config.AdminTokenTTL)
	if err != nil {
		a.logger.LogError(logging.ChannelAuth, "admin_login", err, nil)
		marker.SetError(err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.LogAuthOperation("admin_login", email, true, nil)
	marker.SetSuccess(true)
	return &AuthResult{Token: token, Role: "admin", Success: true}
}

// ValidateAdminToken checks a JWT and reports whether it carries a
// valid admin session.
func (a *AuthService) ValidateAdminToken(tokenString string) bool {
	if tokenString == "" {
		return false
	}
	claims, err := security.ValidateJWT(tokenString, config.JWTSecret)
	if err != nil {
		return false
	}
	return security.IsAdminClaims(claims)
}
