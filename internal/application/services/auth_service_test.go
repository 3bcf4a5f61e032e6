package services

import (
	"testing"

	"github.com/pixreview/pixreview-go/pkg/config"
)

func TestAuthenticateAdmin(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), newTestTracker())

	tests := []struct {
		name      string
		email     string
		password  string
		accessKey string
		want      bool
	}{
		{"valid credentials", config.AdminEmail, config.AdminPassword, config.AdminAccessKey, true},
		{"wrong email", "other@pixreview.com", config.AdminPassword, config.AdminAccessKey, false},
		{"wrong password", config.AdminEmail, "wrong", config.AdminAccessKey, false},
		{"wrong access key", config.AdminEmail, config.AdminPassword, "WRONGKEY12345678", false},
		{"all empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.AuthenticateAdmin(tt.email, tt.password, tt.accessKey)
			if result.Success != tt.want {
				t.Fatalf("AuthenticateAdmin() success = %v, want %v (error: %s)", result.Success, tt.want, result.Error)
			}
			if tt.want && result.Token == "" {
				t.Error("successful login returned empty token")
			}
			if tt.want && result.Role != "admin" {
				t.Errorf("role = %q, want admin", result.Role)
			}
		})
	}
}

func TestValidateAdminToken(t *testing.T) {
	svc := NewAuthService(newTestLogger(t), newTestTracker())

	login := svc.AuthenticateAdmin(config.AdminEmail, config.AdminPassword, config.AdminAccessKey)
	if !login.Success {
		t.Fatalf("login failed: %s", login.Error)
	}

	if !svc.ValidateAdminToken(login.Token) {
		t.Error("freshly issued token rejected")
	}
	if svc.ValidateAdminToken("") {
		t.Error("empty token accepted")
	}
	if svc.ValidateAdminToken("not-a-jwt") {
		t.Error("garbage token accepted")
	}
	if svc.ValidateAdminToken(login.Token + "tampered") {
		t.Error("tampered token accepted")
	}
}
