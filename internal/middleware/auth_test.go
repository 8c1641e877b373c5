package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"velour/config"
	"velour/internal/auth"
	"velour/internal/domain"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(t *testing.T, cfg *config.JWTConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/", AuthRequired(cfg))
	protected.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	protected.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "velour-test"}
	r := newAuthRouter(t, cfg)

	token, err := auth.GenerateAccessToken(cfg, 7, "club@velour.test", domain.RoleClub)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	otherCfg := &config.JWTConfig{AccessSecret: "wrong-secret", AccessExpiry: time.Hour, Issuer: "velour-test"}
	forged, err := auth.GenerateAccessToken(otherCfg, 7, "club@velour.test", domain.RoleClub)
	if err != nil {
		t.Fatalf("GenerateAccessToken(forged): %v", err)
	}
	expiredCfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: -time.Hour, Issuer: "velour-test"}
	expired, err := auth.GenerateAccessToken(expiredCfg, 7, "club@velour.test", domain.RoleClub)
	if err != nil {
		t.Fatalf("GenerateAccessToken(expired): %v", err)
	}

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong key", "/me", "Bearer " + forged, http.StatusUnauthorized},
		{"expired token", "/me", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + token, http.StatusOK},
		{"club hits admin route", "/admin", "Bearer " + token, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "velour-test"}
	r := newAuthRouter(t, cfg)

	token, err := auth.GenerateAccessToken(cfg, 1, "admin@velour.test", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
