package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkreview-backend/pkg/jwt"
)

func newAdminRouter(t *testing.T, manager *jwt.Manager) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/admin", AuthMiddleware(manager), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAdminGate(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)
	router := newAdminRouter(t, manager)

	adminToken, err := manager.GenerateToken("user-1", "admin")
	require.NoError(t, err)
	userToken, err := manager.GenerateToken("user-2", "user")
	require.NoError(t, err)
	foreignToken, err := jwt.NewManager("other-secret", time.Hour).GenerateToken("user-3", "admin")
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"admin token passes", "Bearer " + adminToken, http.StatusNoContent},
		{"non-admin role is forbidden", "Bearer " + userToken, http.StatusForbidden},
		{"wrong-secret token is rejected", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"missing header is rejected", "", http.StatusUnauthorized},
		{"malformed header is rejected", "Token abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
