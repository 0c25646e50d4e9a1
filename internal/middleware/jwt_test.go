package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlane/backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(jwtService *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(JWT(jwtService))
	router.GET("/protected", func(c *gin.Context) {
		userID := c.MustGet(ContextUserID).(uuid.UUID)
		email := c.MustGet(ContextUserEmail).(string)
		c.JSON(http.StatusOK, gin.H{"user_id": userID.String(), "email": email})
	})
	return router
}

func TestJWTMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 1)
	router := setupRouter(jwtService)

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtService.Generate(uuid.New(), "alice@x.com", "user")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice@x.com")
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService("other-secret", 1)
		token, err := other.Generate(uuid.New(), "mallory@x.com", "user")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
