package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/collabwrite/collabwrite/internal/config"
	"github.com/collabwrite/collabwrite/internal/models"
	"github.com/collabwrite/collabwrite/internal/tokens"
)

func authTestSetup(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "mw-test-secret"}}
	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c), "username": Username(c)})
	})
	return r, cfg
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	r, cfg := authTestSetup(t)
	u := &models.User{ID: "u1", Username: "alice"}
	tok, err := tokens.GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"userId":"u1"`)
	require.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestAuthMiddleware_MissingAndMalformed(t *testing.T) {
	r, _ := authTestSetup(t)

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
