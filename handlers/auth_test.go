package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabwrite/collabwrite/internal/config"
	"github.com/collabwrite/collabwrite/internal/sessions"
	"github.com/collabwrite/collabwrite/internal/users"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions.SetBlacklistClient(client)

	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}}
	usersSvc := users.NewService(users.NewMemoryUserRepository())
	sessionsSvc := sessions.NewService(sessions.NewRedisRepository(client, "session"))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(cfg, usersSvc, sessionsSvc).Register(r.Group("/api"))
	return r
}

func post(t *testing.T, r *gin.Engine, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine) map[string]any {
	t.Helper()
	w := post(t, r, "/api/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"secret-password"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	r := newAuthRouter(t)
	resp := register(t, r)
	assert.NotEmpty(t, resp["accessToken"])
	assert.NotEmpty(t, resp["refreshToken"])
	user := resp["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, resp, "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := newAuthRouter(t)
	register(t, r)
	w := post(t, r, "/api/auth/register",
		`{"username":"alice2","email":"alice@example.com","password":"another-password"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	r := newAuthRouter(t)
	register(t, r)

	w := post(t, r, "/api/auth/login", `{"email":"alice@example.com","password":"secret-password"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")

	w = post(t, r, "/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	r := newAuthRouter(t)
	resp := register(t, r)
	refresh := resp["refreshToken"].(string)

	w := post(t, r, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accessToken")

	w = post(t, r, "/api/auth/refresh", `{"refreshToken":"bogus"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutInvalidatesRefreshAndBlacklistsAccess(t *testing.T) {
	r := newAuthRouter(t)
	resp := register(t, r)
	refresh := resp["refreshToken"].(string)
	access := resp["accessToken"].(string)

	w := post(t, r, "/api/auth/logout", `{"refreshToken":"`+refresh+`"}`, access)
	require.Equal(t, http.StatusOK, w.Code)

	// the refresh token is gone
	w = post(t, r, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	black, err := sessions.IsAccessTokenBlacklisted(t.Context(), access)
	require.NoError(t, err)
	assert.True(t, black)
}

func TestParseExpFromJWT(t *testing.T) {
	_, err := parseExpFromJWT("not-a-jwt")
	assert.Error(t, err)
}
