package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	r.GET("/admin", RequireAuth(secret), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(42, "a@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(*Claims)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestRequireAuthWithBearerHeader(t *testing.T) {
	token, err := GenerateToken(7, "b@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestRequireAuthWithCookie(t *testing.T) {
	token, err := GenerateToken(7, "b@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthRejections(t *testing.T) {
	expired, err := GenerateToken(7, "b@example.com", "user", testSecret, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := GenerateToken(7, "b@example.com", "user", "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"无凭证", func(*http.Request) {}},
		{"过期 token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) }},
		{"签名不匹配", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+wrongKey) }},
		{"格式错误", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") }},
	}
	r := newAuthRouter(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "未登录")
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter(testSecret)

	userToken, err := GenerateToken(1, "u@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)
	adminToken, err := GenerateToken(2, "a@example.com", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSlidingRenewal(t *testing.T) {
	// 手工构造一个已消耗超过一半有效期的 token
	now := time.Now()
	claims := &Claims{
		UserID: 9,
		Email:  "c@example.com",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-40 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(20 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	r := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// 消耗过半应下发续期 cookie
	cookies := w.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "token" && c.Value != "" && c.Value != token {
			found = true
		}
	}
	assert.True(t, found, "应当下发新的 token cookie")
}

func TestNoRenewalForFreshToken(t *testing.T) {
	token, err := GenerateToken(9, "c@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	r := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/maybe", OptionalAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	// 无凭证也放行，user_id 为 0
	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)

	token, err := GenerateToken(5, "d@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"user_id":5`)
}
