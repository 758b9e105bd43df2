package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/bookify/internal/config"
	"github.com/user/bookify/internal/middleware"
	"github.com/user/bookify/internal/repository"
	"github.com/user/bookify/internal/utils"
)

const testSecret = "handler-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Env:         "test",
		AppSecret:   testSecret,
		JWTExpiry:   time.Hour,
		FrontendURL: "http://localhost:3000",
	}
}

// newTestRouter 组装带 sqlmock 数据库的完整路由
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitCache()
	RegisterValidators()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	h := NewHandler(repository.NewRepositories(db), testConfig())
	r := gin.New()
	registerTestRoutes(r, h)
	return r, mock
}

// registerTestRoutes 与生产路由保持一致的子集
func registerTestRoutes(r *gin.Engine, h *Handler) {
	auth := r.Group("/auth")
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.POST("/google-login", h.GoogleLogin)
	auth.POST("/logout", h.Logout)

	user := r.Group("/api")
	user.Use(middleware.RequireAuth(h.Config.AppSecret))
	user.GET("/user/me", h.Me)
	user.GET("/favorites", h.ListFavorites)
	user.POST("/favorites", h.AddFavorite)
	user.DELETE("/favorites/:bookId", h.RemoveFavorite)
	user.POST("/favorites/sync", h.SyncFavorites)

	admin := r.Group("/api/featured")
	admin.Use(middleware.RequireAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin())
	admin.POST("", h.CreateFeatured)
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func userToken(t *testing.T, id int, role string) string {
	t.Helper()
	token, err := middleware.GenerateToken(id, "u@example.com", role, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func userRows(id int, email, passwordHash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "google_id", "avatar", "role", "created_at"}).
		AddRow(id, "张三", email, passwordHash, "", "", "user", time.Now())
}

func TestSignupValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"缺少字段", map[string]string{"email": "a@example.com"}},
		{"邮箱格式错误", map[string]string{"name": "张三", "email": "not-an-email", "password": "secret123"}},
		{"口令太短", map[string]string{"name": "张三", "email": "a@example.com", "password": "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WillReturnRows(userRows(1, "taken@example.com", "x"))

	w := doJSON(r, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "张三", "email": "taken@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "已被注册")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupSuccess(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "users" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	w := doJSON(r, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "张三", "email": "new@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "new@example.com", resp.Data.User.Email)
	// 口令哈希不得出现在响应里
	assert.NotContains(t, w.Body.String(), "password")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	r, mock := newTestRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("real-password"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WillReturnRows(userRows(1, "z@example.com", string(hash)))

	w := doJSON(r, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "z@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "邮箱或口令错误")
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	// 未注册邮箱与口令错误返回同一提示，不泄露账号是否存在
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doJSON(r, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "邮箱或口令错误")
}

func TestLoginSuccess(t *testing.T) {
	r, mock := newTestRouter(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("real-password"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1.*`).
		WillReturnRows(userRows(1, "z@example.com", string(hash)))

	w := doJSON(r, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "z@example.com", "password": "real-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestGoogleLoginMissingCredential(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/google-login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/favorites"},
		{http.MethodPost, "/api/favorites"},
		{http.MethodDelete, "/api/favorites/vol-1"},
		{http.MethodPost, "/api/favorites/sync"},
		{http.MethodGet, "/api/user/me"},
	} {
		w := doJSON(r, req.method, req.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.method, req.path)
	}
}

func TestAddFavoriteMissingBookID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/favorites", userToken(t, 1, "user"), map[string]string{
		"title": "没有 ID 的书",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "图书 ID 不能为空")
}

func TestAddFavoriteDuplicateReturns400(t *testing.T) {
	r, mock := newTestRouter(t)

	// ON CONFLICT DO NOTHING 没有插入任何行
	mock.ExpectQuery(`INSERT INTO "favorites" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doJSON(r, http.MethodPost, "/api/favorites", userToken(t, 1, "user"), map[string]string{
		"bookId": "vol-1", "title": "围城",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "已在收藏夹中")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavoriteSuccessReturnsList(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`INSERT INTO "favorites" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "favorites" WHERE user_id = $1 ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "book_id", "title"}).
			AddRow(1, 1, "vol-1", "围城"))

	w := doJSON(r, http.MethodPost, "/api/favorites", userToken(t, 1, "user"), map[string]string{
		"bookId": "vol-1", "title": "围城",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"vol-1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFavoriteIdempotent(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "favorites" WHERE user_id = $1 AND book_id = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "favorites" WHERE user_id = $1 ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "book_id", "title"}))

	// 删除不存在的收藏也返回 200 和当前列表
	w := doJSON(r, http.MethodDelete, "/api/favorites/ghost", userToken(t, 1, "user"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncFavoritesMergesServerFirst(t *testing.T) {
	r, mock := newTestRouter(t)

	serverList := sqlmock.NewRows([]string{"id", "user_id", "book_id", "title"}).
		AddRow(1, 1, "s1", "服务端已有")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "favorites" WHERE user_id = $1 ORDER BY id ASC`)).
		WillReturnRows(serverList)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "favorites" WHERE user_id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "favorites" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2).AddRow(3))
	mock.ExpectCommit()

	merged := sqlmock.NewRows([]string{"id", "user_id", "book_id", "title"}).
		AddRow(2, 1, "s1", "服务端已有").
		AddRow(3, 1, "c1", "本地新增")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "favorites" WHERE user_id = $1 ORDER BY id ASC`)).
		WillReturnRows(merged)

	w := doJSON(r, http.MethodPost, "/api/favorites/sync", userToken(t, 1, "user"), map[string]interface{}{
		"favorites": []map[string]string{
			{"bookId": "s1", "title": "服务端已有"},
			{"bookId": "c1", "title": "本地新增"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Favorites []struct {
				BookID string `json:"bookId"`
			} `json:"favorites"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Favorites, 2)
	assert.Equal(t, "s1", resp.Data.Favorites[0].BookID)
	assert.Equal(t, "c1", resp.Data.Favorites[1].BookID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeGoneAccountIsUnauthorized(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1.*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doJSON(r, http.MethodGet, "/api/user/me", userToken(t, 99, "user"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateFeaturedRejectsRatingOutOfRange(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/featured", userToken(t, 2, "admin"), map[string]interface{}{
		"title": "活着", "author": "余华", "cover": "c", "description": "d", "rating": 9.9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateFeaturedForbiddenForNonAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/featured", userToken(t, 1, "user"), map[string]interface{}{
		"title": "活着", "author": "余华", "cover": "c", "description": "d",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateFeaturedAsAdmin(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "featured_books"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO "featured_books" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	w := doJSON(r, http.MethodPost, "/api/featured", userToken(t, 2, "admin"), map[string]interface{}{
		"title": "活着", "author": "余华", "cover": "https://example.com/c.jpg", "description": "d", "rating": 4.8,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	// 新条目排在末尾
	assert.Contains(t, w.Body.String(), `"order":2`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
