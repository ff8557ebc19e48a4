package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.revoked[jti], nil
}

type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (l *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-middleware",
		AccessTokenTTL: 15 * time.Minute,
	})
}

// echoIdentity 回显 JWTAuth 注入的身份
func echoIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.MustGet(CtxUserID).(uint),
		"role":    c.GetString(CtxRole),
		"jti":     c.GetString(CtxTokenJTI),
	})
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken(42, "teacher")
	require.NoError(t, err)
	claims, err := mgr.ParseToken(token)
	require.NoError(t, err)

	t.Run("有效 Token", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", JWTAuth(mgr, nil), echoIdentity)

		w := serve(r, "GET", "/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":42`)
		assert.Contains(t, w.Body.String(), claims.ID)
	})

	t.Run("缺少认证头", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", JWTAuth(mgr, nil), echoIdentity)

		assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", "").Code)
	})

	t.Run("格式无效", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", JWTAuth(mgr, nil), echoIdentity)

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Token "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("已注销", func(t *testing.T) {
		bl := &fakeBlacklist{revoked: map[string]bool{claims.ID: true}}
		r := gin.New()
		r.GET("/me", JWTAuth(mgr, bl), echoIdentity)

		assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", token).Code)
	})

	t.Run("黑名单查询失败时放行", func(t *testing.T) {
		bl := &fakeBlacklist{err: errors.New("redis down")}
		r := gin.New()
		r.GET("/me", JWTAuth(mgr, bl), echoIdentity)

		assert.Equal(t, http.StatusOK, serve(r, "GET", "/me", token).Code)
	})
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	studentToken, err := mgr.GenerateAccessToken(10, "student")
	require.NoError(t, err)
	teacherToken, err := mgr.GenerateAccessToken(1, "teacher")
	require.NoError(t, err)

	r := gin.New()
	r.POST("/posts", JWTAuth(mgr, nil), RoleAuth("teacher", "admin"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusForbidden, serve(r, "POST", "/posts", studentToken).Code)
	assert.Equal(t, http.StatusCreated, serve(r, "POST", "/posts", teacherToken).Code)
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	r := gin.New()
	r.POST("/login", RateLimit(limiter, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, "POST", "/login", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "POST", "/login", "").Code)
	w := serve(r, "POST", "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10004`)
}

func TestRateLimit_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		limiter RateLimiter
	}{
		{"未配置", nil},
		{"查询失败", &fakeLimiter{err: errors.New("redis down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", RateLimit(tt.limiter, 1, time.Minute), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			for i := 0; i < 3; i++ {
				assert.Equal(t, http.StatusOK, serve(r, "POST", "/login", "").Code)
			}
		})
	}
}

func TestSecurityAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(r, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allow   []string
		origin  string
		want    string
		withCre bool
	}{
		{"白名单", []string{"http://localhost:5173/"}, "http://localhost:5173", "http://localhost:5173", true},
		{"不在白名单", []string{"http://localhost:5173"}, "http://evil.example", "", false},
		{"通配", []string{"*"}, "http://any.example", "*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allow))
			r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest("GET", "/health", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.withCre, w.Header().Get("Access-Control-Allow-Credentials") == "true")
		})
	}

	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.POST("/posts", func(c *gin.Context) { c.Status(http.StatusCreated) })
	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://any.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code, "预检请求直接返回 204")
}
