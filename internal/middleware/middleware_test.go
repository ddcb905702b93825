package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnika-s/heart-temp-sub000/internal/config"
	"github.com/karnika-s/heart-temp-sub000/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	tok, err := utils.NewAccessToken(secret, 9, "USER", 5)
	require.NoError(t, err)

	tests := map[string]struct {
		header string
		status int
	}{
		"valid":      {"Bearer " + tok.Token, http.StatusOK},
		"no header":  {"", http.StatusUnauthorized},
		"not bearer": {"Basic abc", http.StatusUnauthorized},
		"bad token":  {"Bearer nope", http.StatusUnauthorized},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":9,"role":"USER"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("ADMIN")
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for role, want := range map[string]int{"ADMIN": http.StatusNoContent, "USER": http.StatusForbidden, "": http.StatusForbidden} {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if role != "" {
			c.Set(CtxRole, role)
		}
		require.NoError(t, h(c))
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestSubject(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "anon", subject(c))
	c.Set(CtxUserID, uint64(12))
	assert.Equal(t, "12", subject(c))
	c.Set(CtxUserID, float64(13))
	assert.Equal(t, "13", subject(c))
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/access-codes/redeem", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/access-codes/redeem")
	c.Set(CtxUserID, uint64(5))

	cfg := config.RateLimitConfig{Prefix: "rl"}
	for strategy, want := range map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:5",
		"user_route": "rl:user:5:route:POST /v1/access-codes/redeem",
		"":           "rl:ip:10.0.0.1:user:5:route:POST /v1/access-codes/redeem",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, rateKey(cfg, c), strategy)
	}
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
	called := 0
	next := func(c echo.Context) error { called++; return nil }
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	require.NoError(t, RateLimit(config.RateLimitConfig{Enabled: true}, nil)(next)(c))
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	require.NoError(t, rc.Middleware()(next)(c))
	require.NoError(t, rc.Invalidate()(next)(c))
	require.NoError(t, CORS(nil)(next)(c))
	assert.Equal(t, 4, called)
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS([]string{"https://app.example.org"}))
	e.GET("/v1/pools", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/v1/pools", nil)
	req.Header.Set("Origin", "https://app.example.org")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/pools", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = w.Write([]byte("abc"))
	assert.False(t, w.truncated)
	_, _ = w.Write([]byte("def"))
	assert.True(t, w.truncated)
	assert.Equal(t, "abcdef", rec.Body.String())
}
