package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-showtime-reservation/internal/config"
	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
	"github.com/iliyamo/cinema-showtime-reservation/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": c.Get(CtxUserID), "role": c.Get(CtxRole)})
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole("ADMIN"))

	user := uuid.New()
	tok, err := utils.NewAccessToken(secret, user, "USER", time.Minute)
	require.NoError(t, err)

	rec := serve(e, http.MethodGet, "/me", tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, user.String(), body["user"])
	assert.Equal(t, "USER", body["role"])

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", tok.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)

	wrong, err := utils.NewAccessToken("other-secret", user, "USER", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", wrong.Token).Code)

	expired, err := utils.NewAccessToken(secret, user, "USER", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", expired.Token).Code)
}

func TestRateLimitLocalBuckets(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		KeyStrategy:    "route",
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/book", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RateLimit(cfg, nil, logger.Nop()))

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/book", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/book", "").Code)
	rec := serve(e, http.MethodGet, "/book", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/book", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		RateLimit(config.RateLimitConfig{Enabled: false, Capacity: 1}, nil, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/book", "").Code)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showtimes/x/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/showtimes/:id/reservations")
	c.Set(CtxUserID, "u1")

	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:u1:route:POST /v1/showtimes/:id/reservations",
		rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
}

func TestResponseCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, TTL: time.Second, Prefix: "cache"}

	e := echo.New()
	called := false
	e.GET("/v1/showtimes", func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "fresh")
	}, ResponseCache(cfg, rdb))

	req := httptest.NewRequest(http.MethodGet, "/v1/showtimes?pageSize=2", nil)
	key := cacheKey(cfg, e.NewContext(req, httptest.NewRecorder()))
	payload, err := json.Marshal(cachedResponse{ContentType: echo.MIMEApplicationJSON, Body: []byte(`{"items":[]}`)})
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"items":[]}`, rec.Body.String())
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCachePassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/v1/showtimes", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") },
		ResponseCache(config.CacheConfig{Enabled: true}, nil))
	rec := serve(e, http.MethodGet, "/v1/showtimes", "")
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.DEBUG)
	e := echo.New()
	e.GET("/v1/showtimes/:id", func(c echo.Context) error { return c.NoContent(http.StatusTeapot) }, RequestLog(log))

	serve(e, http.MethodGet, "/v1/showtimes/42", "")
	out := buf.String()
	assert.True(t, strings.Contains(out, "/v1/showtimes/:id"), out)
	assert.Contains(t, out, "418")
}
