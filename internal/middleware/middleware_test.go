package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/dgtt-autoecole/api-backend/internal/crypto"
	"github.com/dgtt-autoecole/api-backend/internal/database"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/models"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

const testCookie = "dgtt_session"

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSessions(t *testing.T) (*services.SessionService, *gorm.DB, *metrics.Registry) {
	t.Helper()

	db, err := database.InitDB(database.TestConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	encoded, err := crypto.GenerateAppKey()
	require.NoError(t, err)
	key, err := crypto.DecodeAppKey(encoded)
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	svc, err := services.NewSessionService(repositories.NewSessionRepository(db), reg, &services.SessionConfig{
		Key:      key,
		Lifetime: time.Hour,
	})
	require.NoError(t, err)
	return svc, db, reg
}

func sessionEngine(svc *services.SessionService) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(SessionMiddleware(svc, CookieConfig{Name: testCookie}))
	handler := func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			c.String(http.StatusInternalServerError, "no session")
			return
		}
		c.String(http.StatusOK, session.ID)
	}
	r.GET("/", handler)
	r.GET("/api/whoami", handler)
	return r
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Body.String())
		assert.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))
	})

	t.Run("incoming ID reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Body.String())
		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	svc, _, _ := setupSessions(t)
	r := sessionEngine(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := findCookie(rec, testCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
	assert.NotEmpty(t, rec.Body.String())
}

func TestSessionMiddleware_SecureCookie(t *testing.T) {
	svc, _, _ := setupSessions(t)
	r := gin.New()
	r.Use(SessionMiddleware(svc, CookieConfig{Name: testCookie, Secure: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookie := findCookie(rec, testCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestSessionMiddleware_CookieResumesSession(t *testing.T) {
	svc, _, _ := setupSessions(t)
	r := sessionEngine(svc)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := findCookie(first, testCookie)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.NotNil(t, findCookie(second, testCookie), "cookie is re-issued on every request")
}

func TestSessionMiddleware_TamperedCookieStartsFresh(t *testing.T) {
	svc, _, _ := setupSessions(t)
	r := sessionEngine(svc)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := findCookie(first, testCookie)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: cookie.Value + "x"})
	second := httptest.NewRecorder()
	r.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Body.String(), second.Body.String())
}

func TestSessionMiddleware_StorageFailure(t *testing.T) {
	svc, db, _ := setupSessions(t)
	r := sessionEngine(svc)
	require.NoError(t, database.Close(db))

	t.Run("api gets JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		assert.Nil(t, findCookie(rec, testCookie))

		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body.Error)
		assert.Equal(t, "Session storage unavailable", body.Message)
	})

	t.Run("view gets plain text", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		assert.Contains(t, rec.Body.String(), "Session storage unavailable")
	})
}

func TestSessionRateLimiter(t *testing.T) {
	limiter := NewSessionRateLimiter(1, time.Minute)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"), "burst of 2 exhausted")
	assert.True(t, limiter.Allow("b"), "keys have independent budgets")
}

func TestRateLimit_Middleware(t *testing.T) {
	svc, _, reg := setupSessions(t)

	r := gin.New()
	r.Use(SessionMiddleware(svc, CookieConfig{Name: testCookie}))
	limited := r.Group("/", RateLimit(NewSessionRateLimiter(1, time.Minute), reg))
	limited.POST("/api/counter/increment", func(c *gin.Context) { c.Status(http.StatusOK) })
	limited.POST("/counter/increment", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookie := findCookie(first, testCookie)
	require.NotNil(t, cookie)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		}
	}
	assert.Contains(t, codes, http.StatusTooManyRequests)
	assert.GreaterOrEqual(t, testutil.ToFloat64(reg.RateLimitedTotal), 1.0)

	// A fresh session draws on the client IP budget, which still has a token
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/counter/increment", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestObservability_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()

	r := gin.New()
	r.Use(RequestID(), Observability(reg))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("/health", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("unknown", "GET", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.HTTPRequestsInFlight.WithLabelValues("/health")))
}

func rateLimitedEngine(t *testing.T) *gin.Engine {
	t.Helper()
	svc, _, reg := setupSessions(t)

	r := gin.New()
	r.Use(SessionMiddleware(svc, CookieConfig{Name: testCookie}))
	limited := r.Group("/", RateLimit(NewSessionRateLimiter(1, time.Minute), reg))
	limited.POST("/api/counter/increment", func(c *gin.Context) { c.Status(http.StatusOK) })
	limited.POST("/counter/increment", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_DroppingCookieDoesNotResetBudget(t *testing.T) {
	r := rateLimitedEngine(t)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	// Another client IP keeps its own budget
	req := httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ResponseFormats(t *testing.T) {
	exhaust := func(r *gin.Engine, path string) *httptest.ResponseRecorder {
		var rec *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			rec = httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		}
		return rec
	}

	t.Run("api gets JSON", func(t *testing.T) {
		rec := exhaust(rateLimitedEngine(t), "/api/counter/increment")

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Too many requests", body.Error)
		assert.NotEmpty(t, body.Message)
	})

	t.Run("view gets plain text", func(t *testing.T) {
		rec := exhaust(rateLimitedEngine(t), "/counter/increment")

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	})
}

func TestObservability_LogsRequestContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(zap.NewNop()) })

	svc, _, _ := setupSessions(t)
	r := gin.New()
	r.Use(RequestID(), Observability(metrics.NewRegistry()))
	r.Use(SessionMiddleware(svc, CookieConfig{Name: testCookie}))
	r.GET("/api/whoami", func(c *gin.Context) {
		session, _ := GetSession(c)
		c.String(http.StatusOK, session.ID)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(RequestIDHeader, "req-log-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-log-1", fields["request_id"])
	assert.Equal(t, "/api/whoami", fields["route"])
	assert.Equal(t, rec.Body.String(), fields["session_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.EqualValues(t, http.StatusOK, fields["status_code"])
}
