package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/craft", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	key := KeyByUserOrIP()
	assert.Equal(t, "ip:203.0.113.9", key(c))

	c.Set(userIDKey, "u123")
	assert.Equal(t, "user:u123", key(c))
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter("craft", 1, 0, KeyByUserOrIP())
	assert.Equal(t, 1, rl.burst, "non-positive burst is raised to 1")
	assert.Equal(t, 10*time.Minute, rl.ttl)

	first := rl.getVisitor("user:a")
	assert.Same(t, first, rl.getVisitor("user:a"))
	assert.NotSame(t, first, rl.getVisitor("user:b"))
}

func TestRateLimiter_SweepEvictsIdle(t *testing.T) {
	rl := NewRateLimiter("test", 1, 1, KeyByUserOrIP())

	rl.mu.Lock()
	rl.visitors["idle"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.visitors["busy"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now()}
	rl.cleanupN = sweepEvery - 1
	rl.mu.Unlock()

	_ = rl.getVisitor("fresh")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "idle")
	assert.Contains(t, rl.visitors, "busy")
	assert.Contains(t, rl.visitors, "fresh")
	assert.Zero(t, rl.cleanupN)
}

func TestRateLimiter_Handler_AllowAndDeny(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	rl := NewRateLimiter("handler-test", 0.001, 1, KeyByUserOrIP())
	r.POST("/craft", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(rateLimited.WithLabelValues("handler-test"))
	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/craft", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, send().Code)

	w := send()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body["code"])
	assert.Equal(t, w.Header().Get(requestIDHeader), body["request_id"])

	require.Equal(t, http.StatusTooManyRequests, send().Code)
	assert.Equal(t, before+2, testutil.ToFloat64(rateLimited.WithLabelValues("handler-test")))
}

func TestRateLimiter_PerUserBucketsAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter("per-user", 0.001, 1, KeyByUserOrIP())
	r.POST("/craft", func(c *gin.Context) {
		c.Set(userIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	}, rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/craft", nil)
		req.Header.Set("X-Test-User", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusOK, send("bob"), "each user has a separate bucket")
}
