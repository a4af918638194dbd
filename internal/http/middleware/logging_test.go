package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// logLines decodes the captured JSON lines.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

// accessLine returns the access log entry for path.
func accessLine(t *testing.T, lines []map[string]any, path string) map[string]any {
	t.Helper()
	for _, m := range lines {
		if m["message"] == "request" && m["path"] == path {
			return m
		}
	}
	t.Fatalf("no access log for %s in %v", path, lines)
	return nil
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/rid", func(c *gin.Context) {
		seen = c.GetString(requestIDKey)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	assert.Len(t, w.Header().Get(requestIDHeader), 36, "minted id should be a uuid")
	assert.Equal(t, w.Header().Get(requestIDHeader), seen)

	for _, hdr := range []string{requestIDHeader, strings.ToLower(requestIDHeader)} {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rid", nil)
		req.Header.Set(hdr, "craft-42")
		r.ServeHTTP(w, req)
		assert.Equal(t, "craft-42", w.Header().Get(requestIDHeader))
		assert.Equal(t, "craft-42", seen)
	}
}

func TestLogger_LevelsByOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/elements/:id/details", func(c *gin.Context) { c.String(http.StatusOK, "{}") })
	r.POST("/craft", func(c *gin.Context) {
		_ = c.Error(errCraft{})
		c.Status(http.StatusBadRequest)
	})
	r.GET("/admin/reload", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/elements/base_fire/details?lang=en"},
		{http.MethodGet, "/missing"},
		{http.MethodPost, "/craft"},
		{http.MethodGet, "/admin/reload"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.target, nil))
	}

	lines := logLines(t, buf)

	ok := accessLine(t, lines, "/elements/:id/details")
	assert.Equal(t, "info", ok["level"])
	assert.Equal(t, "lang=en", ok["query"])
	assert.EqualValues(t, 200, ok["status"])
	assert.NotEmpty(t, ok["request_id"])

	assert.Equal(t, "warn", accessLine(t, lines, "/missing")["level"], "unmatched route falls back to raw path")

	craft := accessLine(t, lines, "/craft")
	assert.Equal(t, "error", craft["level"], "collected gin errors escalate to error")
	assert.Contains(t, craft["errors"], "pair generation failed")

	assert.Equal(t, "error", accessLine(t, lines, "/admin/reload")["level"])
}

type errCraft struct{}

func (errCraft) Error() string { return "pair generation failed" }

func TestLogger_ContextAndEnrichment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/guess/history", func(c *gin.Context) {
		WithLogFields(c, func(zc zerolog.Context) zerolog.Context {
			return zc.Str("user_id", "u-1")
		})
		zerolog.Ctx(c.Request.Context()).Info().Msg("from-service")
		LoggerFrom(c).Info().Msg("from-handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/guess/history", nil)
	req.Header.Set(requestIDHeader, "rid-ctx")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	require.Len(t, lines, 3)
	for _, m := range lines {
		assert.Equal(t, "rid-ctx", m["request_id"], m["message"])
		assert.Equal(t, "u-1", m["user_id"], m["message"])
	}
}

func TestLoggerFrom_FallsBackToGlobal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	LoggerFrom(c).Info().Msg("plain")

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "request_id")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("before write", func(t *testing.T) {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RequestID(), Logger(), Recovery())
		r.GET("/panic", func(*gin.Context) { panic("kaboom") })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		req.Header.Set(requestIDHeader, "rid-panic")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"request_id":"rid-panic","code":"internal_error","message":"internal server error"}`, w.Body.String())
		assert.Contains(t, buf.String(), `"panic":"kaboom"`)
		assert.Contains(t, buf.String(), `"stack"`)
	})

	t.Run("after write", func(t *testing.T) {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RequestID(), Logger(), Recovery())
		r.GET("/panic", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("late kaboom")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		assert.Equal(t, "partial", w.Body.String())
		assert.Contains(t, buf.String(), "panic recovered")
	})
}

func TestTruncateAndAsString(t *testing.T) {
	assert.Equal(t, "x", asString("x"))
	assert.Equal(t, "", asString(123))
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "abcde…", truncate("abcdefgh", 5))
	assert.Equal(t, "abc", truncate("abc", 0))
}
