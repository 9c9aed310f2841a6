package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() { gin.SetMode(gin.TestMode) }

func get(r http.Handler, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	for _, m := range mutate {
		m(req)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	fromIP := func(ip string) func(*http.Request) {
		return func(req *http.Request) { req.RemoteAddr = ip + ":1234" }
	}

	assert.Equal(t, http.StatusOK, get(r, "/ping", fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", fromIP("10.0.0.1")).Code)
	w := get(r, "/ping", fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, get(r, "/ping", fromIP("10.0.0.2")).Code, "other IPs have their own bucket")
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, time.Minute)
	a := l.GetLimiter("1.2.3.4")
	b := l.GetLimiter("1.2.3.4")
	assert.Same(t, a, b)
	assert.NotSame(t, a, l.GetLimiter("5.6.7.8"))
}

func TestCache(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	calls := 0
	r := gin.New()
	r.Use(Cache(rc))
	r.GET("/api/machines", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/api/missing", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	w := get(r, "/api/machines")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())

	w = get(r, "/api/machines")
	assert.Equal(t, "HIT", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())

	rc.Flush()
	w = get(r, "/api/machines")
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())

	get(r, "/api/missing")
	get(r, "/api/missing")
	assert.Equal(t, 4, calls, "errors are not cached")
}

func TestCache_FlushDuringRequestIsNotOverwritten(t *testing.T) {
	rc := NewResponseCache(time.Minute)
	entered := make(chan struct{})
	release := make(chan struct{})
	version := "old"
	r := gin.New()
	r.Use(Cache(rc))
	r.GET("/api/machines", func(c *gin.Context) {
		body := version
		if body == "old" {
			close(entered)
			<-release
		}
		c.String(http.StatusOK, body)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- get(r, "/api/machines") }()

	// A write lands while the slow read is still in flight.
	<-entered
	version = "new"
	rc.Flush()
	close(release)

	w := <-done
	assert.Equal(t, "old", w.Body.String())
	assert.Equal(t, 0, rc.ItemCount(), "a response read before the flush is not cached")

	w = get(r, "/api/machines")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, "new", w.Body.String())
	assert.Equal(t, 1, rc.ItemCount())
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := get(r, "/ok")
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	incoming := uuid.New().String()
	w = get(r, "/ok", func(req *http.Request) { req.Header.Set(RequestIDHeader, incoming) })
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	w = get(r, "/ok", func(req *http.Request) { req.Header.Set(RequestIDHeader, "<script>") })
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	fields := entries[1].ContextMap()
	assert.Equal(t, incoming, fields["request_id"])
	assert.Equal(t, "/ok", fields["path"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("arcade")
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/machines/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	get(r, "/api/machines/1")
	get(r, "/api/machines/2")

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `arcade_http_requests_total{method="GET",path="/api/machines/:id",status="200"} 2`), body)
	assert.Contains(t, body, `arcade_http_responses_by_class_total{class="2xx"} 2`)

	// A second registry does not collide with the first.
	assert.NotPanics(t, func() { NewMetrics("arcade") })
}
