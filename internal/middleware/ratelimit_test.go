package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func newRateLimitRouter(t *testing.T, maxRequests int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := gin.New()
	r.Use(RateLimit(client, maxRequests))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, mr
}

func get(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitRejectsBurstOverLimit(t *testing.T) {
	r, _ := newRateLimitRouter(t, 2)

	assert.Equal(t, http.StatusOK, get(r))
	assert.Equal(t, http.StatusOK, get(r))
	assert.Equal(t, http.StatusTooManyRequests, get(r))
}

func TestRateLimitWindowResetsAfterExpiry(t *testing.T) {
	r, mr := newRateLimitRouter(t, 2)

	assert.Equal(t, http.StatusOK, get(r))
	assert.Equal(t, http.StatusOK, get(r))
	assert.Equal(t, http.StatusTooManyRequests, get(r))

	mr.FastForward(time.Second + 100*time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r))
}

func TestSteadySenderBelowLimitIsNeverThrottled(t *testing.T) {
	r, mr := newRateLimitRouter(t, 2)

	// One request every 600ms is below 2/s. The window must expire from the
	// first increment rather than being refreshed by each one, or this
	// client's counter would grow without bound.
	for i := 0; i < 5; i++ {
		assert.Equalf(t, http.StatusOK, get(r), "request %d should pass", i+1)
		mr.FastForward(600 * time.Millisecond)
	}
}

func TestRateLimitFailsOpenWhenRedisIsDown(t *testing.T) {
	r, mr := newRateLimitRouter(t, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, get(r))
	assert.Equal(t, http.StatusOK, get(r))
}
