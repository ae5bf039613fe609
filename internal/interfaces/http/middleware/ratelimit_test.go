package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/keyhub/internal/infrastructure/ratelimit"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

type countingLimiter struct {
	max  int
	seen map[string]int
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, key string, _ ratelimit.Limits) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.seen[key]++
	return l.seen[key] <= l.max, nil
}

func newLimitedEngine(limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/report",
		RateLimit(limiter, ratelimit.Limits{PerMinute: 2}, "report", logger.NewNopLogger()),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func post(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/report", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{max: 2, seen: map[string]int{}}
	r := newLimitedEngine(limiter)

	assert.Equal(t, http.StatusOK, post(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, post(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "10.0.0.1"))

	assert.Equal(t, http.StatusOK, post(r, "10.0.0.2"))
	assert.Equal(t, 3, limiter.seen["report:10.0.0.1"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := newLimitedEngine(limiter)

	assert.Equal(t, http.StatusOK, post(r, "10.0.0.1"))
}
