package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitRouter(rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(rdb))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func TestRateLimitAllowsWithinWindow(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectIncr("rate_limit:192.0.2.1").SetVal(1)
	mock.ExpectExpire("rate_limit:192.0.2.1", rateLimitWindow).SetVal(true)

	r := rateLimitRouter(rdb)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectIncr("rate_limit:192.0.2.1").SetVal(rateLimitRequests + 1)

	r := rateLimitRouter(rdb)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectIncr("rate_limit:192.0.2.1").SetErr(assert.AnError)

	r := rateLimitRouter(rdb)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
