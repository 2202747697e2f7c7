package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"groupchat/internal/app/health"
	"groupchat/internal/db/dbtest"
	"groupchat/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, checker *utils.HealthChecker) (int, utils.HealthStatus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	health.RegisterRoutes(r.Group("/api"), health.NewHandler(health.NewService(checker)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var status utils.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w.Code, status
}

func TestHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	code, status := serve(t, &utils.HealthChecker{DB: dbtest.Open(t), DBName: "SQLite", Redis: client})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	require.Len(t, status.Services, 2)
	assert.Equal(t, "SQLite", status.Services[0].Name)
	assert.Equal(t, "up", status.Services[1].Status)
}

func TestRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	code, status := serve(t, &utils.HealthChecker{Redis: client, Timeout: 200 * time.Millisecond})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "down", status.Services[0].Status)
}
