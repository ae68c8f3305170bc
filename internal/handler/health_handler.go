package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/yourusername/eduai-api/internal/service"
)

// HealthHandler отвечает на проверки живости сервиса
type HealthHandler struct {
	db          *gorm.DB
	redisClient redis.UniversalClient
	ai          service.AIProvider
	version     string
}

// NewHealthHandler создает новый обработчик health-check
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient, ai service.AIProvider, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		ai:          ai,
		version:     version,
	}
}

// Check пингует зависимости и возвращает сводный статус.
// При недоступной БД возвращает 503, недоступный Redis не считается
// фатальным (rate limiting и кеши работают в режиме fail-open).
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unavailable"
	}

	redisStatus := "ok"
	if h.redisClient == nil || h.redisClient.Ping(ctx).Err() != nil {
		redisStatus = "unavailable"
	}

	status := "ok"
	httpStatus := http.StatusOK
	if dbStatus != "ok" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":        status,
		"db":            dbStatus,
		"redis":         redisStatus,
		"ai_configured": h.ai != nil && h.ai.IsAvailable(),
		"version":       h.version,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
