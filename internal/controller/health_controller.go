package controller

import (
	"context"
	"time"

	"scout_crm_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB               *gorm.DB
	Redis            *redis.Client
	RemoteStore      *service.RemoteStoreService
	SyncQueueService *service.SyncQueueService
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, remoteStore *service.RemoteStoreService, syncQueueService *service.SyncQueueService) *HealthController {
	return &HealthController{
		DB:               db,
		Redis:            rdb,
		RemoteStore:      remoteStore,
		SyncQueueService: syncQueueService,
	}
}

// Check reports dependency health. Probing the remote store here also
// feeds the sync queue's connectivity state, so a passing health check
// after an outage kicks off a drain.
func (c *HealthController) Check(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	healthy := true

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.PingContext(probeCtx) != nil {
		status["database"] = "down"
		healthy = false
	} else {
		status["database"] = "up"
	}

	if err := c.Redis.Ping(probeCtx).Err(); err != nil {
		status["redis"] = "down"
		healthy = false
	} else {
		status["redis"] = "up"
	}

	if err := c.RemoteStore.Ping(probeCtx); err != nil {
		status["remoteStore"] = "down"
		c.SyncQueueService.SetOnline(probeCtx, false)
	} else {
		status["remoteStore"] = "up"
		c.SyncQueueService.SetOnline(context.Background(), true)
	}

	if !healthy {
		status["status"] = "degraded"
		ctx.JSON(503, status)
		return
	}
	ctx.JSON(200, status)
}
