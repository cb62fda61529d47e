package controller

import (
	"errors"

	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncQueueService *service.SyncQueueService
	PipelineService  *service.PipelineService
}

func NewSyncController(syncQueueService *service.SyncQueueService, pipelineService *service.PipelineService) *SyncController {
	return &SyncController{
		SyncQueueService: syncQueueService,
		PipelineService:  pipelineService,
	}
}

// Status godoc
// @Summary Sync queue status
// @Description Shows connectivity, queued entries, and the caller's prospects still pending sync.
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	entries, err := c.SyncQueueService.Entries(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	pending, err := c.PipelineService.PendingSync(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"online":      c.SyncQueueService.Online(),
		"queue":       entries,
		"pendingSync": pending,
	})
}

// Drain godoc
// @Summary Manually drain the sync queue
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "drain already running"
// @Router /api/sync/drain [post]
func (c *SyncController) Drain(ctx *gin.Context) {
	committed, err := c.SyncQueueService.Drain(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, util.ErrDrainInProgress) {
			util.Error(ctx, 409, "a drain is already running")
			return
		}
		// Partial progress is still worth reporting.
		util.Success(ctx, gin.H{"committed": committed, "stopped": err.Error()})
		return
	}
	util.Success(ctx, gin.H{"committed": committed})
}

// Discard godoc
// @Summary Drop a queue entry without syncing it
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param id path string true "local prospect id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/sync/queue/{id} [delete]
func (c *SyncController) Discard(ctx *gin.Context) {
	if err := c.SyncQueueService.Discard(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrQueueEntryNotFound) {
			util.NotFound(ctx, "queue entry not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"discarded": true})
}
