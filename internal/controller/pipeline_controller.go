package controller

import (
	"errors"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PipelineController struct {
	PipelineService   *service.PipelineService
	TransitionService *service.TransitionService
}

func NewPipelineController(pipelineService *service.PipelineService, transitionService *service.TransitionService) *PipelineController {
	return &PipelineController{
		PipelineService:   pipelineService,
		TransitionService: transitionService,
	}
}

// Board godoc
// @Summary Pipeline board
// @Description Returns the scout's prospects grouped by status. Shadow-state imports are not included.
// @Tags pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.BoardColumn}
// @Router /api/pipeline/board [get]
func (c *PipelineController) Board(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	columns, err := c.PipelineService.Board(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, columns)
}

// ImportReview godoc
// @Summary Imported candidates awaiting review
// @Tags pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Prospect}
// @Router /api/pipeline/import-review [get]
func (c *PipelineController) ImportReview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	prospects, err := c.PipelineService.ImportReview(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, prospects)
}

// ChangeStatusRequest moves a prospect to a new pipeline stage. Extra
// carries the interested program or placement location when relevant.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Extra  string `json:"extra"`
}

// ChangeStatus godoc
// @Summary Move a prospect to another stage
// @Tags pipeline
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "prospect id"
// @Param body body ChangeStatusRequest true "target status"
// @Success 200 {object} util.Response{data=model.Prospect}
// @Failure 400 {object} util.Response "unknown status"
// @Failure 404 {object} util.Response
// @Router /api/prospects/{id}/status [post]
func (c *PipelineController) ChangeStatus(ctx *gin.Context) {
	var req ChangeStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.TransitionService.ApplyStatusChange(ctx.Request.Context(), ctx.Param("id"), model.Status(req.Status), req.Extra)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidStatus):
			util.BadRequest(ctx, "unknown status")
		case errors.Is(err, util.ErrProspectNotFound):
			util.NotFound(ctx, "prospect not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, p)
}
