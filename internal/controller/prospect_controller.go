package controller

import (
	"errors"

	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProspectController struct {
	ProspectService *service.ProspectService
}

func NewProspectController(prospectService *service.ProspectService) *ProspectController {
	return &ProspectController{ProspectService: prospectService}
}

// Create godoc
// @Summary Add a prospect
// @Description Creates a prospect locally and syncs it to the shared store, queueing the sync when offline.
// @Tags prospects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateProspectRequest true "prospect details"
// @Success 201 {object} util.Response{data=model.Prospect}
// @Failure 400 {object} util.Response
// @Router /api/prospects [post]
func (c *ProspectController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateProspectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.ProspectService.Create(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidStatus) {
			util.BadRequest(ctx, "unknown status")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, p)
}

// Get godoc
// @Summary Fetch one prospect
// @Tags prospects
// @Produce json
// @Security BearerAuth
// @Param id path string true "prospect id"
// @Success 200 {object} util.Response{data=model.Prospect}
// @Failure 404 {object} util.Response
// @Router /api/prospects/{id} [get]
func (c *ProspectController) Get(ctx *gin.Context) {
	p, err := c.ProspectService.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrProspectNotFound) {
			util.NotFound(ctx, "prospect not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// Update patches contact details and notes.
func (c *ProspectController) Update(ctx *gin.Context) {
	var req service.UpdateProspectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.ProspectService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, util.ErrProspectNotFound) {
			util.NotFound(ctx, "prospect not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, p)
}

// Delete removes a prospect everywhere it is known.
func (c *ProspectController) Delete(ctx *gin.Context) {
	if err := c.ProspectService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, util.ErrProspectNotFound) {
			util.NotFound(ctx, "prospect not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
