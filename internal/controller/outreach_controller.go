package controller

import (
	"errors"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type OutreachController struct {
	OutreachService *service.OutreachService
	AuthService     *service.AuthService
}

func NewOutreachController(outreachService *service.OutreachService, authService *service.AuthService) *OutreachController {
	return &OutreachController{
		OutreachService: outreachService,
		AuthService:     authService,
	}
}

type DraftRequest struct {
	Template string `json:"template" binding:"required"`
}

// Draft godoc
// @Summary Draft an outreach message
// @Description Renders the template for the prospect and personalizes it with AI. Falls back to the plain template when the model is unavailable.
// @Tags outreach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "prospect id"
// @Param body body DraftRequest true "template name"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/prospects/{id}/outreach/draft [post]
func (c *OutreachController) Draft(ctx *gin.Context) {
	var req DraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	scoutName := ""
	if user := c.AuthService.GetCurrentUser(ctx); user != nil {
		scoutName = user.Name
	}

	message, template, err := c.OutreachService.DraftMessage(ctx.Request.Context(), ctx.Param("id"), req.Template, scoutName)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTemplateNotFound):
			util.NotFound(ctx, "template not found")
		case errors.Is(err, util.ErrProspectNotFound):
			util.NotFound(ctx, "prospect not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"message":  message,
		"method":   template.Method,
		"subject":  template.Subject,
		"template": template.Name,
	})
}

type LogOutreachRequest struct {
	Method   string `json:"method" binding:"required"`
	Template string `json:"template"`
	Note     string `json:"note"`
}

// Log godoc
// @Summary Record a contact attempt
// @Tags outreach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "prospect id"
// @Param body body LogOutreachRequest true "contact details"
// @Success 201 {object} util.Response{data=model.OutreachLog}
// @Failure 400 {object} util.Response "unknown method"
// @Router /api/prospects/{id}/outreach [post]
func (c *OutreachController) Log(ctx *gin.Context) {
	var req LogOutreachRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, err := c.OutreachService.LogOutreach(ctx.Request.Context(), ctx.Param("id"), model.OutreachMethod(req.Method), req.Template, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidMethod):
			util.BadRequest(ctx, "unknown outreach method")
		case errors.Is(err, util.ErrProspectNotFound):
			util.NotFound(ctx, "prospect not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, entry)
}

// History lists a prospect's outreach attempts, newest first.
func (c *OutreachController) History(ctx *gin.Context) {
	logs, err := c.OutreachService.History(ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}

// Templates lists the enabled outreach templates.
func (c *OutreachController) Templates(ctx *gin.Context) {
	templates, err := c.OutreachService.Templates()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, templates)
}
