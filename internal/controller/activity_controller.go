package controller

import (
	"errors"

	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ActivityController receives events from the public assessment link.
// The route is unauthenticated: players open it from an outreach message
// and have no account.
type ActivityController struct {
	TransitionService *service.TransitionService
}

func NewActivityController(transitionService *service.TransitionService) *ActivityController {
	return &ActivityController{TransitionService: transitionService}
}

// Record godoc
// @Summary Record assessment activity
// @Description Marks a prospect as having viewed or submitted the assessment. A submission promotes early-stage prospects onto the board.
// @Tags activity
// @Produce json
// @Param prospectId path string true "prospect id"
// @Param action path string true "viewed or submitted"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "unknown action"
// @Failure 404 {object} util.Response
// @Router /api/public/assessment/{prospectId}/{action} [post]
func (c *ActivityController) Record(ctx *gin.Context) {
	_, err := c.TransitionService.HandleActivityEvent(ctx.Request.Context(), ctx.Param("prospectId"), ctx.Param("action"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidAction):
			util.BadRequest(ctx, "unknown action")
		case errors.Is(err, util.ErrProspectNotFound):
			util.NotFound(ctx, "prospect not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	// Deliberately thin response: the public page gets no prospect data.
	util.Success(ctx, gin.H{"recorded": true})
}
