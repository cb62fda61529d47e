package controller

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"scout_crm_backend/internal/service"
	"scout_crm_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"scout_crm_backend/pkg/logger"
)

const maxScreenshotBytes = 8 << 20

type ExtractionController struct {
	ExtractionService *service.ExtractionService
	StorageService    *service.StorageService
}

func NewExtractionController(extractionService *service.ExtractionService, storageService *service.StorageService) *ExtractionController {
	return &ExtractionController{
		ExtractionService: extractionService,
		StorageService:    storageService,
	}
}

type ExtractRequest struct {
	Text string `json:"text"`
}

// Extract godoc
// @Summary Preview candidates from pasted text
// @Description Runs extraction without storing anything, so the scout can review before importing.
// @Tags extraction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ExtractRequest true "raw scouting material"
// @Success 200 {object} util.Response{data=[]service.Candidate}
// @Router /api/extraction/preview [post]
func (c *ExtractionController) Extract(ctx *gin.Context) {
	var req ExtractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Text == "" {
		util.BadRequest(ctx, "text is required")
		return
	}

	candidates := c.ExtractionService.ExtractCandidates(ctx.Request.Context(), req.Text, "")
	util.Success(ctx, candidates)
}

// Import godoc
// @Summary Import candidates as shadow prospects
// @Description Extracts candidates from text and stores them for import review. Counts against the daily import limit.
// @Tags extraction
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ExtractRequest true "raw scouting material"
// @Success 200 {object} util.Response{data=[]model.Prospect}
// @Failure 429 {object} util.Response "daily import limit reached"
// @Router /api/extraction/import [post]
func (c *ExtractionController) Import(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ExtractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Text == "" {
		util.BadRequest(ctx, "text is required")
		return
	}

	created, err := c.ExtractionService.ImportCandidates(ctx.Request.Context(), user.UserID, req.Text, "")
	if err != nil {
		if errors.Is(err, util.ErrDailyImportLimit) {
			util.Error(ctx, 429, "daily import limit reached")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, created)
}

// ImportScreenshot godoc
// @Summary Import candidates from a roster screenshot
// @Tags extraction
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "roster screenshot"
// @Success 200 {object} util.Response{data=[]model.Prospect}
// @Failure 429 {object} util.Response "daily import limit reached"
// @Router /api/extraction/import-screenshot [post]
func (c *ExtractionController) ImportScreenshot(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if fileHeader.Size > maxScreenshotBytes {
		util.BadRequest(ctx, "screenshot is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// Keep the original around for audit before anything is parsed out
	// of it.
	filename := fmt.Sprintf("screenshots/%s/%s-%s", time.Now().Format("2006-01-02"), uuid.New().String(), fileHeader.Filename)
	if _, err := c.StorageService.Upload(ctx.Request.Context(), filename, bytes.NewReader(data), fileHeader.Size, fileHeader.Header.Get("Content-Type")); err != nil {
		logger.Log.Warn("screenshot archival failed", zap.Error(err))
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	created, err := c.ExtractionService.ImportCandidates(ctx.Request.Context(), user.UserID, "", encoded)
	if err != nil {
		if errors.Is(err, util.ErrDailyImportLimit) {
			util.Error(ctx, 429, "daily import limit reached")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, created)
}

// Evaluate godoc
// @Summary Generate an AI evaluation for a prospect
// @Tags extraction
// @Produce json
// @Security BearerAuth
// @Param id path string true "prospect id"
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "prospect changed during evaluation"
// @Router /api/prospects/{id}/evaluate [post]
func (c *ExtractionController) Evaluate(ctx *gin.Context) {
	eval, err := c.ExtractionService.EvaluateProspect(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrProspectNotFound):
			util.NotFound(ctx, "prospect not found")
		case errors.Is(err, util.ErrStaleEvaluation):
			util.Error(ctx, 409, "prospect changed during evaluation, try again")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, eval)
}
