package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/middleware"
	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/internal/service"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/response"
)

type historicalMarkService interface {
	Template(ctx context.Context, req models.HistoricalMarkTemplateRequest) ([]byte, string, error)
	Import(ctx context.Context, req models.HistoricalMarkImportRequest, file io.Reader) (*models.HistoricalMarkImportResult, error)
}

// HistoricalMarkHandler serves the historical-marks template and upload.
type HistoricalMarkHandler struct {
	service   historicalMarkService
	maxUpload int64
	logger    *zap.Logger
}

// NewHistoricalMarkHandler constructs the handler.
func NewHistoricalMarkHandler(svc historicalMarkService, maxUpload int64, logger *zap.Logger) *HistoricalMarkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoricalMarkHandler{service: svc, maxUpload: maxUpload, logger: logger}
}

// Template godoc
// @Summary Download the historical-marks template of a class
// @Tags HistoricalMarks
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param classId query string true "Class ID"
// @Param historicalGrade query int true "Grade level the marks were earned in"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /historical-marks/import [get]
func (h *HistoricalMarkHandler) Template(c *gin.Context) {
	var req models.HistoricalMarkTemplateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId and historicalGrade are required"))
		return
	}
	body, filename, err := h.service.Template(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditDetail(c, "classId", req.ClassID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxMIME, body)
}

// Import godoc
// @Summary Import historical marks for a class
// @Tags HistoricalMarks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Filled template"
// @Param termName formData string true "Term name"
// @Param classId formData string true "Class ID"
// @Param historicalGrade formData int true "Grade level the marks were earned in"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /historical-marks/import [post]
func (h *HistoricalMarkHandler) Import(c *gin.Context) {
	limitBody(c, h.maxUpload)
	body, err := readWorkbook(c, h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.HistoricalMarkImportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termName, classId and historicalGrade are required"))
		return
	}

	middleware.SetAuditDetail(c, "classId", req.ClassID)
	middleware.SetAuditDetail(c, "termName", req.TermName)
	result, err := h.service.Import(c.Request.Context(), req, bytes.NewReader(body))
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("historical marks import failed", zap.String("class_id", req.ClassID), zap.String("actor", middleware.ImportActor(c)), zap.Error(err))
			response.ErrorWithData(c, appErr, &models.HistoricalMarkImportResult{Errors: []models.RowError{}})
			return
		}
		response.Error(c, appErr)
		return
	}
	middleware.SetAuditDetail(c, "marksSaved", result.MarksSaved)
	response.JSON(c, service.HistoricalMarkStatus(result), result, middleware.ExtractMeta(c))
}
