package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/middleware"
	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/internal/service"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/response"
)

type importService interface {
	Import(ctx context.Context, req service.ImportRequest) (*models.ImportResult, error)
	Stats(ctx context.Context) (*models.ImportStats, bool, error)
}

type reportOpener interface {
	Open(token string) (*os.File, string, error)
}

// ImportHandler serves teacher and student onboarding uploads.
type ImportHandler struct {
	service   importService
	reports   reportOpener
	maxUpload int64
	logger    *zap.Logger
}

// NewImportHandler constructs the handler. maxUpload bounds the request
// body in bytes.
func NewImportHandler(svc importService, reports reportOpener, maxUpload int64, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{service: svc, reports: reports, maxUpload: maxUpload, logger: logger}
}

// Import godoc
// @Summary Import teachers or students from a spreadsheet
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Param importType formData string true "teachers or students"
// @Param clearExisting formData bool false "Delete existing users of the type first"
// @Param reportFormat formData string false "csv or pdf problem-row report"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Security BearerAuth
// @Router /import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	limitBody(c, h.maxUpload)
	body, err := readWorkbook(c, h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}

	importType := models.ImportType(strings.ToLower(strings.TrimSpace(c.PostForm("importType"))))
	if !importType.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, `importType must be "teachers" or "students"`))
		return
	}
	clearExisting := false
	if raw := strings.TrimSpace(c.PostForm("clearExisting")); raw != "" {
		clearExisting, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "clearExisting must be true or false"))
			return
		}
	}

	middleware.SetAuditDetail(c, "importType", importType)
	middleware.SetAuditDetail(c, "clearExisting", clearExisting)

	result, err := h.service.Import(c.Request.Context(), service.ImportRequest{
		Type:          importType,
		ClearExisting: clearExisting,
		ReportFormat:  strings.TrimSpace(c.PostForm("reportFormat")),
		File:          bytes.NewReader(body),
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("import failed", zap.String("import_type", string(importType)), zap.String("actor", middleware.ImportActor(c)), zap.Error(err))
			response.ErrorWithData(c, appErr, emptyImportResult(importType))
			return
		}
		response.Error(c, appErr)
		return
	}

	middleware.SetAuditDetail(c, "successfulImports", result.SuccessfulImports)
	middleware.SetAuditDetail(c, "errors", len(result.Errors))
	middleware.SetAuditDetail(c, "skipped", len(result.Skipped))
	response.JSON(c, service.ImportStatus(result), result, middleware.ExtractMeta(c))
}

// Stats godoc
// @Summary Entity counts shown next to the import form
// @Tags Import
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /import [get]
func (h *ImportHandler) Stats(c *gin.Context) {
	stats, hit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// DownloadReport godoc
// @Summary Download the problem-row report of an import
// @Tags Import
// @Produce octet-stream
// @Param token path string true "Signed report token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /import/reports/{token} [get]
func (h *ImportHandler) DownloadReport(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "import reports are disabled"))
		return
	}
	file, name, err := h.reports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read report"))
		return
	}
	middleware.SetAuditDetail(c, "report", name)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.DataFromReader(http.StatusOK, info.Size(), reportContentType(name), file, nil)
}

func reportContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func emptyImportResult(kind models.ImportType) *models.ImportResult {
	return &models.ImportResult{
		ImportType: kind,
		Errors:     []models.RowError{},
		Skipped:    []models.SkippedRow{},
		Warnings:   []models.RowWarning{},
	}
}
