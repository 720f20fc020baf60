package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alexander-vyh/student-information-system-sub004/internal/dto"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/response"
)

// EvaluationHandler exposes batch evaluation and export endpoints.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
	exports     *service.ExportService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations *service.EvaluationService, exports *service.ExportService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations, exports: exports}
}

// Create godoc
// @Summary Start a batch evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body dto.EvaluationRequest true "Batch definition"
// @Success 202 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req dto.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	batch, err := h.evaluations.Create(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, batch, nil)
}

// List godoc
// @Summary List evaluation batches, newest first
// @Tags Evaluations
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	batches, err := h.evaluations.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// Get godoc
// @Summary Batch detail including the final result
// @Tags Evaluations
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(c *gin.Context) {
	batch, err := h.evaluations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Status godoc
// @Summary Batch progress polling
// @Tags Evaluations
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/status [get]
func (h *EvaluationHandler) Status(c *gin.Context) {
	status, err := h.evaluations.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Cancel godoc
// @Summary Cooperatively cancel a running batch
// @Tags Evaluations
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/cancel [post]
func (h *EvaluationHandler) Cancel(c *gin.Context) {
	batch, err := h.evaluations.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// EvaluateStudent godoc
// @Summary Evaluate one student's progress on demand
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentEvaluationRequest true "Evaluation period"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/evaluate [post]
func (h *EvaluationHandler) EvaluateStudent(c *gin.Context) {
	var req dto.StudentEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.evaluations.EvaluateStudent(c.Request.Context(), c.Param("id"), req.PeriodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Export godoc
// @Summary Render a completed batch to CSV or PDF
// @Tags Evaluations
// @Produce json
// @Param id path string true "Batch ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Router /evaluations/{id}/export [get]
func (h *EvaluationHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled"))
		return
	}
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	result, err := h.exports.Generate(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExportResponse{
		URL:       result.URL,
		Format:    string(result.Format),
		ExpiresAt: result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download an export artifact via signed token
// @Tags Evaluations
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *EvaluationHandler) Download(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled"))
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	_, relPath, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export artifact not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export artifact"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(relPath), file, nil)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
