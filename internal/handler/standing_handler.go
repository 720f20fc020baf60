package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/response"
)

// StandingHandler exposes academic standing projections.
type StandingHandler struct {
	standing *service.StandingService
}

// NewStandingHandler constructs StandingHandler.
func NewStandingHandler(standing *service.StandingService) *StandingHandler {
	return &StandingHandler{standing: standing}
}

// Gpa godoc
// @Summary Current GPA projection with per-attempt details
// @Tags Standing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa [get]
func (h *StandingHandler) Gpa(c *gin.Context) {
	result, err := h.standing.Gpa(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// LatestSap godoc
// @Summary Most recent progress evaluation
// @Tags Standing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/sap [get]
func (h *StandingHandler) LatestSap(c *gin.Context) {
	record, err := h.standing.LatestSap(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SapHistory godoc
// @Summary Progress evaluation history, newest first
// @Tags Standing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/sap/history [get]
func (h *StandingHandler) SapHistory(c *gin.Context) {
	records, err := h.standing.SapHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Honors godoc
// @Summary Latin honors determination
// @Tags Standing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/honors [get]
func (h *StandingHandler) Honors(c *gin.Context) {
	result, err := h.standing.Honors(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateGraduation godoc
// @Summary Validate graduation eligibility from resolved facts
// @Tags Standing
// @Accept json
// @Produce json
// @Param payload body models.GraduationEligibilityInput true "Pre-resolved facts"
// @Success 200 {object} response.Envelope
// @Router /graduation/validate [post]
func (h *StandingHandler) ValidateGraduation(c *gin.Context) {
	var input models.GraduationEligibilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.standing.ValidateGraduation(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
