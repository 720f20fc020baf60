package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/response"
)

// GradeScaleHandler exposes the institution grade scale.
type GradeScaleHandler struct {
	scale *service.GradeScaleService
}

// NewGradeScaleHandler constructs a grade scale handler.
func NewGradeScaleHandler(scale *service.GradeScaleService) *GradeScaleHandler {
	return &GradeScaleHandler{scale: scale}
}

// List godoc
// @Summary List grade definitions
// @Tags GradeScale
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-scale [get]
func (h *GradeScaleHandler) List(c *gin.Context) {
	definitions, err := h.scale.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, definitions, nil)
}

// Get godoc
// @Summary Get one grade definition
// @Tags GradeScale
// @Produce json
// @Param code path string true "Grade code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade-scale/{code} [get]
func (h *GradeScaleHandler) Get(c *gin.Context) {
	definition, err := h.scale.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, definition, nil)
}

// Save godoc
// @Summary Create or replace a grade definition
// @Tags GradeScale
// @Accept json
// @Produce json
// @Param payload body service.SaveGradeDefinitionRequest true "Grade definition"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-scale [put]
func (h *GradeScaleHandler) Save(c *gin.Context) {
	var req service.SaveGradeDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	definition, err := h.scale.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, definition, nil)
}
