package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexander-vyh/student-information-system-sub004/internal/dto"
	"github.com/alexander-vyh/student-information-system-sub004/internal/middleware"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/response"
)

// PolicyHandler exposes progress, honors and graduation policy endpoints.
type PolicyHandler struct {
	policies *service.PolicyService
}

// NewPolicyHandler constructs PolicyHandler.
func NewPolicyHandler(policies *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// EffectiveSapPolicy godoc
// @Summary Resolve the effective progress policy
// @Tags Policies
// @Produce json
// @Param programId query string false "Program override to resolve"
// @Success 200 {object} response.Envelope
// @Router /policies/sap [get]
func (h *PolicyHandler) EffectiveSapPolicy(c *gin.Context) {
	var programID *string
	if raw := c.Query("programId"); raw != "" {
		programID = &raw
	}
	start := time.Now()
	policy, cacheHit, err := h.policies.EffectiveSapPolicy(c.Request.Context(), programID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, policy, nil, meta)
}

// ListSapPolicies godoc
// @Summary List every configured progress policy
// @Tags Policies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /policies/sap/all [get]
func (h *PolicyHandler) ListSapPolicies(c *gin.Context) {
	policies, err := h.policies.ListSapPolicies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policies, nil)
}

// SaveSapPolicy godoc
// @Summary Create or update a progress policy
// @Tags Policies
// @Accept json
// @Produce json
// @Param payload body dto.SapPolicyRequest true "Policy payload"
// @Success 200 {object} response.Envelope
// @Router /policies/sap [put]
func (h *PolicyHandler) SaveSapPolicy(c *gin.Context) {
	var req dto.SapPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	policy, err := h.policies.SaveSapPolicy(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policy, nil)
}

// HonorsConfig godoc
// @Summary Current Latin honors configuration
// @Tags Policies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /policies/honors [get]
func (h *PolicyHandler) HonorsConfig(c *gin.Context) {
	cfg, err := h.policies.HonorsConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// SaveHonorsConfig godoc
// @Summary Replace the Latin honors configuration
// @Tags Policies
// @Accept json
// @Produce json
// @Param payload body models.LatinHonorsConfig true "Honors thresholds"
// @Success 200 {object} response.Envelope
// @Router /policies/honors [put]
func (h *PolicyHandler) SaveHonorsConfig(c *gin.Context) {
	var cfg models.LatinHonorsConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.policies.SaveHonorsConfig(c.Request.Context(), cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// GraduationConfig godoc
// @Summary Current graduation policy configuration
// @Tags Policies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /policies/graduation [get]
func (h *PolicyHandler) GraduationConfig(c *gin.Context) {
	cfg, err := h.policies.GraduationConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// SaveGraduationConfig godoc
// @Summary Replace the graduation policy configuration
// @Tags Policies
// @Accept json
// @Produce json
// @Param payload body models.GraduationPolicyConfig true "Graduation policy"
// @Success 200 {object} response.Envelope
// @Router /policies/graduation [put]
func (h *PolicyHandler) SaveGraduationConfig(c *gin.Context) {
	var cfg models.GraduationPolicyConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.policies.SaveGraduationConfig(c.Request.Context(), cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}
