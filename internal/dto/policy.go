package dto

import (
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

// SapPolicyRequest creates or replaces a progress policy. A nil ProgramID
// targets the institution default.
type SapPolicyRequest struct {
	ID                     string              `json:"id,omitempty"`
	ProgramID              *string             `json:"programId,omitempty"`
	MinimumGpa             float64             `json:"minimumGpa"`
	MinimumPace            float64             `json:"minimumPace" binding:"required"`
	MaxTimeframePercentage float64             `json:"maxTimeframePercentage" binding:"required"`
	GpaTiers               []models.SapGpaTier `json:"gpaTiers,omitempty"`
	EvaluationCadence      string              `json:"evaluationCadence,omitempty"`
	Active                 *bool               `json:"active,omitempty"`
}
