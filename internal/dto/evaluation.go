package dto

import (
	"time"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

// EvaluationRequest asks for a batch evaluation run over a cohort.
type EvaluationRequest struct {
	Kind       string   `json:"kind" binding:"required"`
	PeriodID   string   `json:"periodId" binding:"required"`
	StudentIDs []string `json:"studentIds,omitempty"`
	ProgramID  *string  `json:"programId,omitempty"`
	AllActive  bool     `json:"allActive,omitempty"`
}

// BatchResponse acknowledges an accepted batch run.
type BatchResponse struct {
	ID       string                `json:"id"`
	Kind     models.EvaluationKind `json:"kind"`
	PeriodID string                `json:"periodId"`
	Status   models.BatchStatus    `json:"status"`
	Progress int                   `json:"progress"`
}

// BatchStatusResponse exposes run progress and, once terminal, the result.
type BatchStatusResponse struct {
	ID         string                `json:"id"`
	Kind       models.EvaluationKind `json:"kind"`
	PeriodID   string                `json:"periodId"`
	Status     models.BatchStatus    `json:"status"`
	Progress   int                   `json:"progress"`
	Total      int                   `json:"total"`
	Processed  int                   `json:"processed"`
	Successful int                   `json:"successful"`
	Failed     int                   `json:"failed"`
	Skipped    int                   `json:"skipped"`
	Result     *models.BatchResult   `json:"result,omitempty"`
	Error      *string               `json:"error,omitempty"`
	StartedAt  *time.Time            `json:"startedAt,omitempty"`
	FinishedAt *time.Time            `json:"finishedAt,omitempty"`
}

// StudentEvaluationRequest asks for an on-demand progress evaluation of a
// single student.
type StudentEvaluationRequest struct {
	PeriodID string `json:"periodId" binding:"required"`
}

// ExportResponse carries a signed download link for a rendered export.
type ExportResponse struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expiresAt"`
}
