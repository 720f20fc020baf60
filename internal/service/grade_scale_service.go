package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

type gradeScaleStore interface {
	List(ctx context.Context) ([]models.GradeDefinition, error)
	GetByCode(ctx context.Context, code string) (*models.GradeDefinition, error)
	Upsert(ctx context.Context, definition *models.GradeDefinition) error
}

// SaveGradeDefinitionRequest writes or replaces one grade code on the scale.
type SaveGradeDefinitionRequest struct {
	Code            string   `json:"code" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	GradePoints     *float64 `json:"grade_points"`
	IncludeInGpa    bool     `json:"include_in_gpa"`
	CountsAttempted bool     `json:"counts_attempted"`
	CountsEarned    bool     `json:"counts_earned"`
	IsIncomplete    bool     `json:"is_incomplete"`
	IsWithdrawal    bool     `json:"is_withdrawal"`
	SortOrder       int      `json:"sort_order"`
}

// GradeScaleService manages the institution grade scale.
type GradeScaleService struct {
	repo      gradeScaleStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeScaleService creates a new grade scale service instance.
func NewGradeScaleService(repo gradeScaleStore, validate *validator.Validate, logger *zap.Logger) *GradeScaleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeScaleService{repo: repo, validator: validate, logger: logger}
}

// List returns the scale ordered by sort order.
func (s *GradeScaleService) List(ctx context.Context) ([]models.GradeDefinition, error) {
	definitions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade scale")
	}
	return definitions, nil
}

// Get returns one grade definition by code.
func (s *GradeScaleService) Get(ctx context.Context, code string) (*models.GradeDefinition, error) {
	definition, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade code not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade definition")
	}
	return definition, nil
}

// Save writes a grade definition. A grade flagged into the GPA must carry
// grade points; the calculators reject such rows otherwise.
func (s *GradeScaleService) Save(ctx context.Context, req SaveGradeDefinitionRequest) (*models.GradeDefinition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade definition payload")
	}
	if req.IncludeInGpa && req.GradePoints == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade_points required when include_in_gpa is set")
	}

	definition := &models.GradeDefinition{
		Code:            req.Code,
		Description:     req.Description,
		GradePoints:     req.GradePoints,
		IncludeInGpa:    req.IncludeInGpa,
		CountsAttempted: req.CountsAttempted,
		CountsEarned:    req.CountsEarned,
		IsIncomplete:    req.IsIncomplete,
		IsWithdrawal:    req.IsWithdrawal,
		SortOrder:       req.SortOrder,
	}
	if err := s.repo.Upsert(ctx, definition); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade definition")
	}
	return definition, nil
}
