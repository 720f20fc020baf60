package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const gradeScaleColumns = `id, code, description, grade_points, include_in_gpa, counts_attempted, counts_earned, is_incomplete, is_withdrawal, sort_order, created_at, updated_at`

// GradeScaleRepository manages the institution grade scale, the single
// source of grade semantics for every calculation.
type GradeScaleRepository struct {
	db *sqlx.DB
}

// NewGradeScaleRepository constructs the repository.
func NewGradeScaleRepository(db *sqlx.DB) *GradeScaleRepository {
	return &GradeScaleRepository{db: db}
}

// List returns the full scale in display order.
func (r *GradeScaleRepository) List(ctx context.Context) ([]models.GradeDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_scale ORDER BY sort_order ASC, code ASC`, gradeScaleColumns)
	var definitions []models.GradeDefinition
	if err := r.db.SelectContext(ctx, &definitions, query); err != nil {
		return nil, fmt.Errorf("list grade scale: %w", err)
	}
	return definitions, nil
}

// GetByCode returns one grade definition.
func (r *GradeScaleRepository) GetByCode(ctx context.Context, code string) (*models.GradeDefinition, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_scale WHERE code = $1`, gradeScaleColumns)
	var definition models.GradeDefinition
	if err := r.db.GetContext(ctx, &definition, query, code); err != nil {
		return nil, err
	}
	return &definition, nil
}

// Upsert writes a grade definition keyed by its code.
func (r *GradeScaleRepository) Upsert(ctx context.Context, definition *models.GradeDefinition) error {
	if definition.ID == "" {
		definition.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}
	definition.UpdatedAt = now
	const query = `INSERT INTO grade_scale (id, code, description, grade_points, include_in_gpa, counts_attempted, counts_earned, is_incomplete, is_withdrawal, sort_order, created_at, updated_at)
VALUES (:id, :code, :description, :grade_points, :include_in_gpa, :counts_attempted, :counts_earned, :is_incomplete, :is_withdrawal, :sort_order, :created_at, :updated_at)
ON CONFLICT (code) DO UPDATE SET
	description = EXCLUDED.description,
	grade_points = EXCLUDED.grade_points,
	include_in_gpa = EXCLUDED.include_in_gpa,
	counts_attempted = EXCLUDED.counts_attempted,
	counts_earned = EXCLUDED.counts_earned,
	is_incomplete = EXCLUDED.is_incomplete,
	is_withdrawal = EXCLUDED.is_withdrawal,
	sort_order = EXCLUDED.sort_order,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, definition); err != nil {
		return fmt.Errorf("upsert grade definition: %w", err)
	}
	return nil
}
