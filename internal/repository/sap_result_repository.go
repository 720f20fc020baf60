package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const sapRecordColumns = `id, student_id, period_id, status, eligible_for_aid, result, revision, evaluated_at`

// SapResultRepository persists SAP evaluation outcomes keyed by
// (student, period). Re-evaluations overwrite in place and bump the
// revision, so concurrent re-runs of the same cohort stay idempotent.
type SapResultRepository struct {
	db *sqlx.DB
}

// NewSapResultRepository constructs the repository.
func NewSapResultRepository(db *sqlx.DB) *SapResultRepository {
	return &SapResultRepository{db: db}
}

// Upsert writes the record for its (student, period) pair, overwriting any
// prior evaluation. The stored ID and revision are written back onto the
// record.
func (r *SapResultRepository) Upsert(ctx context.Context, record *models.SapRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.EvaluatedAt.IsZero() {
		record.EvaluatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sap_results (id, student_id, period_id, status, eligible_for_aid, result, revision, evaluated_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
ON CONFLICT (student_id, period_id) DO UPDATE SET
	status = EXCLUDED.status,
	eligible_for_aid = EXCLUDED.eligible_for_aid,
	result = EXCLUDED.result,
	revision = sap_results.revision + 1,
	evaluated_at = EXCLUDED.evaluated_at
RETURNING id, revision`
	row := r.db.QueryRowContext(ctx, query,
		record.ID, record.StudentID, record.PeriodID, record.Status,
		record.EligibleForAid, record.Result, record.EvaluatedAt)
	if err := row.Scan(&record.ID, &record.Revision); err != nil {
		return fmt.Errorf("upsert sap result: %w", err)
	}
	return nil
}

// GetByStudentPeriod returns the record for one evaluation period.
func (r *SapResultRepository) GetByStudentPeriod(ctx context.Context, studentID, periodID string) (*models.SapRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_results WHERE student_id = $1 AND period_id = $2`, sapRecordColumns)
	var record models.SapRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, periodID); err != nil {
		return nil, fmt.Errorf("get sap result: %w", err)
	}
	return &record, nil
}

// GetLatest returns the most recent record for a student.
func (r *SapResultRepository) GetLatest(ctx context.Context, studentID string) (*models.SapRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_results WHERE student_id = $1 ORDER BY evaluated_at DESC LIMIT 1`, sapRecordColumns)
	var record models.SapRecord
	if err := r.db.GetContext(ctx, &record, query, studentID); err != nil {
		return nil, fmt.Errorf("get latest sap result: %w", err)
	}
	return &record, nil
}

// GetPrevious returns the most recent record from any other period. Batch
// re-runs use it so the prior standing never reflects the run in progress.
func (r *SapResultRepository) GetPrevious(ctx context.Context, studentID, excludePeriodID string) (*models.SapRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_results
WHERE student_id = $1 AND period_id <> $2 ORDER BY evaluated_at DESC LIMIT 1`, sapRecordColumns)
	var record models.SapRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, excludePeriodID); err != nil {
		return nil, fmt.Errorf("get previous sap result: %w", err)
	}
	return &record, nil
}

// ListByStudent returns a student's evaluation history, newest first.
func (r *SapResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SapRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_results WHERE student_id = $1 ORDER BY evaluated_at DESC`, sapRecordColumns)
	var records []models.SapRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list sap results: %w", err)
	}
	return records, nil
}

// ListByPeriod returns every record evaluated for a period, ordered by
// student for stable export output.
func (r *SapResultRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.SapRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_results WHERE period_id = $1 ORDER BY student_id ASC`, sapRecordColumns)
	var records []models.SapRecord
	if err := r.db.SelectContext(ctx, &records, query, periodID); err != nil {
		return nil, fmt.Errorf("list sap results by period: %w", err)
	}
	return records, nil
}
