package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const gpaSnapshotColumns = `id, student_id, period_id, attempted_credits, earned_credits, gpa_credits, quality_points, cumulative_gpa, revision, calculated_at`

// GpaSnapshotRepository persists GPA outcomes keyed by (student, period),
// mirroring the SAP result natural key.
type GpaSnapshotRepository struct {
	db *sqlx.DB
}

// NewGpaSnapshotRepository constructs the repository.
func NewGpaSnapshotRepository(db *sqlx.DB) *GpaSnapshotRepository {
	return &GpaSnapshotRepository{db: db}
}

// Upsert writes the snapshot for its (student, period) pair, overwriting
// any prior calculation and bumping the revision.
func (r *GpaSnapshotRepository) Upsert(ctx context.Context, snap *models.GpaSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CalculatedAt.IsZero() {
		snap.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO gpa_snapshots (id, student_id, period_id, attempted_credits, earned_credits, gpa_credits, quality_points, cumulative_gpa, revision, calculated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)
ON CONFLICT (student_id, period_id) DO UPDATE SET
	attempted_credits = EXCLUDED.attempted_credits,
	earned_credits = EXCLUDED.earned_credits,
	gpa_credits = EXCLUDED.gpa_credits,
	quality_points = EXCLUDED.quality_points,
	cumulative_gpa = EXCLUDED.cumulative_gpa,
	revision = gpa_snapshots.revision + 1,
	calculated_at = EXCLUDED.calculated_at
RETURNING id, revision`
	row := r.db.QueryRowContext(ctx, query,
		snap.ID, snap.StudentID, snap.PeriodID, snap.AttemptedCredits,
		snap.EarnedCredits, snap.GpaCredits, snap.QualityPoints,
		snap.CumulativeGpa, snap.CalculatedAt)
	if err := row.Scan(&snap.ID, &snap.Revision); err != nil {
		return fmt.Errorf("upsert gpa snapshot: %w", err)
	}
	return nil
}

// GetByStudentPeriod returns the snapshot for one period.
func (r *GpaSnapshotRepository) GetByStudentPeriod(ctx context.Context, studentID, periodID string) (*models.GpaSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM gpa_snapshots WHERE student_id = $1 AND period_id = $2`, gpaSnapshotColumns)
	var snap models.GpaSnapshot
	if err := r.db.GetContext(ctx, &snap, query, studentID, periodID); err != nil {
		return nil, fmt.Errorf("get gpa snapshot: %w", err)
	}
	return &snap, nil
}

// GetLatest returns the most recent snapshot for a student.
func (r *GpaSnapshotRepository) GetLatest(ctx context.Context, studentID string) (*models.GpaSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM gpa_snapshots WHERE student_id = $1 ORDER BY calculated_at DESC LIMIT 1`, gpaSnapshotColumns)
	var snap models.GpaSnapshot
	if err := r.db.GetContext(ctx, &snap, query, studentID); err != nil {
		return nil, fmt.Errorf("get latest gpa snapshot: %w", err)
	}
	return &snap, nil
}

// ListByPeriod returns every snapshot for a period, ordered by student.
func (r *GpaSnapshotRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.GpaSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM gpa_snapshots WHERE period_id = $1 ORDER BY student_id ASC`, gpaSnapshotColumns)
	var snaps []models.GpaSnapshot
	if err := r.db.SelectContext(ctx, &snaps, query, periodID); err != nil {
		return nil, fmt.Errorf("list gpa snapshots: %w", err)
	}
	return snaps, nil
}
