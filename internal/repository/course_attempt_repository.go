package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

// CourseAttemptRepository manages the immutable course attempt history.
// Reads resolve grade semantics (points, GPA inclusion, attempted and
// earned flags) by joining the grade scale, so attempt rows store only the
// grade code.
type CourseAttemptRepository struct {
	db *sqlx.DB
}

// NewCourseAttemptRepository constructs the repository.
func NewCourseAttemptRepository(db *sqlx.DB) *CourseAttemptRepository {
	return &CourseAttemptRepository{db: db}
}

const attemptSelect = `SELECT ca.id, ca.student_id, ca.course_id, ca.term_id, ca.credits, ca.grade_code,
        gs.grade_points, gs.include_in_gpa, gs.counts_attempted, gs.counts_earned,
        ca.is_transfer, ca.is_repeat, ca.repeat_policy, ca.replaces_id, ca.created_at
FROM course_attempts ca
JOIN grade_scale gs ON gs.code = ca.grade_code`

// ListByStudent returns a student's attempts in chronological order, which
// repeat resolution relies on to identify the most recent attempt.
func (r *CourseAttemptRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseAttempt, error) {
	query := attemptSelect + ` WHERE ca.student_id = $1 ORDER BY ca.created_at ASC, ca.id ASC`
	var attempts []models.CourseAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, studentID); err != nil {
		return nil, fmt.Errorf("list course attempts: %w", err)
	}
	return attempts, nil
}

// ListByStudentTerm returns a student's attempts for one term.
func (r *CourseAttemptRepository) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.CourseAttempt, error) {
	query := attemptSelect + ` WHERE ca.student_id = $1 AND ca.term_id = $2 ORDER BY ca.created_at ASC, ca.id ASC`
	var attempts []models.CourseAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list term course attempts: %w", err)
	}
	return attempts, nil
}

// Create appends one attempt. The repeat policy column may be empty; the
// calculator falls back to the institution default.
func (r *CourseAttemptRepository) Create(ctx context.Context, attempt *models.CourseAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_attempts (id, student_id, course_id, term_id, credits, grade_code, is_transfer, is_repeat, repeat_policy, replaces_id, created_at)
        VALUES (:id, :student_id, :course_id, :term_id, :credits, :grade_code, :is_transfer, :is_repeat, :repeat_policy, :replaces_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create course attempt: %w", err)
	}
	return nil
}

// BulkUpsert loads attempts in a single transaction. Loaders supply stable
// IDs so a re-run of the same feed overwrites rather than duplicates.
func (r *CourseAttemptRepository) BulkUpsert(ctx context.Context, attempts []models.CourseAttempt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range attempts {
		if attempts[i].ID == "" {
			attempts[i].ID = uuid.NewString()
		}
		if attempts[i].CreatedAt.IsZero() {
			attempts[i].CreatedAt = time.Now().UTC()
		}
		const query = `INSERT INTO course_attempts (id, student_id, course_id, term_id, credits, grade_code, is_transfer, is_repeat, repeat_policy, replaces_id, created_at)
                VALUES (:id, :student_id, :course_id, :term_id, :credits, :grade_code, :is_transfer, :is_repeat, :repeat_policy, :replaces_id, :created_at)
                ON CONFLICT (id)
                DO UPDATE SET credits = EXCLUDED.credits, grade_code = EXCLUDED.grade_code, is_transfer = EXCLUDED.is_transfer, is_repeat = EXCLUDED.is_repeat, repeat_policy = EXCLUDED.repeat_policy, replaces_id = EXCLUDED.replaces_id`
		if _, err := tx.NamedExecContext(ctx, query, attempts[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert course attempt: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course attempts: %w", err)
	}
	return nil
}

// CountIncomplete returns how many of a student's attempts carry a grade
// flagged incomplete on the scale.
func (r *CourseAttemptRepository) CountIncomplete(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM course_attempts ca
JOIN grade_scale gs ON gs.code = ca.grade_code
WHERE ca.student_id = $1 AND gs.is_incomplete = true`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count incomplete attempts: %w", err)
	}
	return count, nil
}
