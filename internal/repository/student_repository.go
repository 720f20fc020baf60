package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const studentColumns = `id, external_ref, full_name, program_id, program_credits, active, appeal_approved, on_academic_plan, plan_requirements, integrity_violation, current_sap_status, current_gpa, standing_updated_at, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("s.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.SapStatus != nil {
		conditions = append(conditions, fmt.Sprintf("s.current_sap_status = $%d", len(args)+1))
		args = append(args, *filter.SapStatus)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.external_ref) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":    "s.full_name",
		"external_ref": "s.external_ref",
		"current_gpa":  "s.current_gpa",
		"created_at":   "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.external_ref, s.full_name, s.program_id, s.program_credits, s.active, s.appeal_approved, s.on_academic_plan, s.plan_requirements, s.integrity_violation, s.current_sap_status, s.current_gpa, s.standing_updated_at, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListIDs resolves a cohort selector into student IDs. Explicit lists pass
// through deduplicated in their given order; otherwise all active students
// are selected, optionally narrowed to a program.
func (r *StudentRepository) ListIDs(ctx context.Context, selector models.CohortSelector) ([]string, error) {
	if len(selector.StudentIDs) > 0 {
		seen := make(map[string]struct{}, len(selector.StudentIDs))
		ids := make([]string, 0, len(selector.StudentIDs))
		for _, id := range selector.StudentIDs {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids, nil
	}

	query := "SELECT id FROM students WHERE active = true"
	args := make([]interface{}, 0, 1)
	if selector.ProgramID != nil && *selector.ProgramID != "" {
		query += " AND program_id = $1"
		args = append(args, *selector.ProgramID)
	}
	query += " ORDER BY id ASC"

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list cohort ids: %w", err)
	}
	return ids, nil
}

// ExistsByExternalRef checks if a student with the given external reference
// exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByExternalRef(ctx context.Context, ref string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE external_ref = $1"
	args := []interface{}{ref}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check external ref: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, external_ref, full_name, program_id, program_credits, active, appeal_approved, on_academic_plan, plan_requirements, integrity_violation, created_at, updated_at)
        VALUES (:id, :external_ref, :full_name, :program_id, :program_credits, :active, :appeal_approved, :on_academic_plan, :plan_requirements, :integrity_violation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student's profile and aid flags. Standing
// columns are written only through UpdateStanding and UpdateCurrentGpa.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET external_ref = :external_ref, full_name = :full_name, program_id = :program_id, program_credits = :program_credits, active = :active, appeal_approved = :appeal_approved, on_academic_plan = :on_academic_plan, plan_requirements = :plan_requirements, integrity_violation = :integrity_violation, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// UpdateStanding denormalizes the latest SAP outcome onto the student row.
func (r *StudentRepository) UpdateStanding(ctx context.Context, id string, status models.SapStatus, gpa *float64) error {
	now := time.Now().UTC()
	const query = `UPDATE students SET current_sap_status = $2, current_gpa = $3, standing_updated_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, gpa, now); err != nil {
		return fmt.Errorf("update standing: %w", err)
	}
	return nil
}

// UpdateCurrentGpa denormalizes the latest GPA onto the student row without
// touching the SAP status.
func (r *StudentRepository) UpdateCurrentGpa(ctx context.Context, id string, gpa *float64) error {
	now := time.Now().UTC()
	const query = `UPDATE students SET current_gpa = $2, standing_updated_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, gpa, now); err != nil {
		return fmt.Errorf("update current gpa: %w", err)
	}
	return nil
}
