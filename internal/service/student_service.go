package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListIDs(ctx context.Context, selector models.CohortSelector) ([]string, error)
	ExistsByExternalRef(ctx context.Context, ref string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type attemptStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseAttempt, error)
	Create(ctx context.Context, attempt *models.CourseAttempt) error
	BulkUpsert(ctx context.Context, attempts []models.CourseAttempt) error
}

type gradeScaleReader interface {
	GetByCode(ctx context.Context, code string) (*models.GradeDefinition, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	ExternalRef        string                  `json:"external_ref" validate:"required"`
	FullName           string                  `json:"full_name" validate:"required"`
	ProgramID          string                  `json:"program_id" validate:"required"`
	ProgramCredits     float64                 `json:"program_credits" validate:"gt=0"`
	AppealApproved     bool                    `json:"appeal_approved"`
	OnAcademicPlan     bool                    `json:"on_academic_plan"`
	PlanRequirements   models.PlanRequirements `json:"plan_requirements"`
	IntegrityViolation bool                    `json:"integrity_violation"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	ExternalRef        string                  `json:"external_ref" validate:"required"`
	FullName           string                  `json:"full_name" validate:"required"`
	ProgramID          string                  `json:"program_id" validate:"required"`
	ProgramCredits     float64                 `json:"program_credits" validate:"gt=0"`
	AppealApproved     bool                    `json:"appeal_approved"`
	OnAcademicPlan     bool                    `json:"on_academic_plan"`
	PlanRequirements   models.PlanRequirements `json:"plan_requirements"`
	IntegrityViolation bool                    `json:"integrity_violation"`
	Active             bool                    `json:"active"`
}

// RecordAttemptRequest appends one course attempt to a student's history.
type RecordAttemptRequest struct {
	CourseID     string  `json:"course_id" validate:"required"`
	TermID       string  `json:"term_id" validate:"required"`
	Credits      float64 `json:"credits" validate:"gte=0"`
	GradeCode    string  `json:"grade_code" validate:"required"`
	IsTransfer   bool    `json:"is_transfer"`
	IsRepeat     bool    `json:"is_repeat"`
	RepeatPolicy string  `json:"repeat_policy"`
	ReplacesID   *string `json:"replaces_id"`
}

// BulkAttemptItem is one row of an attempt load feed. Feeds supply stable
// IDs so re-running the same file is idempotent.
type BulkAttemptItem struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"course_id" validate:"required"`
	TermID       string  `json:"term_id" validate:"required"`
	Credits      float64 `json:"credits" validate:"gte=0"`
	GradeCode    string  `json:"grade_code" validate:"required"`
	IsTransfer   bool    `json:"is_transfer"`
	IsRepeat     bool    `json:"is_repeat"`
	RepeatPolicy string  `json:"repeat_policy"`
	ReplacesID   *string `json:"replaces_id"`
}

// BulkAttemptsRequest handles atomic or partial attempt loads.
type BulkAttemptsRequest struct {
	Mode  string            `json:"mode" validate:"omitempty,oneof=atomic partialOnError"`
	Items []BulkAttemptItem `json:"items" validate:"required,dive"`
}

// BulkAttemptsResult summarises partial outcomes.
type BulkAttemptsResult struct {
	SuccessCount int                  `json:"success_count"`
	Failures     []BulkAttemptFailure `json:"failures,omitempty"`
}

// BulkAttemptFailure captures rejected feed rows.
type BulkAttemptFailure struct {
	CourseID string `json:"course_id"`
	TermID   string `json:"term_id"`
	Reason   string `json:"reason"`
}

// StudentService handles student records, the attempt history, and the
// academic snapshot assembly that every calculator consumes.
type StudentService struct {
	repo       studentRepository
	attempts   attemptStore
	gradeScale gradeScaleReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, attempts attemptStore, gradeScale gradeScaleReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		attempts:   attempts,
		gradeScale: gradeScale,
		validator:  validate,
		logger:     logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByExternalRef(ctx, req.ExternalRef, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate external ref")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "external ref already used")
	}
	student := &models.Student{
		ExternalRef:        req.ExternalRef,
		FullName:           req.FullName,
		ProgramID:          req.ProgramID,
		ProgramCredits:     req.ProgramCredits,
		Active:             true,
		AppealApproved:     req.AppealApproved,
		OnAcademicPlan:     req.OnAcademicPlan,
		PlanRequirements:   req.PlanRequirements,
		IntegrityViolation: req.IntegrityViolation,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByExternalRef(ctx, req.ExternalRef, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate external ref")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "external ref already used")
	}
	student.ExternalRef = req.ExternalRef
	student.FullName = req.FullName
	student.ProgramID = req.ProgramID
	student.ProgramCredits = req.ProgramCredits
	student.AppealApproved = req.AppealApproved
	student.OnAcademicPlan = req.OnAcademicPlan
	student.PlanRequirements = req.PlanRequirements
	student.IntegrityViolation = req.IntegrityViolation
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate marks a student inactive.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}

// Attempts returns a student's course attempt history in chronological
// order, grade semantics resolved.
func (s *StudentService) Attempts(ctx context.Context, studentID string) ([]models.CourseAttempt, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course attempts")
	}
	return attempts, nil
}

// RecordAttempt appends one attempt after checking the grade code against
// the scale. Attempts are immutable; corrections append a new row.
func (s *StudentService) RecordAttempt(ctx context.Context, studentID string, req RecordAttemptRequest) (*models.CourseAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	policy := models.RepeatPolicy(req.RepeatPolicy)
	if req.RepeatPolicy != "" && !policy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown repeat policy")
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	definition, err := s.gradeScale.GetByCode(ctx, req.GradeCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve grade code")
	}

	attempt := &models.CourseAttempt{
		StudentID:    studentID,
		CourseID:     req.CourseID,
		TermID:       req.TermID,
		Credits:      req.Credits,
		GradeCode:    definition.Code,
		IsTransfer:   req.IsTransfer,
		IsRepeat:     req.IsRepeat,
		RepeatPolicy: policy,
		ReplacesID:   req.ReplacesID,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record course attempt")
	}

	attempt.GradePoints = definition.GradePoints
	attempt.IncludeInGpa = definition.IncludeInGpa
	attempt.CountsAttempted = definition.CountsAttempted
	attempt.CountsEarned = definition.CountsEarned
	return attempt, nil
}

// LoadAttempts ingests an attempt feed. Atomic mode rejects the whole load
// on the first bad row; partialOnError keeps going and reports failures.
func (s *StudentService) LoadAttempts(ctx context.Context, studentID string, req BulkAttemptsRequest) (*BulkAttemptsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempts payload")
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}

	atomic := req.Mode == "" || req.Mode == "atomic"
	result := &BulkAttemptsResult{}
	var toUpsert []models.CourseAttempt
	for _, item := range req.Items {
		policy := models.RepeatPolicy(item.RepeatPolicy)
		if item.RepeatPolicy != "" && !policy.Valid() {
			if atomic {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown repeat policy")
			}
			result.Failures = append(result.Failures, BulkAttemptFailure{CourseID: item.CourseID, TermID: item.TermID, Reason: "unknown repeat policy"})
			continue
		}
		if _, err := s.gradeScale.GetByCode(ctx, item.GradeCode); err != nil {
			if err == sql.ErrNoRows {
				if atomic {
					return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade code "+item.GradeCode)
				}
				result.Failures = append(result.Failures, BulkAttemptFailure{CourseID: item.CourseID, TermID: item.TermID, Reason: "unknown grade code"})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve grade code")
		}
		attempt := models.CourseAttempt{
			ID:           item.ID,
			StudentID:    studentID,
			CourseID:     item.CourseID,
			TermID:       item.TermID,
			Credits:      item.Credits,
			GradeCode:    item.GradeCode,
			IsTransfer:   item.IsTransfer,
			IsRepeat:     item.IsRepeat,
			RepeatPolicy: policy,
			ReplacesID:   item.ReplacesID,
		}
		if atomic {
			toUpsert = append(toUpsert, attempt)
			continue
		}
		if err := s.attempts.Create(ctx, &attempt); err != nil {
			result.Failures = append(result.Failures, BulkAttemptFailure{CourseID: item.CourseID, TermID: item.TermID, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	if atomic {
		if err := s.attempts.BulkUpsert(ctx, toUpsert); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attempts")
		}
		result.SuccessCount = len(toUpsert)
	}
	return result, nil
}

// Snapshot assembles the read model the calculators consume: the student
// row plus the full attempt history.
func (s *StudentService) Snapshot(ctx context.Context, studentID string) (*models.AcademicSnapshot, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	attempts, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attempts")
	}
	return &models.AcademicSnapshot{Student: *student, Attempts: attempts}, nil
}

// CohortIDs resolves a cohort selector into student IDs.
func (s *StudentService) CohortIDs(ctx context.Context, selector models.CohortSelector) ([]string, error) {
	ids, err := s.repo.ListIDs(ctx, selector)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve cohort")
	}
	return ids, nil
}
