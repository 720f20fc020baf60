package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

type sapRecordReader interface {
	GetLatest(ctx context.Context, studentID string) (*models.SapRecord, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.SapRecord, error)
}

type academicSnapshotSource interface {
	Snapshot(ctx context.Context, studentID string) (*models.AcademicSnapshot, error)
}

type standingPolicySource interface {
	HonorsConfig(ctx context.Context) (*models.LatinHonorsConfig, error)
	GraduationConfig(ctx context.Context) (*models.GraduationPolicyConfig, error)
}

// StandingService serves the read side of academic standing: live GPA
// projections, the persisted progress trail, honors determination, and
// graduation validation. Projections are computed from the snapshot on
// every call and never written back.
type StandingService struct {
	snapshots  academicSnapshotSource
	sapRecords sapRecordReader
	policies   standingPolicySource
	gpa        *GpaService
	honors     *HonorsService
	graduation *GraduationService
	logger     *zap.Logger
}

// NewStandingService constructs the standing service.
func NewStandingService(
	snapshots academicSnapshotSource,
	sapRecords sapRecordReader,
	policies standingPolicySource,
	gpa *GpaService,
	honors *HonorsService,
	graduation *GraduationService,
	logger *zap.Logger,
) *StandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandingService{
		snapshots:  snapshots,
		sapRecords: sapRecords,
		policies:   policies,
		gpa:        gpa,
		honors:     honors,
		graduation: graduation,
		logger:     logger,
	}
}

// Gpa computes the cumulative GPA from the full attempt history, including
// the per-attempt audit trail.
func (s *StandingService) Gpa(ctx context.Context, studentID string) (*models.GpaResult, error) {
	snap, err := s.snapshots.Snapshot(ctx, studentID)
	if err != nil {
		return nil, err
	}
	result, err := s.gpa.Calculate(snap.Attempts, models.GpaCalculationOptions{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gpa calculation failed")
	}
	return result, nil
}

// LatestSap returns the most recent persisted progress evaluation.
func (s *StandingService) LatestSap(ctx context.Context, studentID string) (*models.SapRecord, error) {
	record, err := s.sapRecords.GetLatest(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no progress evaluation on record")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress record")
	}
	return record, nil
}

// SapHistory lists every persisted progress evaluation, newest first.
func (s *StandingService) SapHistory(ctx context.Context, studentID string) ([]models.SapRecord, error) {
	records, err := s.sapRecords.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress history")
	}
	return records, nil
}

// Honors determines the Latin honors designation from the live snapshot.
// Cumulative figures come from the full history; institutional figures from
// non-transfer attempts only.
func (s *StandingService) Honors(ctx context.Context, studentID string) (*models.LatinHonorsResult, error) {
	snap, err := s.snapshots.Snapshot(ctx, studentID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.policies.HonorsConfig(ctx)
	if err != nil {
		return nil, err
	}

	cumulative, err := s.gpa.Calculate(snap.Attempts, models.GpaCalculationOptions{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gpa calculation failed")
	}
	institutionalAttempts := make([]models.CourseAttempt, 0, len(snap.Attempts))
	for _, attempt := range snap.Attempts {
		if !attempt.IsTransfer {
			institutionalAttempts = append(institutionalAttempts, attempt)
		}
	}
	institutional, err := s.gpa.Calculate(institutionalAttempts, models.GpaCalculationOptions{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gpa calculation failed")
	}

	input := models.LatinHonorsInput{
		StudentID:                     studentID,
		CumulativeGpa:                 cumulative.CumulativeGpa,
		InstitutionalGpa:              institutional.CumulativeGpa,
		EarnedCredits:                 cumulative.EarnedCredits,
		InstitutionalCredits:          institutional.EarnedCredits,
		HasAcademicIntegrityViolation: snap.Student.IntegrityViolation,
	}
	return s.honors.Determine(input, *cfg)
}

// ValidateGraduation runs the graduation checklists over caller-supplied
// facts. Facts arrive pre-resolved; nothing is fetched here beyond the
// active policy configuration.
func (s *StandingService) ValidateGraduation(ctx context.Context, input models.GraduationEligibilityInput) (*models.GraduationValidationResult, error) {
	cfg, err := s.policies.GraduationConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s.graduation.Validate(input, *cfg)
}
