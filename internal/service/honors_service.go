package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

// HonorsService determines Latin honors designations. Integrity
// disqualification is checked before anything else, then credit floors,
// then GPA thresholds top-down in the order the config supplies them.
type HonorsService struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHonorsService constructs the calculator.
func NewHonorsService(logger *zap.Logger) *HonorsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HonorsService{
		validate: validator.New(),
		logger:   logger,
	}
}

// Determine computes the designation for one candidate. The result always
// carries an explanation, whether a tier was met or which condition
// disqualified the student.
func (s *HonorsService) Determine(input models.LatinHonorsInput, cfg models.LatinHonorsConfig) (*models.LatinHonorsResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid honors input")
	}
	if err := s.validate.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid honors config")
	}

	result := &models.LatinHonorsResult{StudentID: input.StudentID}

	gpa, gpaKnown := resolveHonorsGpa(input, cfg)
	result.GpaUsed = gpa

	if input.HasAcademicIntegrityViolation && cfg.DisqualifyForAcademicIntegrity {
		result.DisqualifiedForIntegrity = true
		result.Explanation = "Disqualified from Latin honors by an academic integrity violation."
		return result, nil
	}
	if input.EarnedCredits < cfg.MinimumCredits {
		result.Explanation = fmt.Sprintf("Earned credits %.1f are below the %.1f required for Latin honors.", input.EarnedCredits, cfg.MinimumCredits)
		return result, nil
	}
	if input.InstitutionalCredits < cfg.MinimumInstitutionalCredits {
		result.Explanation = fmt.Sprintf("Institutional credits %.1f are below the %.1f required for Latin honors.", input.InstitutionalCredits, cfg.MinimumInstitutionalCredits)
		return result, nil
	}
	if !gpaKnown {
		result.Explanation = "No GPA is available for honors consideration."
		return result, nil
	}

	switch {
	case gpa >= cfg.SummaThreshold:
		result.Designation = designationPtr(models.HonorsSummaCumLaude)
		result.Explanation = fmt.Sprintf("GPA %.3f meets the summa cum laude threshold of %.2f.", gpa, cfg.SummaThreshold)
	case gpa >= cfg.MagnaThreshold:
		result.Designation = designationPtr(models.HonorsMagnaCumLaude)
		result.Explanation = fmt.Sprintf("GPA %.3f meets the magna cum laude threshold of %.2f.", gpa, cfg.MagnaThreshold)
	case gpa >= cfg.CumThreshold:
		result.Designation = designationPtr(models.HonorsCumLaude)
		result.Explanation = fmt.Sprintf("GPA %.3f meets the cum laude threshold of %.2f.", gpa, cfg.CumThreshold)
	default:
		result.Explanation = fmt.Sprintf("GPA %.3f is below the %.2f cum laude threshold.", gpa, cfg.CumThreshold)
	}
	return result, nil
}

// resolveHonorsGpa picks the institutional GPA when the config excludes
// transfer credits and that value is present, otherwise the cumulative GPA.
func resolveHonorsGpa(input models.LatinHonorsInput, cfg models.LatinHonorsConfig) (float64, bool) {
	if cfg.ExcludeTransferCredits && input.InstitutionalGpa != nil {
		return *input.InstitutionalGpa, true
	}
	if input.CumulativeGpa != nil {
		return *input.CumulativeGpa, true
	}
	return 0, false
}

func designationPtr(d models.HonorsDesignation) *models.HonorsDesignation {
	return &d
}
