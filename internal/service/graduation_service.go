package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

// GraduationService validates graduation eligibility from pre-resolved
// facts. It runs three independent checklists (academic, administrative,
// record data) and aggregates blockers in that order. It fetches nothing
// itself; holds, balances, and clearances arrive resolved in the input.
type GraduationService struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGraduationService constructs the validator.
func NewGraduationService(logger *zap.Logger) *GraduationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraduationService{
		validate: validator.New(),
		logger:   logger,
	}
}

// Validate evaluates every checklist item and reports the aggregate
// verdict. Eligibility requires every check to pass; warnings never block.
func (s *GraduationService) Validate(input models.GraduationEligibilityInput, cfg models.GraduationPolicyConfig) (*models.GraduationValidationResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid graduation input")
	}
	if err := s.validate.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid graduation policy")
	}

	checks := make([]models.GraduationCheck, 0, 16)
	checks = append(checks, academicChecks(input.Academic, cfg)...)
	checks = append(checks, administrativeChecks(input.Administrative, cfg)...)
	checks = append(checks, recordDataChecks(input.Data)...)

	blockers := make([]string, 0, len(checks))
	for _, check := range checks {
		if !check.Passed {
			blockers = append(blockers, check.Detail)
		}
	}

	warnings := make([]string, 0, len(input.Academic.RecommendedMilestones))
	for _, milestone := range input.Academic.RecommendedMilestones {
		if !containsString(input.Academic.CompletedMilestones, milestone) {
			warnings = append(warnings, fmt.Sprintf("Recommended milestone %q has not been completed.", milestone))
		}
	}

	return &models.GraduationValidationResult{
		StudentID:  input.StudentID,
		IsEligible: len(blockers) == 0,
		Checks:     checks,
		Blockers:   blockers,
		Warnings:   warnings,
	}, nil
}

func academicChecks(facts models.AcademicRecordFacts, cfg models.GraduationPolicyConfig) []models.GraduationCheck {
	checks := []models.GraduationCheck{
		{
			Code:    "DEGREE_AUDIT",
			Section: models.SectionAcademic,
			Passed:  facts.DegreeAuditComplete,
			Detail:  failDetail(facts.DegreeAuditComplete, "Degree audit has not been completed."),
		},
		{
			Code:    "MINIMUM_CREDITS",
			Section: models.SectionAcademic,
			Passed:  facts.EarnedCredits >= cfg.MinimumCredits,
			Detail: failDetail(facts.EarnedCredits >= cfg.MinimumCredits,
				fmt.Sprintf("Earned credits %.1f are below the %.1f required for graduation.", facts.EarnedCredits, cfg.MinimumCredits)),
		},
	}

	gpaPassed := facts.CumulativeGpa != nil && *facts.CumulativeGpa >= cfg.MinimumGpa
	gpaDetail := ""
	if facts.CumulativeGpa == nil {
		gpaDetail = "No cumulative GPA is on record."
	} else if !gpaPassed {
		gpaDetail = fmt.Sprintf("Cumulative GPA %.3f is below the %.2f graduation minimum.", *facts.CumulativeGpa, cfg.MinimumGpa)
	}
	checks = append(checks, models.GraduationCheck{
		Code:    "MINIMUM_GPA",
		Section: models.SectionAcademic,
		Passed:  gpaPassed,
		Detail:  gpaDetail,
	})

	checks = append(checks,
		models.GraduationCheck{
			Code:    "INCOMPLETE_GRADES",
			Section: models.SectionAcademic,
			Passed:  facts.IncompleteGrades == 0,
			Detail: failDetail(facts.IncompleteGrades == 0,
				fmt.Sprintf("%d incomplete grade(s) must be resolved.", facts.IncompleteGrades)),
		},
		models.GraduationCheck{
			Code:    "PENDING_GRADES",
			Section: models.SectionAcademic,
			Passed:  facts.PendingGrades == 0,
			Detail: failDetail(facts.PendingGrades == 0,
				fmt.Sprintf("%d grade(s) are still pending submission.", facts.PendingGrades)),
		},
	)

	missing := make([]string, 0, len(facts.RequiredMilestones))
	for _, milestone := range facts.RequiredMilestones {
		if !containsString(facts.CompletedMilestones, milestone) {
			missing = append(missing, milestone)
		}
	}
	checks = append(checks, models.GraduationCheck{
		Code:    "REQUIRED_MILESTONES",
		Section: models.SectionAcademic,
		Passed:  len(missing) == 0,
		Detail: failDetail(len(missing) == 0,
			fmt.Sprintf("Required milestone(s) not completed: %s.", strings.Join(missing, ", "))),
	})
	return checks
}

func administrativeChecks(facts models.AdministrativeFacts, cfg models.GraduationPolicyConfig) []models.GraduationCheck {
	checks := []models.GraduationCheck{
		{
			Code:    "GRADUATION_HOLD",
			Section: models.SectionAdministrative,
			Passed:  !facts.HasGraduationHold,
			Detail:  failDetail(!facts.HasGraduationHold, "A hold blocking graduation is on the account."),
		},
		{
			Code:    "OUTSTANDING_BALANCE",
			Section: models.SectionAdministrative,
			Passed:  facts.OutstandingBalance <= cfg.MaxOutstandingBalance,
			Detail: failDetail(facts.OutstandingBalance <= cfg.MaxOutstandingBalance,
				fmt.Sprintf("Outstanding balance %.2f exceeds the %.2f maximum.", facts.OutstandingBalance, cfg.MaxOutstandingBalance)),
		},
		{
			Code:    "LIBRARY_CLEARANCE",
			Section: models.SectionAdministrative,
			Passed:  facts.LibraryCleared,
			Detail:  failDetail(facts.LibraryCleared, "Library clearance is outstanding."),
		},
		{
			Code:    "DEPARTMENT_CLEARANCE",
			Section: models.SectionAdministrative,
			Passed:  facts.DepartmentCleared,
			Detail:  failDetail(facts.DepartmentCleared, "Department clearance is outstanding."),
		},
	}
	if cfg.RequireExitCounseling {
		checks = append(checks, models.GraduationCheck{
			Code:    "EXIT_COUNSELING",
			Section: models.SectionAdministrative,
			Passed:  facts.ExitCounselingDone,
			Detail:  failDetail(facts.ExitCounselingDone, "Exit counseling has not been completed."),
		})
	}
	if facts.IsInternational {
		checks = append(checks, models.GraduationCheck{
			Code:    "SEVIS_UPDATE",
			Section: models.SectionAdministrative,
			Passed:  facts.SevisUpdated,
			Detail:  failDetail(facts.SevisUpdated, "SEVIS record has not been updated for program completion."),
		})
	}
	return checks
}

func recordDataChecks(facts models.RecordDataFacts) []models.GraduationCheck {
	diplomaOk := strings.TrimSpace(facts.DiplomaName) != ""
	addressOk := strings.TrimSpace(facts.MailingAddress) != ""
	return []models.GraduationCheck{
		{
			Code:    "DIPLOMA_NAME",
			Section: models.SectionData,
			Passed:  diplomaOk,
			Detail:  failDetail(diplomaOk, "Diploma name is missing from the student record."),
		},
		{
			Code:    "MAILING_ADDRESS",
			Section: models.SectionData,
			Passed:  addressOk,
			Detail:  failDetail(addressOk, "Diploma mailing address is missing from the student record."),
		},
		{
			Code:    "PROGRAM_DECLARED",
			Section: models.SectionData,
			Passed:  facts.ProgramDeclared,
			Detail:  failDetail(facts.ProgramDeclared, "No program of study is declared."),
		},
		{
			Code:    "MAJOR_DECLARED",
			Section: models.SectionData,
			Passed:  facts.MajorDeclared,
			Detail:  failDetail(facts.MajorDeclared, "No major is declared."),
		},
	}
}

func failDetail(passed bool, detail string) string {
	if passed {
		return ""
	}
	return detail
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
