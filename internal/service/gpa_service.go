package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

const defaultGpaPrecision = 3

// GpaService computes grade point averages with repeat-course resolution.
// Calculations are pure: no lookups, no side effects, deterministic for a
// given attempt set and options.
type GpaService struct {
	logger   *zap.Logger
	rounding func(v float64, precision int) float64
}

// NewGpaService constructs the calculator.
func NewGpaService(logger *zap.Logger) *GpaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GpaService{
		logger:   logger,
		rounding: roundTo,
	}
}

func roundTo(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.RoundToEven(v*factor) / factor
}

// Calculate aggregates the attempts into a GpaResult. Attempts must be
// ordered chronologically (oldest first); the last attempt of a course is
// treated as the most recent one when resolving repeats. CumulativeGpa is
// nil exactly when no GPA-eligible attempted credits exist.
func (s *GpaService) Calculate(attempts []models.CourseAttempt, opts models.GpaCalculationOptions) (*models.GpaResult, error) {
	if opts.Precision <= 0 {
		opts.Precision = defaultGpaPrecision
	}
	if opts.DefaultRepeatPolicy == "" {
		opts.DefaultRepeatPolicy = models.RepeatPolicyReplace
	}
	if !opts.DefaultRepeatPolicy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown repeat policy %q", opts.DefaultRepeatPolicy))
	}

	if err := validateAttempts(attempts); err != nil {
		return nil, err
	}

	groups, order := groupByCourse(attempts)

	result := &models.GpaResult{Details: make([]models.AttemptDetail, 0, len(attempts))}
	for _, courseID := range order {
		group := groups[courseID]
		if len(group) == 1 {
			contribute(result, group[0], false)
			continue
		}
		switch resolveGroupPolicy(group, opts.DefaultRepeatPolicy) {
		case models.RepeatPolicyReplace:
			applyReplace(result, group)
		case models.RepeatPolicyAverage:
			applyAverage(result, group)
		case models.RepeatPolicyHighest:
			applyHighest(result, group)
		default:
			for _, a := range group {
				contribute(result, a, false)
			}
		}
	}

	if result.GpaCredits > 0 {
		gpa := s.rounding(result.QualityPoints/result.GpaCredits, opts.Precision)
		result.CumulativeGpa = &gpa
	}
	return result, nil
}

func validateAttempts(attempts []models.CourseAttempt) error {
	for _, a := range attempts {
		if a.Credits < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attempt %s: credits must not be negative", a.ID))
		}
		if a.GradePoints != nil && a.GradeCode == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attempt %s: grade points present without a grade code", a.ID))
		}
		if a.IncludeInGpa && a.GradePoints == nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attempt %s: GPA-eligible attempt is missing grade points", a.ID))
		}
		if a.RepeatPolicy != "" && !a.RepeatPolicy.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attempt %s: unknown repeat policy %q", a.ID, a.RepeatPolicy))
		}
	}
	return nil
}

func groupByCourse(attempts []models.CourseAttempt) (map[string][]models.CourseAttempt, []string) {
	groups := make(map[string][]models.CourseAttempt, len(attempts))
	order := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if _, ok := groups[a.CourseID]; !ok {
			order = append(order, a.CourseID)
		}
		groups[a.CourseID] = append(groups[a.CourseID], a)
	}
	return groups, order
}

// resolveGroupPolicy picks the most recent attempt's explicit policy,
// falling back to the calculation default.
func resolveGroupPolicy(group []models.CourseAttempt, fallback models.RepeatPolicy) models.RepeatPolicy {
	for i := len(group) - 1; i >= 0; i-- {
		if group[i].RepeatPolicy != "" {
			return group[i].RepeatPolicy
		}
	}
	return fallback
}

// contribute applies one attempt's credits and quality points to the
// running totals and records its detail entry.
func contribute(result *models.GpaResult, a models.CourseAttempt, averaged bool) {
	if a.CountsAttempted {
		result.AttemptedCredits += a.Credits
	}
	if a.CountsEarned {
		result.EarnedCredits += a.Credits
	}
	var qp float64
	if a.IncludeInGpa && a.GradePoints != nil {
		qp = a.Credits * *a.GradePoints
		result.GpaCredits += a.Credits
		result.QualityPoints += qp
	}
	result.Details = append(result.Details, models.AttemptDetail{
		AttemptID:     a.ID,
		CourseID:      a.CourseID,
		TermID:        a.TermID,
		GradeCode:     a.GradeCode,
		Credits:       a.Credits,
		GradePoints:   a.GradePoints,
		QualityPoints: qp,
		Averaged:      averaged,
	})
}

// exclude records an attempt that contributes nothing to the totals.
func exclude(result *models.GpaResult, a models.CourseAttempt, reason string) {
	result.Details = append(result.Details, models.AttemptDetail{
		AttemptID:      a.ID,
		CourseID:       a.CourseID,
		TermID:         a.TermID,
		GradeCode:      a.GradeCode,
		Credits:        a.Credits,
		GradePoints:    a.GradePoints,
		Excluded:       true,
		ExcludedReason: reason,
	})
}

// applyReplace keeps only the most recent attempt; every earlier attempt is
// fully excluded from attempted, earned and quality point totals.
func applyReplace(result *models.GpaResult, group []models.CourseAttempt) {
	last := len(group) - 1
	for _, a := range group[:last] {
		exclude(result, a, "replaced by a more recent attempt")
	}
	contribute(result, group[last], false)
}

// applyAverage blends every graded attempt into a credit-weighted mean and
// counts the course once, using the most recent attempt for credit flags.
func applyAverage(result *models.GpaResult, group []models.CourseAttempt) {
	repIdx := len(group) - 1
	rep := group[repIdx]

	var sumCredits, sumWeighted float64
	gpaBaseIdx := -1
	for i, a := range group {
		if a.IncludeInGpa && a.GradePoints != nil {
			sumCredits += a.Credits
			sumWeighted += a.Credits * *a.GradePoints
			gpaBaseIdx = i
		}
	}

	if rep.CountsAttempted {
		result.AttemptedCredits += rep.Credits
	}
	if rep.CountsEarned {
		result.EarnedCredits += rep.Credits
	}

	var meanPoints, meanQp float64
	if gpaBaseIdx >= 0 && sumCredits > 0 {
		meanPoints = sumWeighted / sumCredits
		meanQp = meanPoints * group[gpaBaseIdx].Credits
		result.GpaCredits += group[gpaBaseIdx].Credits
		result.QualityPoints += meanQp
	}

	for i, a := range group {
		var qp float64
		if i == gpaBaseIdx {
			qp = meanQp
		}
		detail := models.AttemptDetail{
			AttemptID:     a.ID,
			CourseID:      a.CourseID,
			TermID:        a.TermID,
			GradeCode:     a.GradeCode,
			Credits:       a.Credits,
			GradePoints:   a.GradePoints,
			QualityPoints: qp,
			Averaged:      a.IncludeInGpa && a.GradePoints != nil,
		}
		if i != repIdx {
			detail.Excluded = true
			detail.ExcludedReason = "credits counted once under average policy"
		}
		result.Details = append(result.Details, detail)
	}
}

// applyHighest keeps the attempt with the best grade points, later attempts
// winning ties. When no attempt is graded the most recent one carries the
// credit flags.
func applyHighest(result *models.GpaResult, group []models.CourseAttempt) {
	best := -1
	for i, a := range group {
		if a.GradePoints == nil || !a.IncludeInGpa {
			continue
		}
		if best < 0 || *a.GradePoints >= *group[best].GradePoints {
			best = i
		}
	}
	if best < 0 {
		best = len(group) - 1
	}
	for i, a := range group {
		if i == best {
			contribute(result, a, false)
			continue
		}
		exclude(result, a, "superseded by a higher-graded attempt")
	}
}
