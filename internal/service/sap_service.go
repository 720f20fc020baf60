package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

// SapService evaluates satisfactory academic progress. Three components are
// checked independently (GPA, pace, maximum timeframe) and the status is
// derived with a fixed precedence: timeframe exceedance wins, then full
// compliance, then first-strike warning, then appeal-gated probation or
// academic plan, then suspension. Evaluation is pure and side-effect free.
type SapService struct {
	validate *validator.Validate
	logger   *zap.Logger
	rounding func(v float64, precision int) float64
}

// NewSapService constructs the calculator.
func NewSapService(logger *zap.Logger) *SapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SapService{
		validate: validator.New(),
		logger:   logger,
		rounding: roundTo,
	}
}

// Evaluate produces the SapResult for one student snapshot under the given
// policy. An absent PreviousStatus is treated as a first evaluation.
func (s *SapService) Evaluate(input models.SapInput, policy models.SapPolicy) (*models.SapResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sap input")
	}
	if input.PreviousStatus != nil && !input.PreviousStatus.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown previous status %q", *input.PreviousStatus))
	}
	if err := validateSapPolicy(policy); err != nil {
		return nil, err
	}

	gpaComp := s.gpaComponent(input, policy)
	paceComp := s.paceComponent(input, policy)
	timeframe := timeframeComponent(input, policy)

	status := deriveSapStatus(input, gpaComp, paceComp, timeframe)

	result := &models.SapResult{
		StudentID:          input.StudentID,
		PeriodID:           input.PeriodID,
		Status:             status,
		EligibleForAid:     status != models.SapStatusSuspension && status != models.SapStatusIneligible,
		GpaComponent:       gpaComp,
		PaceComponent:      paceComp,
		TimeframeComponent: timeframe,
		Recommendations:    sapRecommendations(gpaComp, paceComp, timeframe),
	}
	if input.OnAcademicPlan {
		result.PlanCompliance = planCompliance(input.PlanRequirements)
	}
	return result, nil
}

func validateSapPolicy(policy models.SapPolicy) error {
	if policy.MinimumGpa < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "policy minimum GPA must not be negative")
	}
	if policy.MinimumPace <= 0 || policy.MinimumPace > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "policy minimum pace must be in (0, 1]")
	}
	if policy.MaxTimeframePercentage <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "policy max timeframe percentage must be positive")
	}
	for _, tier := range policy.GpaTiers {
		if tier.CreditFloor < 0 || tier.MinimumGpa < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "policy GPA tiers must not be negative")
		}
	}
	return nil
}

// gpaComponent compares the cumulative GPA against the policy minimum or,
// when tiers exist, the tier with the highest credit floor at or below the
// student's attempted credits.
func (s *SapService) gpaComponent(input models.SapInput, policy models.SapPolicy) models.SapComponent {
	required := policy.MinimumGpa
	bestFloor := -1.0
	for _, tier := range policy.GpaTiers {
		if input.AttemptedCredits >= tier.CreditFloor && tier.CreditFloor > bestFloor {
			bestFloor = tier.CreditFloor
			required = tier.MinimumGpa
		}
	}

	var actual float64
	if input.CumulativeGpa != nil {
		actual = *input.CumulativeGpa
	}

	comp := models.SapComponent{Actual: actual, Required: required, Met: actual >= required}
	if !comp.Met {
		comp.Deficit = s.rounding(required-actual, 2)
	}
	return comp
}

// paceComponent divides earned by attempted credits. Zero attempted credits
// yield a pace of 0, reported as unmet rather than a divide error. The
// stored pace keeps three decimals; the comparison runs at two, so 40/60
// meets a 0.67 floor and exactly 0.67 does too.
func (s *SapService) paceComponent(input models.SapInput, policy models.SapPolicy) models.SapComponent {
	var pace float64
	if input.AttemptedCredits > 0 {
		pace = input.EarnedCredits / input.AttemptedCredits
	}

	met := input.AttemptedCredits > 0 && s.rounding(pace, 2) >= policy.MinimumPace
	comp := models.SapComponent{Actual: s.rounding(pace, 3), Required: policy.MinimumPace, Met: met}
	if !met {
		comp.Deficit = s.rounding(policy.MinimumPace-pace, 2)
	}
	return comp
}

// timeframeComponent checks attempted credits against the program length
// scaled by the timeframe percentage. Reaching the cap is exceeding it.
func timeframeComponent(input models.SapInput, policy models.SapPolicy) models.SapTimeframeComponent {
	allowed := input.ProgramCredits * policy.MaxTimeframePercentage
	return models.SapTimeframeComponent{
		AttemptedCredits: input.AttemptedCredits,
		AllowedCredits:   allowed,
		Exceeded:         input.AttemptedCredits >= allowed,
	}
}

// deriveSapStatus applies the status precedence, first match winning.
// Ineligibility is terminal and reachable only through the timeframe cap.
func deriveSapStatus(input models.SapInput, gpa, pace models.SapComponent, tf models.SapTimeframeComponent) models.SapStatus {
	switch {
	case tf.Exceeded:
		return models.SapStatusIneligible
	case gpa.Met && pace.Met:
		return models.SapStatusSatisfactory
	case input.PreviousStatus == nil || *input.PreviousStatus == models.SapStatusSatisfactory:
		return models.SapStatusWarning
	case input.AppealApproved && input.OnAcademicPlan:
		return models.SapStatusAcademicPlan
	case input.AppealApproved:
		return models.SapStatusProbation
	default:
		return models.SapStatusSuspension
	}
}

func sapRecommendations(gpa, pace models.SapComponent, tf models.SapTimeframeComponent) []string {
	recs := make([]string, 0, 3)
	if tf.Exceeded {
		recs = append(recs, fmt.Sprintf("Attempted credits (%.1f) meet or exceed the %.1f credit maximum timeframe; aid eligibility cannot be restored by appeal.", tf.AttemptedCredits, tf.AllowedCredits))
	}
	if !gpa.Met {
		recs = append(recs, fmt.Sprintf("Raise the cumulative GPA from %.2f to at least %.2f.", gpa.Actual, gpa.Required))
	}
	if !pace.Met {
		recs = append(recs, fmt.Sprintf("Complete a larger share of attempted credits; completion pace %.3f is below the %.2f minimum.", pace.Actual, pace.Required))
	}
	return recs
}

// planCompliance checks each academic-plan term requirement. The outcome is
// informational and never alters the derived status.
func planCompliance(reqs models.PlanRequirements) *models.AcademicPlanCompliance {
	compliance := &models.AcademicPlanCompliance{
		Compliant: true,
		Terms:     make([]models.PlanTermCompliance, 0, len(reqs)),
	}
	for _, req := range reqs {
		gpaMet := req.RequiredGpa <= 0 || (req.TermGpa != nil && *req.TermGpa >= req.RequiredGpa)
		creditsMet := req.EarnedCredits >= req.RequiredCredits
		term := models.PlanTermCompliance{
			TermID:     req.TermID,
			GpaMet:     gpaMet,
			CreditsMet: creditsMet,
			Met:        gpaMet && creditsMet,
		}
		if !term.Met {
			compliance.Compliant = false
		}
		compliance.Terms = append(compliance.Terms, term)
	}
	return compliance
}
