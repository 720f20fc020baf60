package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SapStatus enumerates the satisfactory academic progress statuses. The set
// is closed; derivation follows a fixed precedence (max-timeframe, then
// satisfactory, warning, appeal-gated probation or plan, suspension).
type SapStatus string

const (
	SapStatusSatisfactory SapStatus = "satisfactory"
	SapStatusWarning      SapStatus = "warning"
	SapStatusProbation    SapStatus = "probation"
	SapStatusAcademicPlan SapStatus = "academic_plan"
	SapStatusSuspension   SapStatus = "suspension"
	SapStatusIneligible   SapStatus = "ineligible"
)

// Valid reports whether the status is one of the known variants.
func (s SapStatus) Valid() bool {
	switch s {
	case SapStatusSatisfactory, SapStatusWarning, SapStatusProbation,
		SapStatusAcademicPlan, SapStatusSuspension, SapStatusIneligible:
		return true
	}
	return false
}

// SapGpaTier sets the minimum GPA for students at or above a credit floor.
type SapGpaTier struct {
	CreditFloor float64 `json:"creditFloor"`
	MinimumGpa  float64 `json:"minimumGpa"`
}

// SapGpaTiers is the JSONB list of tiered GPA minimums, ordered ascending
// by credit floor.
type SapGpaTiers []SapGpaTier

// Value implements driver.Valuer storing tiers as JSONB.
func (t SapGpaTiers) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner reading tiers from JSONB.
func (t *SapGpaTiers) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported type %T for SapGpaTiers", v)
	}
}

// SapPolicy is the institution or program progress policy. Policies are
// immutable value inputs to the calculator; the row with a nil ProgramID is
// the institution default.
type SapPolicy struct {
	ID                     string      `db:"id" json:"id"`
	ProgramID              *string     `db:"program_id" json:"program_id,omitempty"`
	MinimumGpa             float64     `db:"minimum_gpa" json:"minimum_gpa"`
	MinimumPace            float64     `db:"minimum_pace" json:"minimum_pace"`
	MaxTimeframePercentage float64     `db:"max_timeframe_percentage" json:"max_timeframe_percentage"`
	GpaTiers               SapGpaTiers `db:"gpa_tiers" json:"gpa_tiers,omitempty"`
	EvaluationCadence      string      `db:"evaluation_cadence" json:"evaluation_cadence"`
	Active                 bool        `db:"active" json:"active"`
	CreatedAt              time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time   `db:"updated_at" json:"updated_at"`
}

// PlanTermRequirement is one academic-plan milestone with its actuals.
type PlanTermRequirement struct {
	TermID          string   `json:"termId"`
	RequiredGpa     float64  `json:"requiredGpa"`
	RequiredCredits float64  `json:"requiredCredits"`
	TermGpa         *float64 `json:"termGpa,omitempty"`
	EarnedCredits   float64  `json:"earnedCredits"`
}

// PlanRequirements is the JSONB list of academic-plan term requirements.
type PlanRequirements []PlanTermRequirement

// Value implements driver.Valuer storing requirements as JSONB.
func (p PlanRequirements) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner reading requirements from JSONB.
func (p *PlanRequirements) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for PlanRequirements", v)
	}
}

// SapInput is one student's academic snapshot at evaluation time. An absent
// PreviousStatus means first evaluation.
type SapInput struct {
	StudentID        string           `json:"studentId" validate:"required"`
	PeriodID         string           `json:"periodId" validate:"required"`
	CumulativeGpa    *float64         `json:"cumulativeGpa,omitempty"`
	AttemptedCredits float64          `json:"attemptedCredits" validate:"gte=0"`
	EarnedCredits    float64          `json:"earnedCredits" validate:"gte=0"`
	ProgramCredits   float64          `json:"programCredits" validate:"gt=0"`
	PreviousStatus   *SapStatus       `json:"previousStatus,omitempty"`
	AppealApproved   bool             `json:"appealApproved"`
	OnAcademicPlan   bool             `json:"onAcademicPlan"`
	PlanRequirements PlanRequirements `json:"planRequirements,omitempty"`
}

// SapComponent is one evaluated requirement with actual versus required.
type SapComponent struct {
	Met      bool    `json:"met"`
	Actual   float64 `json:"actual"`
	Required float64 `json:"required"`
	Deficit  float64 `json:"deficit,omitempty"`
}

// SapTimeframeComponent reports maximum-timeframe consumption. Exceeding it
// forces terminal ineligibility regardless of the other components.
type SapTimeframeComponent struct {
	Exceeded         bool    `json:"exceeded"`
	AttemptedCredits float64 `json:"attemptedCredits"`
	AllowedCredits   float64 `json:"allowedCredits"`
}

// PlanTermCompliance is the per-term outcome of an academic-plan check.
type PlanTermCompliance struct {
	TermID     string `json:"termId"`
	GpaMet     bool   `json:"gpaMet"`
	CreditsMet bool   `json:"creditsMet"`
	Met        bool   `json:"met"`
}

// AcademicPlanCompliance reports plan adherence. It never changes the
// derived status.
type AcademicPlanCompliance struct {
	Compliant bool                 `json:"compliant"`
	Terms     []PlanTermCompliance `json:"terms"`
}

// SapResult is the tri-component evaluation outcome.
type SapResult struct {
	StudentID          string                  `json:"studentId"`
	PeriodID           string                  `json:"periodId"`
	Status             SapStatus               `json:"status"`
	EligibleForAid     bool                    `json:"eligibleForAid"`
	GpaComponent       SapComponent            `json:"gpaComponent"`
	PaceComponent      SapComponent            `json:"paceComponent"`
	TimeframeComponent SapTimeframeComponent   `json:"maxTimeframeComponent"`
	PlanCompliance     *AcademicPlanCompliance `json:"academicPlanCompliance,omitempty"`
	Recommendations    []string                `json:"recommendations"`
}

// Value implements driver.Valuer storing the result document as JSONB.
func (r SapResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner reading the result document from JSONB.
func (r *SapResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for SapResult", v)
	}
}

// SapRecord is the persisted, versioned outcome of one SAP evaluation,
// keyed by (student, period). Re-evaluating the same pair overwrites the
// row and bumps the revision; rows for prior periods stay queryable.
type SapRecord struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	PeriodID       string    `db:"period_id" json:"period_id"`
	Status         SapStatus `db:"status" json:"status"`
	EligibleForAid bool      `db:"eligible_for_aid" json:"eligible_for_aid"`
	Result         SapResult `db:"result" json:"result"`
	Revision       int       `db:"revision" json:"revision"`
	EvaluatedAt    time.Time `db:"evaluated_at" json:"evaluated_at"`
}
