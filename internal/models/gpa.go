package models

import "time"

// GpaCalculationOptions tunes a single GPA calculation. Zero values fall
// back to institution defaults (replace policy, 3 decimal places).
type GpaCalculationOptions struct {
	DefaultRepeatPolicy RepeatPolicy `json:"defaultRepeatPolicy,omitempty"`
	Precision           int          `json:"precision,omitempty"`
}

// AttemptDetail records how one attempt entered (or was excluded from) the
// aggregate, forming the calculation's audit trail.
type AttemptDetail struct {
	AttemptID      string   `json:"attemptId"`
	CourseID       string   `json:"courseId"`
	TermID         string   `json:"termId"`
	GradeCode      string   `json:"gradeCode"`
	Credits        float64  `json:"credits"`
	GradePoints    *float64 `json:"gradePoints,omitempty"`
	QualityPoints  float64  `json:"qualityPoints"`
	Averaged       bool     `json:"averaged,omitempty"`
	Excluded       bool     `json:"excluded,omitempty"`
	ExcludedReason string   `json:"excludedReason,omitempty"`
}

// GpaResult is the outcome of one GPA calculation. CumulativeGpa is nil
// exactly when no GPA-eligible attempted credits exist.
type GpaResult struct {
	AttemptedCredits float64         `json:"attemptedCredits"`
	EarnedCredits    float64         `json:"earnedCredits"`
	GpaCredits       float64         `json:"gpaCredits"`
	QualityPoints    float64         `json:"qualityPoints"`
	CumulativeGpa    *float64        `json:"cumulativeGpa"`
	Details          []AttemptDetail `json:"details"`
}

// GpaSnapshot is the persisted GPA outcome for one (student, period) pair.
// Re-running the same pair overwrites the row and bumps the revision.
type GpaSnapshot struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	PeriodID         string    `db:"period_id" json:"period_id"`
	AttemptedCredits float64   `db:"attempted_credits" json:"attempted_credits"`
	EarnedCredits    float64   `db:"earned_credits" json:"earned_credits"`
	GpaCredits       float64   `db:"gpa_credits" json:"gpa_credits"`
	QualityPoints    float64   `db:"quality_points" json:"quality_points"`
	CumulativeGpa    *float64  `db:"cumulative_gpa" json:"cumulative_gpa,omitempty"`
	Revision         int       `db:"revision" json:"revision"`
	CalculatedAt     time.Time `db:"calculated_at" json:"calculated_at"`
}
