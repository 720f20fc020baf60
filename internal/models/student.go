package models

import "time"

// Student is a learner registered in the institution. The current standing
// fields are denormalized from the latest SAP evaluation so list views and
// aid checks avoid joining result history.
type Student struct {
	ID                 string           `db:"id" json:"id"`
	ExternalRef        string           `db:"external_ref" json:"external_ref"`
	FullName           string           `db:"full_name" json:"full_name"`
	ProgramID          string           `db:"program_id" json:"program_id"`
	ProgramCredits     float64          `db:"program_credits" json:"program_credits"`
	Active             bool             `db:"active" json:"active"`
	AppealApproved     bool             `db:"appeal_approved" json:"appeal_approved"`
	OnAcademicPlan     bool             `db:"on_academic_plan" json:"on_academic_plan"`
	PlanRequirements   PlanRequirements `db:"plan_requirements" json:"plan_requirements,omitempty"`
	IntegrityViolation bool             `db:"integrity_violation" json:"integrity_violation"`
	CurrentSapStatus   *SapStatus       `db:"current_sap_status" json:"current_sap_status,omitempty"`
	CurrentGpa         *float64         `db:"current_gpa" json:"current_gpa,omitempty"`
	StandingUpdatedAt  *time.Time       `db:"standing_updated_at" json:"standing_updated_at,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	Active    *bool
	SapStatus *SapStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AcademicSnapshot is the read model handed to the calculators: the student
// row plus every course attempt with grade semantics resolved.
type AcademicSnapshot struct {
	Student  Student         `json:"student"`
	Attempts []CourseAttempt `json:"attempts"`
}
