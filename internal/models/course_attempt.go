package models

import "time"

// RepeatPolicy determines how multiple attempts of the same course aggregate
// into GPA totals.
type RepeatPolicy string

const (
	RepeatPolicyReplace  RepeatPolicy = "replace"
	RepeatPolicyAverage  RepeatPolicy = "average"
	RepeatPolicyHighest  RepeatPolicy = "highest"
	RepeatPolicyAllCount RepeatPolicy = "all_count"
)

// Valid reports whether the policy is one of the known variants.
func (p RepeatPolicy) Valid() bool {
	switch p {
	case RepeatPolicyReplace, RepeatPolicyAverage, RepeatPolicyHighest, RepeatPolicyAllCount:
		return true
	}
	return false
}

// CourseAttempt is one graded or in-progress enrollment instance. Attempts
// are immutable once captured; a regrade creates a new row rather than
// mutating history. Grade semantics (points, GPA inclusion, attempted and
// earned flags) are resolved from the grade scale at read time.
type CourseAttempt struct {
	ID              string       `db:"id" json:"id"`
	StudentID       string       `db:"student_id" json:"student_id"`
	CourseID        string       `db:"course_id" json:"course_id"`
	TermID          string       `db:"term_id" json:"term_id"`
	Credits         float64      `db:"credits" json:"credits"`
	GradeCode       string       `db:"grade_code" json:"grade_code"`
	GradePoints     *float64     `db:"grade_points" json:"grade_points,omitempty"`
	IncludeInGpa    bool         `db:"include_in_gpa" json:"include_in_gpa"`
	CountsAttempted bool         `db:"counts_attempted" json:"counts_attempted"`
	CountsEarned    bool         `db:"counts_earned" json:"counts_earned"`
	IsTransfer      bool         `db:"is_transfer" json:"is_transfer"`
	IsRepeat        bool         `db:"is_repeat" json:"is_repeat"`
	RepeatPolicy    RepeatPolicy `db:"repeat_policy" json:"repeat_policy,omitempty"`
	ReplacesID      *string      `db:"replaces_id" json:"replaces_id,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}
