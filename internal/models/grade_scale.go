package models

import "time"

// GradeDefinition maps a grade code to its GPA semantics. Institution
// scoped, looked up read-only during calculation.
type GradeDefinition struct {
	ID              string    `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Description     string    `db:"description" json:"description"`
	GradePoints     *float64  `db:"grade_points" json:"grade_points,omitempty"`
	IncludeInGpa    bool      `db:"include_in_gpa" json:"include_in_gpa"`
	CountsAttempted bool      `db:"counts_attempted" json:"counts_attempted"`
	CountsEarned    bool      `db:"counts_earned" json:"counts_earned"`
	IsIncomplete    bool      `db:"is_incomplete" json:"is_incomplete"`
	IsWithdrawal    bool      `db:"is_withdrawal" json:"is_withdrawal"`
	SortOrder       int       `db:"sort_order" json:"sort_order"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
