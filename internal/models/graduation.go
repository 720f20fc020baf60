package models

// GraduationSection identifies which checklist a check belongs to.
type GraduationSection string

const (
	SectionAcademic       GraduationSection = "academic"
	SectionAdministrative GraduationSection = "administrative"
	SectionData           GraduationSection = "data"
)

// GraduationPolicyConfig is the institution graduation policy.
type GraduationPolicyConfig struct {
	MinimumCredits        float64 `json:"minimumCredits" validate:"gt=0"`
	MinimumGpa            float64 `json:"minimumGpa" validate:"gte=0"`
	MaxOutstandingBalance float64 `json:"maxOutstandingBalance" validate:"gte=0"`
	RequireExitCounseling bool    `json:"requireExitCounseling"`
}

// AcademicRecordFacts carries the degree-audit side of a graduation check.
type AcademicRecordFacts struct {
	DegreeAuditComplete   bool     `json:"degreeAuditComplete"`
	EarnedCredits         float64  `json:"earnedCredits"`
	CumulativeGpa         *float64 `json:"cumulativeGpa,omitempty"`
	IncompleteGrades      int      `json:"incompleteGrades"`
	PendingGrades         int      `json:"pendingGrades"`
	RequiredMilestones    []string `json:"requiredMilestones,omitempty"`
	CompletedMilestones   []string `json:"completedMilestones,omitempty"`
	RecommendedMilestones []string `json:"recommendedMilestones,omitempty"`
}

// AdministrativeFacts carries clearance facts resolved by the registrar
// systems before validation.
type AdministrativeFacts struct {
	HasGraduationHold   bool    `json:"hasGraduationHold"`
	OutstandingBalance  float64 `json:"outstandingBalance"`
	LibraryCleared      bool    `json:"libraryCleared"`
	DepartmentCleared   bool    `json:"departmentCleared"`
	ExitCounselingDone  bool    `json:"exitCounselingDone"`
	IsInternational     bool    `json:"isInternational"`
	SevisUpdated        bool    `json:"sevisUpdated"`
}

// RecordDataFacts carries the record-completeness side of the check.
type RecordDataFacts struct {
	DiplomaName     string `json:"diplomaName"`
	MailingAddress  string `json:"mailingAddress"`
	ProgramDeclared bool   `json:"programDeclared"`
	MajorDeclared   bool   `json:"majorDeclared"`
}

// GraduationEligibilityInput aggregates the pre-resolved facts for one
// student. The validator performs no lookups of its own.
type GraduationEligibilityInput struct {
	StudentID      string              `json:"studentId" validate:"required"`
	Academic       AcademicRecordFacts `json:"academic"`
	Administrative AdministrativeFacts `json:"administrative"`
	Data           RecordDataFacts     `json:"data"`
}

// GraduationCheck is the outcome of a single checklist item.
type GraduationCheck struct {
	Code    string            `json:"code"`
	Section GraduationSection `json:"section"`
	Passed  bool              `json:"passed"`
	Detail  string            `json:"detail,omitempty"`
}

// GraduationValidationResult is the aggregate verdict. Blockers preserve
// checklist order: academic first, then administrative, then data.
type GraduationValidationResult struct {
	StudentID  string            `json:"studentId"`
	IsEligible bool              `json:"isEligible"`
	Checks     []GraduationCheck `json:"checks"`
	Blockers   []string          `json:"blockers"`
	Warnings   []string          `json:"warnings"`
}
