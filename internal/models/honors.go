package models

// HonorsDesignation enumerates the Latin honors tiers.
type HonorsDesignation string

const (
	HonorsSummaCumLaude HonorsDesignation = "summa_cum_laude"
	HonorsMagnaCumLaude HonorsDesignation = "magna_cum_laude"
	HonorsCumLaude      HonorsDesignation = "cum_laude"
)

// LatinHonorsConfig holds the honors thresholds. Thresholds are supplied in
// descending order (summa, magna, cum); the calculator does not re-sort.
type LatinHonorsConfig struct {
	SummaThreshold                 float64 `json:"summaThreshold" validate:"gt=0"`
	MagnaThreshold                 float64 `json:"magnaThreshold" validate:"gt=0"`
	CumThreshold                   float64 `json:"cumThreshold" validate:"gt=0"`
	MinimumCredits                 float64 `json:"minimumCredits" validate:"gte=0"`
	MinimumInstitutionalCredits    float64 `json:"minimumInstitutionalCredits" validate:"gte=0"`
	ExcludeTransferCredits         bool    `json:"excludeTransferCredits"`
	DisqualifyForAcademicIntegrity bool    `json:"disqualifyForAcademicIntegrity"`
}

// LatinHonorsInput is one candidate's honors snapshot.
type LatinHonorsInput struct {
	StudentID                     string   `json:"studentId" validate:"required"`
	CumulativeGpa                 *float64 `json:"cumulativeGpa,omitempty"`
	InstitutionalGpa              *float64 `json:"institutionalGpa,omitempty"`
	EarnedCredits                 float64  `json:"earnedCredits" validate:"gte=0"`
	InstitutionalCredits          float64  `json:"institutionalCredits" validate:"gte=0"`
	HasAcademicIntegrityViolation bool     `json:"hasAcademicIntegrityViolation"`
}

// LatinHonorsResult carries the computed designation. Designation is nil
// whenever any disqualifying condition holds, regardless of GPA.
type LatinHonorsResult struct {
	StudentID                string             `json:"studentId"`
	Designation              *HonorsDesignation `json:"designation"`
	GpaUsed                  float64            `json:"gpaUsed"`
	DisqualifiedForIntegrity bool               `json:"disqualifiedForIntegrity"`
	Explanation              string             `json:"explanation"`
}
