package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EvaluationKind selects which calculator a batch runs.
type EvaluationKind string

const (
	EvaluationKindSap EvaluationKind = "sap"
	EvaluationKindGpa EvaluationKind = "gpa"
)

// Valid reports whether the kind is a known calculator.
func (k EvaluationKind) Valid() bool {
	return k == EvaluationKindSap || k == EvaluationKindGpa
}

// BatchStatus tracks the orchestration lifecycle:
// collecting -> processing -> completed | failed.
type BatchStatus string

const (
	BatchStatusCollecting BatchStatus = "collecting"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// Terminal reports whether the batch reached a final state.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// CohortSelector picks the students a batch evaluates: an explicit ID list,
// or all active students optionally narrowed to a program.
type CohortSelector struct {
	StudentIDs []string `json:"studentIds,omitempty"`
	ProgramID  *string  `json:"programId,omitempty"`
	AllActive  bool     `json:"allActive,omitempty"`
}

// BatchParams is the JSONB document describing a queued evaluation run.
type BatchParams struct {
	Kind     EvaluationKind `json:"kind"`
	PeriodID string         `json:"periodId"`
	Cohort   CohortSelector `json:"cohort"`
}

// Value implements driver.Valuer storing params as JSONB.
func (p BatchParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner reading params from JSONB.
func (p *BatchParams) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for BatchParams", v)
	}
}

// EvaluationError identifies one failed or skipped entity in a run. The
// list a batch keeps is capped, so it is non-exhaustive beyond the cap.
type EvaluationError struct {
	StudentID string `json:"studentId"`
	Message   string `json:"message"`
}

// BatchProgress holds the monotonically advancing counters of one run.
type BatchProgress struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// BatchResult is the terminal summary of one run. Counters always
// reconcile: Processed = Successful + Failed and Skipped = Total - Processed.
type BatchResult struct {
	Total           int               `json:"total"`
	Processed       int               `json:"processed"`
	Successful      int               `json:"successful"`
	Failed          int               `json:"failed"`
	Skipped         int               `json:"skipped"`
	DurationMs      int64             `json:"durationMs"`
	Errors          []EvaluationError `json:"errors,omitempty"`
	ErrorsTruncated bool              `json:"errorsTruncated,omitempty"`
}

// Value implements driver.Valuer storing the result as JSONB.
func (r BatchResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner reading the result from JSONB.
func (r *BatchResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for BatchResult", v)
	}
}

// ExportFormat enumerates batch export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// EvaluationBatch is the persisted batch job record.
type EvaluationBatch struct {
	ID          string         `db:"id" json:"id"`
	Kind        EvaluationKind `db:"kind" json:"kind"`
	PeriodID    string         `db:"period_id" json:"period_id"`
	Params      BatchParams    `db:"params" json:"params"`
	Status      BatchStatus    `db:"status" json:"status"`
	Progress    int            `db:"progress" json:"progress"`
	Total       int            `db:"total" json:"total"`
	Processed   int            `db:"processed" json:"processed"`
	Successful  int            `db:"successful" json:"successful"`
	Failed      int            `db:"failed" json:"failed"`
	Skipped     int            `db:"skipped" json:"skipped"`
	Result      *BatchResult   `db:"result" json:"result,omitempty"`
	Error       *string        `db:"error_message" json:"error,omitempty"`
	RequestedBy *string        `db:"requested_by" json:"requested_by,omitempty"`
	CanceledAt  *time.Time     `db:"canceled_at" json:"canceled_at,omitempty"`
	StartedAt   *time.Time     `db:"started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
