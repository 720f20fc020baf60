package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const evaluationBatchColumns = `id, kind, period_id, params, status, progress, total, processed, successful, failed, skipped, result, error_message, requested_by, canceled_at, started_at, finished_at, created_at, updated_at`

// EvaluationRepository persists batch evaluation runs.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts a new batch row with generated defaults.
func (r *EvaluationRepository) Create(ctx context.Context, batch *models.EvaluationBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.Status == "" {
		batch.Status = models.BatchStatusCollecting
	}
	now := time.Now().UTC()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now
	const query = `INSERT INTO evaluation_batches (id, kind, period_id, params, status, progress, total, processed, successful, failed, skipped, result, error_message, requested_by, canceled_at, started_at, finished_at, created_at, updated_at)
VALUES (:id, :kind, :period_id, :params, :status, :progress, :total, :processed, :successful, :failed, :skipped, :result, :error_message, :requested_by, :canceled_at, :started_at, :finished_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create evaluation batch: %w", err)
	}
	return nil
}

// GetByID returns a batch row by its identifier.
func (r *EvaluationRepository) GetByID(ctx context.Context, id string) (*models.EvaluationBatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM evaluation_batches WHERE id = $1`, evaluationBatchColumns)
	var batch models.EvaluationBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, fmt.Errorf("get evaluation batch: %w", err)
	}
	return &batch, nil
}

// UpdateBatchParams defines the mutable fields of a batch row.
type UpdateBatchParams struct {
	Status       *models.BatchStatus
	Progress     *int
	Total        *int
	Processed    *int
	Successful   *int
	Failed       *int
	Skipped      *int
	Result       *models.BatchResult
	ErrorMessage *string
	CanceledAt   *time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Update persists the provided changes for a batch row.
func (r *EvaluationRepository) Update(ctx context.Context, id string, params UpdateBatchParams) error {
	set := make([]string, 0, 12)
	args := make([]interface{}, 0, 13)
	argPos := 1

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.Total != nil {
		add("total", *params.Total)
	}
	if params.Processed != nil {
		add("processed", *params.Processed)
	}
	if params.Successful != nil {
		add("successful", *params.Successful)
	}
	if params.Failed != nil {
		add("failed", *params.Failed)
	}
	if params.Skipped != nil {
		add("skipped", *params.Skipped)
	}
	if params.Result != nil {
		add("result", *params.Result)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.CanceledAt != nil {
		add("canceled_at", *params.CanceledAt)
	}
	if params.StartedAt != nil {
		add("started_at", *params.StartedAt)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}

	if len(set) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE evaluation_batches SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update evaluation batch: %w", err)
	}
	return nil
}

// ListUnfinished fetches batches that never reached a terminal state (used
// for cold start recovery).
func (r *EvaluationRepository) ListUnfinished(ctx context.Context, limit int) ([]models.EvaluationBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM evaluation_batches
WHERE status IN ('collecting', 'processing') ORDER BY created_at ASC LIMIT $1`, evaluationBatchColumns)
	var batches []models.EvaluationBatch
	if err := r.db.SelectContext(ctx, &batches, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished evaluation batches: %w", err)
	}
	return batches, nil
}

// List returns recent batches, newest first.
func (r *EvaluationRepository) List(ctx context.Context, limit, offset int) ([]models.EvaluationBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM evaluation_batches ORDER BY created_at DESC LIMIT $1 OFFSET $2`, evaluationBatchColumns)
	var batches []models.EvaluationBatch
	if err := r.db.SelectContext(ctx, &batches, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list evaluation batches: %w", err)
	}
	return batches, nil
}

// DeleteFinishedBefore purges terminal batches older than the cutoff.
func (r *EvaluationRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM evaluation_batches
WHERE status IN ('completed', 'failed') AND finished_at IS NOT NULL AND finished_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete finished evaluation batches: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete finished evaluation batches: %w", err)
	}
	return count, nil
}
