package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/dto"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/repository"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/jobs"
)

type evaluationBatchStore interface {
	Create(ctx context.Context, batch *models.EvaluationBatch) error
	GetByID(ctx context.Context, id string) (*models.EvaluationBatch, error)
	Update(ctx context.Context, id string, params repository.UpdateBatchParams) error
	ListUnfinished(ctx context.Context, limit int) ([]models.EvaluationBatch, error)
	List(ctx context.Context, limit, offset int) ([]models.EvaluationBatch, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type snapshotProvider interface {
	Snapshot(ctx context.Context, studentID string) (*models.AcademicSnapshot, error)
	CohortIDs(ctx context.Context, selector models.CohortSelector) ([]string, error)
}

type sapResultWriter interface {
	Upsert(ctx context.Context, record *models.SapRecord) error
	GetPrevious(ctx context.Context, studentID, excludePeriodID string) (*models.SapRecord, error)
}

type gpaSnapshotWriter interface {
	Upsert(ctx context.Context, snap *models.GpaSnapshot) error
}

type standingWriter interface {
	UpdateStanding(ctx context.Context, id string, status models.SapStatus, gpa *float64) error
	UpdateCurrentGpa(ctx context.Context, id string, gpa *float64) error
}

type sapPolicySource interface {
	EffectiveSapPolicy(ctx context.Context, programID *string) (*models.SapPolicy, bool, error)
}

type batchDispatcher interface {
	Enqueue(job jobs.Job) error
}

// EvaluationServiceConfig governs sub-batch width, error capping, and
// retention of finished runs.
type EvaluationServiceConfig struct {
	SubBatchSize    int
	ErrorCap        int
	Retention       time.Duration
	CleanupInterval time.Duration
}

// EvaluationService orchestrates cohort evaluation runs. A run walks the
// cohort in fixed-size sub-batches; within a sub-batch every student is
// evaluated concurrently and independently, so one failure never aborts
// siblings. Counters advance after each sub-batch and a cooperative cancel
// is honored between sub-batches, never mid-flight.
type EvaluationService struct {
	batches    evaluationBatchStore
	snapshots  snapshotProvider
	sapResults sapResultWriter
	gpaResults gpaSnapshotWriter
	students   standingWriter
	policies   sapPolicySource
	gpa        *GpaService
	sap        *SapService
	queue      batchDispatcher
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        EvaluationServiceConfig

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// NewEvaluationService constructs the orchestrator.
func NewEvaluationService(
	batches evaluationBatchStore,
	snapshots snapshotProvider,
	sapResults sapResultWriter,
	gpaResults gpaSnapshotWriter,
	students standingWriter,
	policies sapPolicySource,
	gpa *GpaService,
	sap *SapService,
	queue batchDispatcher,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg EvaluationServiceConfig,
) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SubBatchSize <= 0 {
		cfg.SubBatchSize = 25
	}
	if cfg.ErrorCap <= 0 {
		cfg.ErrorCap = 100
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &EvaluationService{
		batches:    batches,
		snapshots:  snapshots,
		sapResults: sapResults,
		gpaResults: gpaResults,
		students:   students,
		policies:   policies,
		gpa:        gpa,
		sap:        sap,
		queue:      queue,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Create validates the request, persists the batch row, and enqueues the
// run.
func (s *EvaluationService) Create(ctx context.Context, req dto.EvaluationRequest, actorID string) (*dto.BatchResponse, error) {
	kind := models.EvaluationKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported evaluation kind %q", req.Kind))
	}
	if req.PeriodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "periodId is required")
	}
	selector := models.CohortSelector{
		StudentIDs: req.StudentIDs,
		ProgramID:  req.ProgramID,
		AllActive:  req.AllActive,
	}
	if len(selector.StudentIDs) == 0 && !selector.AllActive {
		if selector.ProgramID == nil || *selector.ProgramID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cohort selection requires studentIds, allActive, or a programId")
		}
		selector.AllActive = true
	}

	batch := &models.EvaluationBatch{
		Kind:     kind,
		PeriodID: req.PeriodID,
		Params:   models.BatchParams{Kind: kind, PeriodID: req.PeriodID, Cohort: selector},
		Status:   models.BatchStatusCollecting,
	}
	if actorID != "" {
		batch.RequestedBy = &actorID
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation batch")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: batch.ID, Type: string(kind)}); err != nil {
		s.markFailed(ctx, batch.ID, "failed to enqueue evaluation run")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue evaluation batch")
	}
	return &dto.BatchResponse{
		ID:       batch.ID,
		Kind:     batch.Kind,
		PeriodID: batch.PeriodID,
		Status:   batch.Status,
		Progress: batch.Progress,
	}, nil
}

// GetStatus exposes run progress and the terminal result.
func (s *EvaluationService) GetStatus(ctx context.Context, id string) (*dto.BatchStatusResponse, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation batch")
	}
	resp := &dto.BatchStatusResponse{
		ID:         batch.ID,
		Kind:       batch.Kind,
		PeriodID:   batch.PeriodID,
		Status:     batch.Status,
		Progress:   batch.Progress,
		Total:      batch.Total,
		Processed:  batch.Processed,
		Successful: batch.Successful,
		Failed:     batch.Failed,
		Skipped:    batch.Skipped,
		Result:     batch.Result,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
	}
	if batch.Error != nil && *batch.Error != "" {
		resp.Error = batch.Error
	}
	return resp, nil
}

// Get returns the raw batch row.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.EvaluationBatch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation batch")
	}
	return batch, nil
}

// List returns recent batches, newest first.
func (s *EvaluationService) List(ctx context.Context, limit, offset int) ([]models.EvaluationBatch, error) {
	batches, err := s.batches.List(ctx, limit, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluation batches")
	}
	return batches, nil
}

// Cancel requests a cooperative stop. A running batch finishes its current
// sub-batch before transitioning; a queued batch never starts.
func (s *EvaluationService) Cancel(ctx context.Context, id string) (*models.EvaluationBatch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation batch")
	}
	if batch.Status.Terminal() {
		return nil, appErrors.ErrBatchFinished
	}
	now := time.Now().UTC()
	if err := s.batches.Update(ctx, id, repository.UpdateBatchParams{CanceledAt: &now}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel evaluation batch")
	}
	s.cancelMu.Lock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
	}
	s.cancelMu.Unlock()
	batch.CanceledAt = &now
	return batch, nil
}

// Run executes one batch end to end. It is invoked from the queue worker;
// finalAttempt tells it whether a cohort-retrieval failure should mark the
// batch failed instead of leaving it for a retry.
func (s *EvaluationService) Run(ctx context.Context, batchID string, finalAttempt bool) error {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("load batch: %w", err)
	}
	if batch.Status.Terminal() {
		return nil
	}
	if batch.CanceledAt != nil {
		s.markFailed(ctx, batch.ID, "canceled before processing started")
		return appErrors.ErrBatchCanceled
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.registerCancel(batch.ID, cancel)
	defer s.unregisterCancel(batch.ID)

	start := time.Now()
	ids, err := s.snapshots.CohortIDs(runCtx, batch.Params.Cohort)
	if err != nil {
		if finalAttempt {
			s.markFailed(ctx, batch.ID, fmt.Sprintf("cohort retrieval failed: %v", err))
		}
		return fmt.Errorf("cohort retrieval: %w", err)
	}

	total := len(ids)
	processing := models.BatchStatusProcessing
	startedAt := time.Now().UTC()
	if err := s.batches.Update(ctx, batch.ID, repository.UpdateBatchParams{
		Status:    &processing,
		Total:     &total,
		StartedAt: &startedAt,
	}); err != nil {
		return fmt.Errorf("mark batch processing: %w", err)
	}

	s.metrics.BatchStarted()
	defer s.metrics.BatchFinished()

	tally := newBatchTally(total, s.cfg.ErrorCap)
	memo := newPolicyMemo(s.policies)
	canceled := false

	for begin := 0; begin < len(ids); begin += s.cfg.SubBatchSize {
		if ctx.Err() != nil {
			// Process shutdown: leave the row processing so recovery
			// re-runs it after restart.
			return ctx.Err()
		}
		if runCtx.Err() != nil {
			canceled = true
			break
		}
		end := min(begin+s.cfg.SubBatchSize, len(ids))
		s.runSubBatch(runCtx, batch, ids[begin:end], tally, memo)
		s.persistProgress(ctx, batch.ID, tally)
	}

	if canceled {
		s.markFailed(ctx, batch.ID, "run canceled")
		s.logger.Sugar().Infow("evaluation batch canceled",
			"batch_id", batch.ID, "kind", batch.Kind, "processed", tally.snapshot().Processed)
		return appErrors.ErrBatchCanceled
	}

	result := tally.result(time.Since(start))
	completed := models.BatchStatusCompleted
	finishedAt := time.Now().UTC()
	hundred := 100
	clear := ""
	if err := s.batches.Update(ctx, batch.ID, repository.UpdateBatchParams{
		Status:       &completed,
		Progress:     &hundred,
		Processed:    &result.Processed,
		Successful:   &result.Successful,
		Failed:       &result.Failed,
		Skipped:      &result.Skipped,
		Result:       &result,
		ErrorMessage: &clear,
		FinishedAt:   &finishedAt,
	}); err != nil {
		return fmt.Errorf("mark batch completed: %w", err)
	}

	s.metrics.ObserveBatchDuration(string(batch.Kind), time.Since(start))
	s.logger.Sugar().Infow("evaluation batch completed",
		"batch_id", batch.ID, "kind", batch.Kind, "total", result.Total,
		"successful", result.Successful, "failed", result.Failed,
		"skipped", result.Skipped, "duration_ms", result.DurationMs)
	return nil
}

// runSubBatch fans the sub-batch out, one goroutine per student, and joins
// every outcome before returning (settle-all).
func (s *EvaluationService) runSubBatch(ctx context.Context, batch *models.EvaluationBatch, ids []string, tally *batchTally, memo *policyMemo) {
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			outcome, err := s.evaluateOne(ctx, batch, studentID, memo)
			tally.record(studentID, outcome, err)
			s.metrics.RecordEvaluation(string(batch.Kind), outcome.label())
		}(id)
	}
	wg.Wait()
}

// evaluateOne classifies each student as successful, failed, or skipped. A
// missing or unusable snapshot skips the student; every other error counts
// the student as failed. Both leave an entry in the capped error list.
func (s *EvaluationService) evaluateOne(ctx context.Context, batch *models.EvaluationBatch, studentID string, memo *policyMemo) (evalOutcome, error) {
	start := time.Now()
	snap, err := s.snapshots.Snapshot(ctx, studentID)
	s.metrics.ObserveDBQuery("student_snapshot", time.Since(start))
	if err != nil {
		if isNotFound(err) {
			return outcomeSkipped, appErrors.Clone(appErrors.ErrNotFound, "academic snapshot not found")
		}
		return outcomeFailed, fmt.Errorf("snapshot fetch failed: %v", err)
	}

	switch batch.Kind {
	case models.EvaluationKindGpa:
		return s.evaluateGpa(ctx, batch, snap)
	case models.EvaluationKindSap:
		return s.evaluateSap(ctx, batch, snap, memo)
	default:
		return outcomeFailed, fmt.Errorf("unsupported evaluation kind %q", batch.Kind)
	}
}

func (s *EvaluationService) evaluateGpa(ctx context.Context, batch *models.EvaluationBatch, snap *models.AcademicSnapshot) (evalOutcome, error) {
	result, err := s.gpa.Calculate(snap.Attempts, models.GpaCalculationOptions{})
	if err != nil {
		return outcomeFailed, err
	}
	row := &models.GpaSnapshot{
		StudentID:        snap.Student.ID,
		PeriodID:         batch.PeriodID,
		AttemptedCredits: result.AttemptedCredits,
		EarnedCredits:    result.EarnedCredits,
		GpaCredits:       result.GpaCredits,
		QualityPoints:    result.QualityPoints,
		CumulativeGpa:    result.CumulativeGpa,
	}
	if err := s.gpaResults.Upsert(ctx, row); err != nil {
		return outcomeFailed, fmt.Errorf("persist gpa snapshot: %v", err)
	}
	if err := s.students.UpdateCurrentGpa(ctx, snap.Student.ID, result.CumulativeGpa); err != nil {
		return outcomeFailed, fmt.Errorf("update current gpa: %v", err)
	}
	return outcomeSuccessful, nil
}

func (s *EvaluationService) evaluateSap(ctx context.Context, batch *models.EvaluationBatch, snap *models.AcademicSnapshot, memo *policyMemo) (evalOutcome, error) {
	if _, err := s.runSapEvaluation(ctx, batch.PeriodID, snap, memo); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrSnapshotIncomplete.Code {
			return outcomeSkipped, err
		}
		return outcomeFailed, err
	}
	return outcomeSuccessful, nil
}

// runSapEvaluation performs one student's SAP evaluation end to end:
// calculate GPA over the snapshot, resolve the effective policy, derive the
// result against the prior period's standing, then upsert the record and
// denormalize the standing onto the student row.
func (s *EvaluationService) runSapEvaluation(ctx context.Context, periodID string, snap *models.AcademicSnapshot, memo *policyMemo) (*models.SapRecord, error) {
	if snap.Student.ProgramCredits <= 0 {
		return nil, appErrors.Clone(appErrors.ErrSnapshotIncomplete, "program credits missing from academic snapshot")
	}

	gpaResult, err := s.gpa.Calculate(snap.Attempts, models.GpaCalculationOptions{})
	if err != nil {
		return nil, err
	}

	programID := &snap.Student.ProgramID
	if snap.Student.ProgramID == "" {
		programID = nil
	}
	policy, err := memo.resolve(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("policy resolution failed: %v", err)
	}

	var previous *models.SapStatus
	prior, err := s.sapResults.GetPrevious(ctx, snap.Student.ID, periodID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("previous standing lookup failed: %v", err)
		}
	} else {
		previous = &prior.Status
	}

	input := models.SapInput{
		StudentID:        snap.Student.ID,
		PeriodID:         periodID,
		CumulativeGpa:    gpaResult.CumulativeGpa,
		AttemptedCredits: gpaResult.AttemptedCredits,
		EarnedCredits:    gpaResult.EarnedCredits,
		ProgramCredits:   snap.Student.ProgramCredits,
		PreviousStatus:   previous,
		AppealApproved:   snap.Student.AppealApproved,
		OnAcademicPlan:   snap.Student.OnAcademicPlan,
		PlanRequirements: s.planActuals(snap),
	}
	result, err := s.sap.Evaluate(input, *policy)
	if err != nil {
		return nil, err
	}

	record := &models.SapRecord{
		StudentID:      snap.Student.ID,
		PeriodID:       periodID,
		Status:         result.Status,
		EligibleForAid: result.EligibleForAid,
		Result:         *result,
	}
	if err := s.sapResults.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("persist sap result: %v", err)
	}
	if err := s.students.UpdateStanding(ctx, snap.Student.ID, result.Status, gpaResult.CumulativeGpa); err != nil {
		return nil, fmt.Errorf("update standing: %v", err)
	}
	return record, nil
}

// EvaluateStudent runs one on-demand SAP evaluation outside any batch,
// persisting the outcome exactly as a batch member would.
func (s *EvaluationService) EvaluateStudent(ctx context.Context, studentID, periodID string) (*models.SapRecord, error) {
	if periodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "periodId is required")
	}
	start := time.Now()
	snap, err := s.snapshots.Snapshot(ctx, studentID)
	s.metrics.ObserveDBQuery("student_snapshot", time.Since(start))
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic snapshot")
	}
	record, err := s.runSapEvaluation(ctx, periodID, snap, newPolicyMemo(s.policies))
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sap evaluation failed")
	}
	s.metrics.RecordEvaluation(string(models.EvaluationKindSap), outcomeSuccessful.label())
	return record, nil
}

// planActuals fills each academic-plan term requirement with the term's
// calculated GPA and earned credits from the snapshot's attempts.
func (s *EvaluationService) planActuals(snap *models.AcademicSnapshot) models.PlanRequirements {
	reqs := snap.Student.PlanRequirements
	if len(reqs) == 0 {
		return nil
	}
	byTerm := make(map[string][]models.CourseAttempt, len(reqs))
	for _, attempt := range snap.Attempts {
		byTerm[attempt.TermID] = append(byTerm[attempt.TermID], attempt)
	}
	enriched := make(models.PlanRequirements, 0, len(reqs))
	for _, req := range reqs {
		termResult, err := s.gpa.Calculate(byTerm[req.TermID], models.GpaCalculationOptions{})
		if err != nil {
			s.logger.Sugar().Warnw("term gpa calculation failed",
				"student_id", snap.Student.ID, "term_id", req.TermID, "error", err)
			enriched = append(enriched, req)
			continue
		}
		req.TermGpa = termResult.CumulativeGpa
		req.EarnedCredits = termResult.EarnedCredits
		enriched = append(enriched, req)
	}
	return enriched
}

func (s *EvaluationService) persistProgress(ctx context.Context, batchID string, tally *batchTally) {
	snap := tally.snapshot()
	percent := tally.percent()
	if err := s.batches.Update(ctx, batchID, repository.UpdateBatchParams{
		Progress:   &percent,
		Processed:  &snap.Processed,
		Successful: &snap.Successful,
		Failed:     &snap.Failed,
		Skipped:    &snap.Skipped,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to persist batch progress", "batch_id", batchID, "error", err)
	}
}

func (s *EvaluationService) markFailed(ctx context.Context, batchID, message string) {
	failed := models.BatchStatusFailed
	now := time.Now().UTC()
	if err := s.batches.Update(ctx, batchID, repository.UpdateBatchParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to mark batch failed", "batch_id", batchID, "error", err)
	}
}

// RecoverUnfinished re-enqueues batches that never reached a terminal state
// (e.g. after process restart). Re-running is safe because persistence is
// an idempotent upsert on (student, period).
func (s *EvaluationService) RecoverUnfinished(ctx context.Context) {
	pending, err := s.batches.ListUnfinished(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover unfinished evaluation batches", "error", err)
		return
	}
	for _, batch := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: batch.ID, Type: string(batch.Kind)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue evaluation batch", "batch_id", batch.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges finished batches past the
// retention window.
func (s *EvaluationService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-s.cfg.Retention)
				count, err := s.batches.DeleteFinishedBefore(ctx, cutoff)
				if err != nil {
					s.logger.Sugar().Warnw("evaluation batch cleanup failed", "error", err)
					continue
				}
				if count > 0 {
					s.logger.Sugar().Infow("purged finished evaluation batches", "count", count)
				}
			}
		}
	}()
}

func (s *EvaluationService) registerCancel(id string, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancels[id] = cancel
	s.cancelMu.Unlock()
}

func (s *EvaluationService) unregisterCancel(id string) {
	s.cancelMu.Lock()
	delete(s.cancels, id)
	s.cancelMu.Unlock()
}

func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code == appErrors.ErrNotFound.Code
	}
	return false
}

// evalOutcome classifies one student's run.
type evalOutcome int

const (
	outcomeSuccessful evalOutcome = iota
	outcomeFailed
	outcomeSkipped
)

func (o evalOutcome) label() string {
	switch o {
	case outcomeSuccessful:
		return "successful"
	case outcomeFailed:
		return "failed"
	case outcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// batchTally aggregates outcomes across concurrent evaluations. Counters
// are keyed by identity, never position, because completions are unordered.
type batchTally struct {
	mu         sync.Mutex
	total      int
	errorCap   int
	processed  int
	successful int
	failed     int
	skipped    int
	errors     []models.EvaluationError
	truncated  bool
}

func newBatchTally(total, errorCap int) *batchTally {
	return &batchTally{total: total, errorCap: errorCap}
}

func (t *batchTally) record(studentID string, outcome evalOutcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch outcome {
	case outcomeSuccessful:
		t.processed++
		t.successful++
	case outcomeFailed:
		t.processed++
		t.failed++
		t.appendError(studentID, err)
	case outcomeSkipped:
		t.skipped++
		t.appendError(studentID, err)
	}
}

func (t *batchTally) appendError(studentID string, err error) {
	if err == nil {
		return
	}
	if len(t.errors) >= t.errorCap {
		t.truncated = true
		return
	}
	t.errors = append(t.errors, models.EvaluationError{StudentID: studentID, Message: err.Error()})
}

func (t *batchTally) snapshot() models.BatchProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.BatchProgress{
		Total:      t.total,
		Processed:  t.processed,
		Successful: t.successful,
		Failed:     t.failed,
		Skipped:    t.skipped,
	}
}

func (t *batchTally) percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total <= 0 {
		return 100
	}
	return (t.processed + t.skipped) * 100 / t.total
}

func (t *batchTally) result(duration time.Duration) models.BatchResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	errs := make([]models.EvaluationError, len(t.errors))
	copy(errs, t.errors)
	return models.BatchResult{
		Total:           t.total,
		Processed:       t.processed,
		Successful:      t.successful,
		Failed:          t.failed,
		Skipped:         t.skipped,
		DurationMs:      duration.Milliseconds(),
		Errors:          errs,
		ErrorsTruncated: t.truncated,
	}
}

// policyMemo caches resolved SAP policies per program for the lifetime of
// one run, so a cohort sharing a program resolves its policy once.
type policyMemo struct {
	mu       sync.Mutex
	source   sapPolicySource
	policies map[string]*models.SapPolicy
}

func newPolicyMemo(source sapPolicySource) *policyMemo {
	return &policyMemo{source: source, policies: make(map[string]*models.SapPolicy)}
}

func (m *policyMemo) resolve(ctx context.Context, programID *string) (*models.SapPolicy, error) {
	key := ""
	if programID != nil {
		key = *programID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if policy, ok := m.policies[key]; ok {
		return policy, nil
	}
	policy, _, err := m.source.EffectiveSapPolicy(ctx, programID)
	if err != nil {
		return nil, err
	}
	m.policies[key] = policy
	return policy, nil
}

// EvaluationWorker bridges queue jobs to the orchestrator.
type EvaluationWorker struct {
	service    *EvaluationService
	logger     *zap.Logger
	maxRetries int
}

// NewEvaluationWorker constructs a worker.
func NewEvaluationWorker(service *EvaluationService, maxRetries int, logger *zap.Logger) *EvaluationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &EvaluationWorker{
		service:    service,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a queue job. Only cohort-retrieval and bookkeeping
// failures surface here for retry; per-student failures are absorbed into
// the batch result.
func (w *EvaluationWorker) Handle(ctx context.Context, job jobs.Job) error {
	finalAttempt := job.Attempt >= w.maxRetries
	if err := w.service.Run(ctx, job.ID, finalAttempt); err != nil {
		if errors.Is(err, appErrors.ErrBatchCanceled) {
			return nil
		}
		w.logger.Sugar().Warnw("evaluation run failed", "batch_id", job.ID, "attempt", job.Attempt, "error", err)
		return err
	}
	return nil
}
