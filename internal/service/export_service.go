package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/export"
	"github.com/alexander-vyh/student-information-system-sub004/pkg/storage"
)

type batchExportReader interface {
	GetByID(ctx context.Context, id string) (*models.EvaluationBatch, error)
}

type sapPeriodReader interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.SapRecord, error)
}

type gpaPeriodReader interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.GpaSnapshot, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders finished evaluation batches into downloadable
// artifacts behind signed URLs.
type ExportService struct {
	batches batchExportReader
	sapRows sapPeriodReader
	gpaRows gpaPeriodReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(batches batchExportReader, sapRows sapPeriodReader, gpaRows gpaPeriodReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		batches: batches,
		sapRows: sapRows,
		gpaRows: gpaRows,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders a completed batch's outcome rows and stores the artifact.
func (s *ExportService) Generate(ctx context.Context, batchID string, format models.ExportFormat) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation batch")
	}
	if batch.Status != models.BatchStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "batch has not completed")
	}

	dataset, title, err := s.buildDataset(ctx, batch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assemble export rows")
	}

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(export.Document{
			Title:   title,
			Summary: batchSummaryLines(batch),
			Table:   dataset,
		})
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := s.buildFilename(batch, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export artifact")
	}

	token, expiresAt, err := s.signer.Generate(batch.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/exports/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (batchID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup launches a ticker loop that prunes expired artifacts until
// the context ends.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Cleanup(0)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("export artifacts pruned", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func (s *ExportService) buildFilename(batch *models.EvaluationBatch, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	periodPart := sanitizeFilename(batch.PeriodID)
	return fmt.Sprintf("%s_%s_%s.%s", batch.Kind, periodPart, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, batch *models.EvaluationBatch) (export.Dataset, string, error) {
	switch batch.Kind {
	case models.EvaluationKindSap:
		return s.buildSapDataset(ctx, batch.PeriodID)
	case models.EvaluationKindGpa:
		return s.buildGpaDataset(ctx, batch.PeriodID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported batch kind %s", batch.Kind)
	}
}

func (s *ExportService) buildSapDataset(ctx context.Context, periodID string) (export.Dataset, string, error) {
	records, err := s.sapRows.ListByPeriod(ctx, periodID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Student ID":   record.StudentID,
			"Status":       string(record.Status),
			"Aid Eligible": strconv.FormatBool(record.EligibleForAid),
			"GPA":          formatFloat(record.Result.GpaComponent.Actual),
			"GPA Required": formatFloat(record.Result.GpaComponent.Required),
			"Pace":         formatFloat(record.Result.PaceComponent.Actual),
			"Revision":     strconv.Itoa(record.Revision),
			"Evaluated At": record.EvaluatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Status", "Aid Eligible", "GPA", "GPA Required", "Pace", "Revision", "Evaluated At"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Progress Evaluation %s", periodID)
	return dataset, title, nil
}

func (s *ExportService) buildGpaDataset(ctx context.Context, periodID string) (export.Dataset, string, error) {
	snapshots, err := s.gpaRows.ListByPeriod(ctx, periodID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(snapshots))
	for _, snapshot := range snapshots {
		gpa := ""
		if snapshot.CumulativeGpa != nil {
			gpa = formatFloat(*snapshot.CumulativeGpa)
		}
		rows = append(rows, map[string]string{
			"Student ID":     snapshot.StudentID,
			"Attempted":      formatFloat(snapshot.AttemptedCredits),
			"Earned":         formatFloat(snapshot.EarnedCredits),
			"GPA Credits":    formatFloat(snapshot.GpaCredits),
			"Quality Points": formatFloat(snapshot.QualityPoints),
			"Cumulative GPA": gpa,
			"Revision":       strconv.Itoa(snapshot.Revision),
			"Calculated At":  snapshot.CalculatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student ID", "Attempted", "Earned", "GPA Credits", "Quality Points", "Cumulative GPA", "Revision", "Calculated At"},
		Rows:    rows,
	}
	title := fmt.Sprintf("GPA Calculation %s", periodID)
	return dataset, title, nil
}

func batchSummaryLines(batch *models.EvaluationBatch) []export.SummaryLine {
	lines := []export.SummaryLine{
		{Label: "Batch", Value: batch.ID},
		{Label: "Period", Value: batch.PeriodID},
		{Label: "Total", Value: strconv.Itoa(batch.Total)},
		{Label: "Processed", Value: strconv.Itoa(batch.Processed)},
		{Label: "Successful", Value: strconv.Itoa(batch.Successful)},
		{Label: "Failed", Value: strconv.Itoa(batch.Failed)},
		{Label: "Skipped", Value: strconv.Itoa(batch.Skipped)},
	}
	if batch.FinishedAt != nil {
		lines = append(lines, export.SummaryLine{Label: "Finished", Value: batch.FinishedAt.UTC().Format(time.RFC3339)})
	}
	return lines
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
