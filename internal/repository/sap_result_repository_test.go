package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

func newSapResultMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sapRecordRow(id, studentID, periodID string, revision int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "period_id", "status", "eligible_for_aid", "result", "revision", "evaluated_at"}).
		AddRow(id, studentID, periodID, "warning", true, []byte(`{"studentId":"`+studentID+`"}`), revision, time.Now())
}

func TestSapResultRepositoryUpsertBumpsRevision(t *testing.T) {
	db, mock, cleanup := newSapResultMock(t)
	defer cleanup()
	repo := NewSapResultRepository(db)

	mock.ExpectQuery("INSERT INTO sap_results").
		WithArgs(sqlmock.AnyArg(), "s1", "2026-SP", models.SapStatusWarning, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "revision"}).AddRow("rec-1", 2))

	record := &models.SapRecord{
		StudentID:      "s1",
		PeriodID:       "2026-SP",
		Status:         models.SapStatusWarning,
		EligibleForAid: true,
		Result:         models.SapResult{StudentID: "s1", PeriodID: "2026-SP", Status: models.SapStatusWarning},
	}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, 2, record.Revision)
	assert.False(t, record.EvaluatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSapResultRepositoryGetPreviousExcludesPeriod(t *testing.T) {
	db, mock, cleanup := newSapResultMock(t)
	defer cleanup()
	repo := NewSapResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sapRecordColumns+" FROM sap_results\nWHERE student_id = $1 AND period_id <> $2 ORDER BY evaluated_at DESC LIMIT 1")).
		WithArgs("s1", "2026-SP").
		WillReturnRows(sapRecordRow("rec-0", "s1", "2025-FA", 1))

	record, err := repo.GetPrevious(context.Background(), "s1", "2026-SP")
	require.NoError(t, err)
	assert.Equal(t, "2025-FA", record.PeriodID)
	assert.Equal(t, models.SapStatusWarning, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSapResultRepositoryGetLatestNoRows(t *testing.T) {
	db, mock, cleanup := newSapResultMock(t)
	defer cleanup()
	repo := NewSapResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sapRecordColumns+" FROM sap_results WHERE student_id = $1 ORDER BY evaluated_at DESC LIMIT 1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLatest(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSapResultRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newSapResultMock(t)
	defer cleanup()
	repo := NewSapResultRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "period_id", "status", "eligible_for_aid", "result", "revision", "evaluated_at"}).
		AddRow("rec-2", "s1", "2026-SP", "probation", true, []byte(`{}`), 1, time.Now()).
		AddRow("rec-1", "s1", "2025-FA", "warning", true, []byte(`{}`), 2, time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sapRecordColumns+" FROM sap_results WHERE student_id = $1 ORDER BY evaluated_at DESC")).
		WithArgs("s1").
		WillReturnRows(rows)

	records, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.SapStatusProbation, records[0].Status)
	assert.Equal(t, 2, records[1].Revision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSapResultRepositoryListByPeriod(t *testing.T) {
	db, mock, cleanup := newSapResultMock(t)
	defer cleanup()
	repo := NewSapResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sapRecordColumns+" FROM sap_results WHERE period_id = $1 ORDER BY student_id ASC")).
		WithArgs("2026-SP").
		WillReturnRows(sapRecordRow("rec-1", "s1", "2026-SP", 1))

	records, err := repo.ListByPeriod(context.Background(), "2026-SP")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
