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

func newGradeScaleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeScaleRepositoryList(t *testing.T) {
	db, mock, cleanup := newGradeScaleMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "description", "grade_points", "include_in_gpa", "counts_attempted", "counts_earned", "is_incomplete", "is_withdrawal", "sort_order", "created_at", "updated_at"}).
		AddRow("g1", "A", "Excellent", 4.0, true, true, true, false, false, 1, now, now).
		AddRow("g2", "W", "Withdrawal", nil, false, true, false, false, true, 9, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+gradeScaleColumns+" FROM grade_scale ORDER BY sort_order ASC, code ASC")).
		WillReturnRows(rows)

	definitions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, definitions, 2)
	assert.Equal(t, "A", definitions[0].Code)
	assert.Nil(t, definitions[1].GradePoints)
	assert.True(t, definitions[1].IsWithdrawal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeScaleRepositoryGetByCodeNoRows(t *testing.T) {
	db, mock, cleanup := newGradeScaleMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+gradeScaleColumns+" FROM grade_scale WHERE code = $1")).
		WithArgs("Z").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCode(context.Background(), "Z")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeScaleRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newGradeScaleMock(t)
	defer cleanup()
	repo := NewGradeScaleRepository(db)

	mock.ExpectExec("INSERT INTO grade_scale").WillReturnResult(sqlmock.NewResult(1, 1))

	points := 3.0
	definition := &models.GradeDefinition{Code: "B", Description: "Good", GradePoints: &points, IncludeInGpa: true, CountsAttempted: true, CountsEarned: true, SortOrder: 3}
	err := repo.Upsert(context.Background(), definition)
	require.NoError(t, err)
	assert.NotEmpty(t, definition.ID)
	assert.False(t, definition.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
