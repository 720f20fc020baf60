package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

func newAttemptMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attemptRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "course_id", "term_id", "credits", "grade_code",
		"grade_points", "include_in_gpa", "counts_attempted", "counts_earned",
		"is_transfer", "is_repeat", "repeat_policy", "replaces_id", "created_at",
	}).AddRow("a1", "s1", "MATH-101", "2025-FA", 3.0, "B",
		3.0, true, true, true,
		false, false, "", nil, time.Now())
}

func TestCourseAttemptRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(attemptSelect+` WHERE ca.student_id = $1 ORDER BY ca.created_at ASC, ca.id ASC`)).
		WithArgs("s1").
		WillReturnRows(attemptRows())

	attempts, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "MATH-101", attempts[0].CourseID)
	require.NotNil(t, attempts[0].GradePoints)
	assert.InDelta(t, 3.0, *attempts[0].GradePoints, 0.0001)
	assert.True(t, attempts[0].IncludeInGpa)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseAttemptRepositoryListByStudentTerm(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(attemptSelect+` WHERE ca.student_id = $1 AND ca.term_id = $2 ORDER BY ca.created_at ASC, ca.id ASC`)).
		WithArgs("s1", "2025-FA").
		WillReturnRows(attemptRows())

	attempts, err := repo.ListByStudentTerm(context.Background(), "s1", "2025-FA")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseAttemptRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectExec("INSERT INTO course_attempts").WillReturnResult(sqlmock.NewResult(1, 1))

	attempt := &models.CourseAttempt{StudentID: "s1", CourseID: "MATH-101", TermID: "2025-FA", Credits: 3, GradeCode: "B"}
	err := repo.Create(context.Background(), attempt)
	require.NoError(t, err)
	assert.NotEmpty(t, attempt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseAttemptRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO course_attempts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_attempts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	attempts := []models.CourseAttempt{
		{ID: "a1", StudentID: "s1", CourseID: "MATH-101", TermID: "2025-FA", Credits: 3, GradeCode: "F"},
		{ID: "a2", StudentID: "s1", CourseID: "MATH-101", TermID: "2026-SP", Credits: 3, GradeCode: "B", IsRepeat: true},
	}
	err := repo.BulkUpsert(context.Background(), attempts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseAttemptRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO course_attempts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_attempts").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	attempts := []models.CourseAttempt{
		{ID: "a1", StudentID: "s1", CourseID: "MATH-101", TermID: "2025-FA", Credits: 3, GradeCode: "F"},
		{ID: "a2", StudentID: "s1", CourseID: "ENG-201", TermID: "2025-FA", Credits: 3, GradeCode: "C"},
	}
	err := repo.BulkUpsert(context.Background(), attempts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk upsert course attempt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseAttemptRepositoryCountIncomplete(t *testing.T) {
	db, mock, cleanup := newAttemptMock(t)
	defer cleanup()
	repo := NewCourseAttemptRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_attempts ca\nJOIN grade_scale gs ON gs.code = ca.grade_code\nWHERE ca.student_id = $1 AND gs.is_incomplete = true")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountIncomplete(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
