package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

type mockStudentRepo struct {
	students     map[string]models.Student
	existsByRef  map[string]string
	deactivated  []string
	cohortIDs    []string
	lastSelector models.CohortSelector
	listTotal    int
	err          error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	students := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s)
	}
	return students, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		copy := s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ListIDs(ctx context.Context, selector models.CohortSelector) ([]string, error) {
	m.lastSelector = selector
	return m.cohortIDs, nil
}

func (m *mockStudentRepo) ExistsByExternalRef(ctx context.Context, ref string, excludeID string) (bool, error) {
	if id, ok := m.existsByRef[ref]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if s, ok := m.students[id]; ok {
		s.Active = false
		m.students[id] = s
	}
	return nil
}

type mockAttemptStore struct {
	attempts    []models.CourseAttempt
	created     []models.CourseAttempt
	upserted    [][]models.CourseAttempt
	createErr   error
	listErr     error
	bulkErr     error
	createCalls int
}

func (m *mockAttemptStore) ListByStudent(ctx context.Context, studentID string) ([]models.CourseAttempt, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.attempts, nil
}

func (m *mockAttemptStore) Create(ctx context.Context, attempt *models.CourseAttempt) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if attempt.ID == "" {
		attempt.ID = "att-generated"
	}
	m.created = append(m.created, *attempt)
	return nil
}

func (m *mockAttemptStore) BulkUpsert(ctx context.Context, attempts []models.CourseAttempt) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.upserted = append(m.upserted, attempts)
	return nil
}

type mockGradeScale struct {
	definitions map[string]*models.GradeDefinition
	err         error
}

func (m *mockGradeScale) GetByCode(ctx context.Context, code string) (*models.GradeDefinition, error) {
	if m.err != nil {
		return nil, m.err
	}
	if def, ok := m.definitions[code]; ok {
		return def, nil
	}
	return nil, sql.ErrNoRows
}

func letterGrade(code string, points float64) *models.GradeDefinition {
	return &models.GradeDefinition{
		Code:            code,
		GradePoints:     &points,
		IncludeInGpa:    true,
		CountsAttempted: true,
		CountsEarned:    points > 0,
	}
}

func newStudentService(repo *mockStudentRepo, attempts *mockAttemptStore, scale *mockGradeScale) *StudentService {
	return NewStudentService(repo, attempts, scale, validator.New(), zap.NewNop())
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{existsByRef: make(map[string]string)}
	svc := newStudentService(repo, &mockAttemptStore{}, &mockGradeScale{})

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		ExternalRef:    "S-1001",
		FullName:       "John Doe",
		ProgramID:      "prog-cs",
		ProgramCredits: 120,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
	assert.Equal(t, 1, len(repo.students))
}

func TestStudentServiceCreateDuplicateRef(t *testing.T) {
	repo := &mockStudentRepo{existsByRef: map[string]string{"S-1001": "another"}}
	svc := newStudentService(repo, &mockAttemptStore{}, &mockGradeScale{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{ExternalRef: "S-1001", FullName: "A", ProgramID: "prog-cs", ProgramCredits: 120})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{
		students:    map[string]models.Student{"id1": {ID: "id1", ExternalRef: "S-1", FullName: "Old", ProgramID: "prog-cs", ProgramCredits: 120, Active: true}},
		existsByRef: make(map[string]string),
	}
	svc := newStudentService(repo, &mockAttemptStore{}, &mockGradeScale{})

	updated, err := svc.Update(context.Background(), "id1", UpdateStudentRequest{
		ExternalRef:    "S-2",
		FullName:       "New",
		ProgramID:      "prog-ee",
		ProgramCredits: 130,
		OnAcademicPlan: true,
		Active:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "S-2", updated.ExternalRef)
	assert.Equal(t, "New", updated.FullName)
	assert.True(t, updated.OnAcademicPlan)
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", ExternalRef: "S-1", FullName: "Old", Active: true}}}
	svc := newStudentService(repo, &mockAttemptStore{}, &mockGradeScale{})

	err := svc.Deactivate(context.Background(), "id1")
	require.NoError(t, err)
	assert.Contains(t, repo.deactivated, "id1")
}

func TestStudentServiceRecordAttempt(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	attempts := &mockAttemptStore{}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{"B+": letterGrade("B+", 3.3)}}
	svc := newStudentService(repo, attempts, scale)

	attempt, err := svc.RecordAttempt(context.Background(), "id1", RecordAttemptRequest{
		CourseID:  "MATH101",
		TermID:    "2025-FA",
		Credits:   3,
		GradeCode: "B+",
	})
	require.NoError(t, err)
	assert.Len(t, attempts.created, 1)
	require.NotNil(t, attempt.GradePoints)
	assert.InDelta(t, 3.3, *attempt.GradePoints, 1e-9)
	assert.True(t, attempt.IncludeInGpa)
}

func TestStudentServiceRecordAttemptUnknownGrade(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{}}
	svc := newStudentService(repo, &mockAttemptStore{}, scale)

	_, err := svc.RecordAttempt(context.Background(), "id1", RecordAttemptRequest{
		CourseID: "MATH101", TermID: "2025-FA", Credits: 3, GradeCode: "ZZ",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceRecordAttemptBadRepeatPolicy(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{"A": letterGrade("A", 4)}}
	svc := newStudentService(repo, &mockAttemptStore{}, scale)

	_, err := svc.RecordAttempt(context.Background(), "id1", RecordAttemptRequest{
		CourseID: "MATH101", TermID: "2025-FA", Credits: 3, GradeCode: "A", RepeatPolicy: "latest",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceLoadAttemptsAtomic(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	attempts := &mockAttemptStore{}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{
		"A": letterGrade("A", 4),
		"C": letterGrade("C", 2),
	}}
	svc := newStudentService(repo, attempts, scale)

	result, err := svc.LoadAttempts(context.Background(), "id1", BulkAttemptsRequest{
		Items: []BulkAttemptItem{
			{ID: "a1", CourseID: "MATH101", TermID: "2025-FA", Credits: 3, GradeCode: "A"},
			{ID: "a2", CourseID: "ENG201", TermID: "2025-FA", Credits: 3, GradeCode: "C"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Empty(t, result.Failures)
	require.Len(t, attempts.upserted, 1)
	assert.Len(t, attempts.upserted[0], 2)
	assert.Zero(t, attempts.createCalls)
}

func TestStudentServiceLoadAttemptsAtomicRejectsWholeFeed(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	attempts := &mockAttemptStore{}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{"A": letterGrade("A", 4)}}
	svc := newStudentService(repo, attempts, scale)

	_, err := svc.LoadAttempts(context.Background(), "id1", BulkAttemptsRequest{
		Mode: "atomic",
		Items: []BulkAttemptItem{
			{CourseID: "MATH101", TermID: "2025-FA", Credits: 3, GradeCode: "A"},
			{CourseID: "ENG201", TermID: "2025-FA", Credits: 3, GradeCode: "ZZ"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, attempts.upserted)
}

func TestStudentServiceLoadAttemptsPartial(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", Active: true}}}
	attempts := &mockAttemptStore{}
	scale := &mockGradeScale{definitions: map[string]*models.GradeDefinition{"A": letterGrade("A", 4)}}
	svc := newStudentService(repo, attempts, scale)

	result, err := svc.LoadAttempts(context.Background(), "id1", BulkAttemptsRequest{
		Mode: "partialOnError",
		Items: []BulkAttemptItem{
			{CourseID: "MATH101", TermID: "2025-FA", Credits: 3, GradeCode: "A"},
			{CourseID: "ENG201", TermID: "2025-FA", Credits: 3, GradeCode: "ZZ"},
			{CourseID: "PHY301", TermID: "2025-FA", Credits: 4, GradeCode: "A"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "ENG201", result.Failures[0].CourseID)
	assert.Equal(t, "unknown grade code", result.Failures[0].Reason)
	assert.Empty(t, attempts.upserted)
}

func TestStudentServiceSnapshot(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", FullName: "Jo", ProgramCredits: 120, Active: true}}}
	points := 4.0
	attempts := &mockAttemptStore{attempts: []models.CourseAttempt{
		{ID: "a1", StudentID: "id1", CourseID: "MATH101", Credits: 3, GradeCode: "A", GradePoints: &points, IncludeInGpa: true, CountsAttempted: true, CountsEarned: true},
	}}
	svc := newStudentService(repo, attempts, &mockGradeScale{})

	snap, err := svc.Snapshot(context.Background(), "id1")
	require.NoError(t, err)
	assert.Equal(t, "id1", snap.Student.ID)
	require.Len(t, snap.Attempts, 1)
	assert.Equal(t, "MATH101", snap.Attempts[0].CourseID)
}

func TestStudentServiceCohortIDs(t *testing.T) {
	repo := &mockStudentRepo{cohortIDs: []string{"s1", "s2"}}
	svc := newStudentService(repo, &mockAttemptStore{}, &mockGradeScale{})

	prog := "prog-cs"
	ids, err := svc.CohortIDs(context.Background(), models.CohortSelector{ProgramID: &prog})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
	require.NotNil(t, repo.lastSelector.ProgramID)
	assert.Equal(t, "prog-cs", *repo.lastSelector.ProgramID)
}
