package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

type standingSnapshotStub struct {
	snap *models.AcademicSnapshot
	err  error
}

func (s *standingSnapshotStub) Snapshot(ctx context.Context, studentID string) (*models.AcademicSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type standingRecordsStub struct {
	latest     *models.SapRecord
	latestErr  error
	history    []models.SapRecord
	historyErr error
}

func (s *standingRecordsStub) GetLatest(ctx context.Context, studentID string) (*models.SapRecord, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latest, nil
}

func (s *standingRecordsStub) ListByStudent(ctx context.Context, studentID string) ([]models.SapRecord, error) {
	return s.history, s.historyErr
}

type standingPoliciesStub struct {
	honors     models.LatinHonorsConfig
	graduation models.GraduationPolicyConfig
}

func (s *standingPoliciesStub) HonorsConfig(ctx context.Context) (*models.LatinHonorsConfig, error) {
	cfg := s.honors
	return &cfg, nil
}

func (s *standingPoliciesStub) GraduationConfig(ctx context.Context) (*models.GraduationPolicyConfig, error) {
	cfg := s.graduation
	return &cfg, nil
}

func newStandingHandlerForTest(snapshots *standingSnapshotStub, records *standingRecordsStub, policies *standingPoliciesStub) *StandingHandler {
	svc := service.NewStandingService(
		snapshots,
		records,
		policies,
		service.NewGpaService(nil),
		service.NewHonorsService(nil),
		service.NewGraduationService(nil),
		zap.NewNop(),
	)
	return NewStandingHandler(svc)
}

func gradedAttempt(id, courseID, gradeCode string, credits, points float64, transfer bool) models.CourseAttempt {
	return models.CourseAttempt{
		ID:              id,
		StudentID:       "s1",
		CourseID:        courseID,
		TermID:          "2025-FA",
		Credits:         credits,
		GradeCode:       gradeCode,
		GradePoints:     &points,
		IncludeInGpa:    true,
		CountsAttempted: true,
		CountsEarned:    true,
		IsTransfer:      transfer,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestStandingHandlerGpa(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &standingSnapshotStub{snap: &models.AcademicSnapshot{
		Student: models.Student{ID: "s1", ProgramID: "prog-ba", ProgramCredits: 120},
		Attempts: []models.CourseAttempt{
			gradedAttempt("a1", "MATH-101", "A", 3, 4.0, false),
			gradedAttempt("a2", "ENG-201", "B", 3, 3.0, false),
		},
	}}
	handler := newStandingHandlerForTest(snapshots, &standingRecordsStub{}, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodGet, "/students/s1/gpa", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Gpa(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.GpaResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.CumulativeGpa)
	assert.InDelta(t, 3.5, *body.Data.CumulativeGpa, 1e-9)
	assert.InDelta(t, 6, body.Data.AttemptedCredits, 1e-9)
	assert.Len(t, body.Data.Details, 2)
}

func TestStandingHandlerGpaStudentMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &standingSnapshotStub{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	handler := newStandingHandlerForTest(snapshots, &standingRecordsStub{}, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodGet, "/students/missing/gpa", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Gpa(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStandingHandlerLatestSap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	records := &standingRecordsStub{latest: &models.SapRecord{
		ID:             "rec-1",
		StudentID:      "s1",
		PeriodID:       "2026-SPR",
		Status:         models.SapStatusSatisfactory,
		EligibleForAid: true,
	}}
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, records, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodGet, "/students/s1/sap", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.LatestSap(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.SapRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.SapStatusSatisfactory, body.Data.Status)
	assert.True(t, body.Data.EligibleForAid)
}

func TestStandingHandlerLatestSapNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	records := &standingRecordsStub{latestErr: sql.ErrNoRows}
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, records, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodGet, "/students/s1/sap", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.LatestSap(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStandingHandlerSapHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	records := &standingRecordsStub{history: []models.SapRecord{
		{ID: "rec-2", PeriodID: "2026-SPR", Status: models.SapStatusWarning},
		{ID: "rec-1", PeriodID: "2025-FA", Status: models.SapStatusSatisfactory},
	}}
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, records, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodGet, "/students/s1/sap/history", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.SapHistory(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []models.SapRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "rec-2", body.Data[0].ID)
}

func TestStandingHandlerHonors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &standingSnapshotStub{snap: &models.AcademicSnapshot{
		Student: models.Student{ID: "s1", ProgramID: "prog-ba", ProgramCredits: 120},
		Attempts: []models.CourseAttempt{
			gradedAttempt("a1", "MATH-101", "A", 3, 4.0, false),
			gradedAttempt("a2", "ENG-201", "A", 3, 4.0, false),
		},
	}}
	policies := &standingPoliciesStub{honors: models.LatinHonorsConfig{
		SummaThreshold:                 3.9,
		MagnaThreshold:                 3.7,
		CumThreshold:                   3.5,
		MinimumCredits:                 6,
		MinimumInstitutionalCredits:    3,
		ExcludeTransferCredits:         true,
		DisqualifyForAcademicIntegrity: true,
	}}
	handler := newStandingHandlerForTest(snapshots, &standingRecordsStub{}, policies)

	c, w := newGinContext(http.MethodGet, "/students/s1/honors", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Honors(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.LatinHonorsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Designation)
	assert.Equal(t, models.HonorsSummaCumLaude, *body.Data.Designation)
}

func TestStandingHandlerHonorsIntegrityDisqualification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	snapshots := &standingSnapshotStub{snap: &models.AcademicSnapshot{
		Student: models.Student{ID: "s1", ProgramCredits: 120, IntegrityViolation: true},
		Attempts: []models.CourseAttempt{
			gradedAttempt("a1", "MATH-101", "A", 3, 4.0, false),
			gradedAttempt("a2", "ENG-201", "A", 3, 4.0, false),
		},
	}}
	policies := &standingPoliciesStub{honors: models.LatinHonorsConfig{
		SummaThreshold:                 3.9,
		MagnaThreshold:                 3.7,
		CumThreshold:                   3.5,
		DisqualifyForAcademicIntegrity: true,
	}}
	handler := newStandingHandlerForTest(snapshots, &standingRecordsStub{}, policies)

	c, w := newGinContext(http.MethodGet, "/students/s1/honors", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Honors(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.LatinHonorsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Data.Designation)
	assert.True(t, body.Data.DisqualifiedForIntegrity)
}

func TestStandingHandlerValidateGraduation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	policies := &standingPoliciesStub{graduation: models.GraduationPolicyConfig{
		MinimumCredits:        120,
		MinimumGpa:            2.0,
		RequireExitCounseling: true,
	}}
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, &standingRecordsStub{}, policies)

	payload, _ := json.Marshal(models.GraduationEligibilityInput{
		StudentID: "s1",
		Academic: models.AcademicRecordFacts{
			DegreeAuditComplete: true,
			EarnedCredits:       123,
			CumulativeGpa:       floatPtr(3.2),
		},
		Administrative: models.AdministrativeFacts{
			LibraryCleared:     true,
			DepartmentCleared:  true,
			ExitCounselingDone: true,
		},
		Data: models.RecordDataFacts{
			DiplomaName:     "Ada Lovelace",
			MailingAddress:  "1 College Way",
			ProgramDeclared: true,
			MajorDeclared:   true,
		},
	})
	c, w := newGinContext(http.MethodPost, "/graduation/validate", payload)
	handler.ValidateGraduation(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.GraduationValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.IsEligible)
	assert.Empty(t, body.Data.Blockers)
}

func TestStandingHandlerValidateGraduationReportsBlockers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	policies := &standingPoliciesStub{graduation: models.GraduationPolicyConfig{
		MinimumCredits: 120,
		MinimumGpa:     2.0,
	}}
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, &standingRecordsStub{}, policies)

	payload, _ := json.Marshal(models.GraduationEligibilityInput{
		StudentID: "s1",
		Academic: models.AcademicRecordFacts{
			DegreeAuditComplete: true,
			EarnedCredits:       130,
			CumulativeGpa:       floatPtr(2.5),
		},
		Administrative: models.AdministrativeFacts{
			HasGraduationHold:  true,
			OutstandingBalance: 150,
			LibraryCleared:     true,
			DepartmentCleared:  true,
		},
		Data: models.RecordDataFacts{
			DiplomaName:     "Ada Lovelace",
			MailingAddress:  "1 College Way",
			ProgramDeclared: true,
			MajorDeclared:   true,
		},
	})
	c, w := newGinContext(http.MethodPost, "/graduation/validate", payload)
	handler.ValidateGraduation(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.GraduationValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.IsEligible)
	require.Len(t, body.Data.Blockers, 2)
	assert.Contains(t, body.Data.Blockers, "A hold blocking graduation is on the account.")
}

func TestStandingHandlerValidateGraduationInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingHandlerForTest(&standingSnapshotStub{}, &standingRecordsStub{}, &standingPoliciesStub{})

	c, w := newGinContext(http.MethodPost, "/graduation/validate", []byte(`{"studentId":`))
	handler.ValidateGraduation(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
