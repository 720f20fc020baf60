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

	"github.com/alexander-vyh/student-information-system-sub004/internal/dto"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	"github.com/alexander-vyh/student-information-system-sub004/internal/service"
)

type policyStoreStub struct {
	effective     *models.SapPolicy
	effectiveErr  error
	lastProgramID *string
	policies      []models.SapPolicy
	listErr       error
	upserted      []models.SapPolicy
	docs          map[models.PolicyDocumentKind][]byte
	savedDocs     []models.PolicyDocument
}

func (s *policyStoreStub) GetEffectiveSapPolicy(ctx context.Context, programID *string) (*models.SapPolicy, error) {
	s.lastProgramID = programID
	if s.effectiveErr != nil {
		return nil, s.effectiveErr
	}
	return s.effective, nil
}

func (s *policyStoreStub) ListSapPolicies(ctx context.Context) ([]models.SapPolicy, error) {
	return s.policies, s.listErr
}

func (s *policyStoreStub) UpsertSapPolicy(ctx context.Context, policy *models.SapPolicy) error {
	s.upserted = append(s.upserted, *policy)
	return nil
}

func (s *policyStoreStub) GetDocument(ctx context.Context, kind models.PolicyDocumentKind) (*models.PolicyDocument, error) {
	raw, ok := s.docs[kind]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.PolicyDocument{Kind: kind, Document: raw}, nil
}

func (s *policyStoreStub) SaveDocument(ctx context.Context, doc *models.PolicyDocument) error {
	s.savedDocs = append(s.savedDocs, *doc)
	return nil
}

func newPolicyHandlerForTest(store *policyStoreStub) *PolicyHandler {
	return NewPolicyHandler(service.NewPolicyService(store, nil, 0, zap.NewNop()))
}

func TestPolicyHandlerEffectiveSapPolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{
		effective: &models.SapPolicy{
			ID:                     "pol-1",
			MinimumGpa:             2.0,
			MinimumPace:            0.67,
			MaxTimeframePercentage: 1.5,
			EvaluationCadence:      "term",
			Active:                 true,
		},
	}
	handler := newPolicyHandlerForTest(store)

	c, w := newGinContext(http.MethodGet, "/policies/sap?programId=prog-ba", nil)
	handler.EffectiveSapPolicy(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.lastProgramID)
	assert.Equal(t, "prog-ba", *store.lastProgramID)

	var body struct {
		Data models.SapPolicy       `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pol-1", body.Data.ID)
	require.Contains(t, body.Meta, "cache_hit")
	assert.Equal(t, false, body.Meta["cache_hit"])
}

func TestPolicyHandlerEffectiveSapPolicyNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPolicyHandlerForTest(&policyStoreStub{effectiveErr: sql.ErrNoRows})

	c, w := newGinContext(http.MethodGet, "/policies/sap", nil)
	handler.EffectiveSapPolicy(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPolicyHandlerSaveSapPolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{}
	handler := newPolicyHandlerForTest(store)

	payload, _ := json.Marshal(dto.SapPolicyRequest{
		MinimumGpa:             2.0,
		MinimumPace:            0.67,
		MaxTimeframePercentage: 1.5,
	})
	c, w := newGinContext(http.MethodPut, "/policies/sap", payload)
	handler.SaveSapPolicy(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "term", store.upserted[0].EvaluationCadence)
	assert.True(t, store.upserted[0].Active)
}

func TestPolicyHandlerSaveSapPolicyInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPolicyHandlerForTest(&policyStoreStub{})

	c, w := newGinContext(http.MethodPut, "/policies/sap", []byte(`{"minimumPace":`))
	handler.SaveSapPolicy(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolicyHandlerSaveSapPolicyRejectsBadPace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{}
	handler := newPolicyHandlerForTest(store)

	payload, _ := json.Marshal(dto.SapPolicyRequest{
		MinimumGpa:             2.0,
		MinimumPace:            1.5,
		MaxTimeframePercentage: 1.5,
	})
	c, w := newGinContext(http.MethodPut, "/policies/sap", payload)
	handler.SaveSapPolicy(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.upserted)
}

func TestPolicyHandlerHonorsConfigDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPolicyHandlerForTest(&policyStoreStub{})

	c, w := newGinContext(http.MethodGet, "/policies/honors", nil)
	handler.HonorsConfig(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.LatinHonorsConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 3.9, body.Data.SummaThreshold, 1e-9)
	assert.InDelta(t, 60, body.Data.MinimumCredits, 1e-9)
	assert.True(t, body.Data.ExcludeTransferCredits)
}

func TestPolicyHandlerSaveHonorsConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{}
	handler := newPolicyHandlerForTest(store)

	payload, _ := json.Marshal(models.LatinHonorsConfig{
		SummaThreshold:                 3.95,
		MagnaThreshold:                 3.75,
		CumThreshold:                   3.55,
		MinimumCredits:                 45,
		MinimumInstitutionalCredits:    20,
		ExcludeTransferCredits:         true,
		DisqualifyForAcademicIntegrity: true,
	})
	c, w := newGinContext(http.MethodPut, "/policies/honors", payload)
	handler.SaveHonorsConfig(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.savedDocs, 1)
	assert.Equal(t, models.PolicyDocumentHonors, store.savedDocs[0].Kind)
}

func TestPolicyHandlerSaveHonorsConfigRejectsDisorder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{}
	handler := newPolicyHandlerForTest(store)

	payload, _ := json.Marshal(models.LatinHonorsConfig{
		SummaThreshold: 3.5,
		MagnaThreshold: 3.7,
		CumThreshold:   3.6,
	})
	c, w := newGinContext(http.MethodPut, "/policies/honors", payload)
	handler.SaveHonorsConfig(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.savedDocs)
}

func TestPolicyHandlerGraduationConfigDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newPolicyHandlerForTest(&policyStoreStub{})

	c, w := newGinContext(http.MethodGet, "/policies/graduation", nil)
	handler.GraduationConfig(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.GraduationPolicyConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 120, body.Data.MinimumCredits, 1e-9)
	assert.True(t, body.Data.RequireExitCounseling)
}

func TestPolicyHandlerSaveGraduationConfigRejectsZeroCredits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &policyStoreStub{}
	handler := newPolicyHandlerForTest(store)

	payload, _ := json.Marshal(models.GraduationPolicyConfig{
		MinimumCredits: 0,
		MinimumGpa:     2.0,
	})
	c, w := newGinContext(http.MethodPut, "/policies/graduation", payload)
	handler.SaveGraduationConfig(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.savedDocs)
}
