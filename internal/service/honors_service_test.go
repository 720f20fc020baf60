package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

func testHonorsConfig() models.LatinHonorsConfig {
	return models.LatinHonorsConfig{
		SummaThreshold:                 3.9,
		MagnaThreshold:                 3.7,
		CumThreshold:                   3.5,
		MinimumCredits:                 60,
		MinimumInstitutionalCredits:    45,
		ExcludeTransferCredits:         false,
		DisqualifyForAcademicIntegrity: true,
	}
}

func honorsInput(gpa float64) models.LatinHonorsInput {
	g := gpa
	return models.LatinHonorsInput{
		StudentID:            "s1",
		CumulativeGpa:        &g,
		EarnedCredits:        120,
		InstitutionalCredits: 90,
	}
}

func TestHonorsTierSelection(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())

	cases := []struct {
		gpa  float64
		want *models.HonorsDesignation
	}{
		{3.95, designationPtr(models.HonorsSummaCumLaude)},
		{3.9, designationPtr(models.HonorsSummaCumLaude)},
		{3.8, designationPtr(models.HonorsMagnaCumLaude)},
		{3.55, designationPtr(models.HonorsCumLaude)},
		{3.3, nil},
	}
	for _, tc := range cases {
		result, err := svc.Determine(honorsInput(tc.gpa), testHonorsConfig())
		require.NoError(t, err)
		if tc.want == nil {
			assert.Nil(t, result.Designation, "gpa %.2f", tc.gpa)
			continue
		}
		require.NotNil(t, result.Designation, "gpa %.2f", tc.gpa)
		assert.Equal(t, *tc.want, *result.Designation)
	}
}

func TestHonorsIntegrityDisqualificationWinsOverGpa(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	input := honorsInput(4.0)
	input.HasAcademicIntegrityViolation = true

	result, err := svc.Determine(input, testHonorsConfig())
	require.NoError(t, err)
	assert.Nil(t, result.Designation)
	assert.True(t, result.DisqualifiedForIntegrity)
	assert.Contains(t, result.Explanation, "integrity")
}

func TestHonorsIntegrityIgnoredWhenConfigAllows(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	cfg := testHonorsConfig()
	cfg.DisqualifyForAcademicIntegrity = false
	input := honorsInput(3.92)
	input.HasAcademicIntegrityViolation = true

	result, err := svc.Determine(input, cfg)
	require.NoError(t, err)
	assert.False(t, result.DisqualifiedForIntegrity)
	require.NotNil(t, result.Designation)
	assert.Equal(t, models.HonorsSummaCumLaude, *result.Designation)
}

func TestHonorsCreditFloors(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())

	input := honorsInput(3.95)
	input.EarnedCredits = 59
	result, err := svc.Determine(input, testHonorsConfig())
	require.NoError(t, err)
	assert.Nil(t, result.Designation)
	assert.Contains(t, result.Explanation, "Earned credits")

	input = honorsInput(3.95)
	input.InstitutionalCredits = 44
	result, err = svc.Determine(input, testHonorsConfig())
	require.NoError(t, err)
	assert.Nil(t, result.Designation)
	assert.Contains(t, result.Explanation, "Institutional credits")
}

func TestHonorsUsesInstitutionalGpaWhenTransfersExcluded(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	cfg := testHonorsConfig()
	cfg.ExcludeTransferCredits = true

	instGpa := 3.6
	input := honorsInput(3.95)
	input.InstitutionalGpa = &instGpa

	result, err := svc.Determine(input, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 3.6, result.GpaUsed, 1e-9)
	require.NotNil(t, result.Designation)
	assert.Equal(t, models.HonorsCumLaude, *result.Designation)
}

func TestHonorsFallsBackToCumulativeGpa(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	cfg := testHonorsConfig()
	cfg.ExcludeTransferCredits = true

	result, err := svc.Determine(honorsInput(3.75), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 3.75, result.GpaUsed, 1e-9)
	require.NotNil(t, result.Designation)
	assert.Equal(t, models.HonorsMagnaCumLaude, *result.Designation)
}

func TestHonorsNoGpaOnRecord(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	input := models.LatinHonorsInput{StudentID: "s1", EarnedCredits: 120, InstitutionalCredits: 90}

	result, err := svc.Determine(input, testHonorsConfig())
	require.NoError(t, err)
	assert.Nil(t, result.Designation)
	assert.Contains(t, result.Explanation, "No GPA")
}

func TestHonorsRejectsInvalidConfig(t *testing.T) {
	svc := NewHonorsService(zap.NewNop())
	cfg := testHonorsConfig()
	cfg.CumThreshold = 0

	_, err := svc.Determine(honorsInput(3.9), cfg)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
