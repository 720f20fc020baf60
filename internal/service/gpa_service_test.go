package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

func gradedAttempt(id, courseID string, credits, points float64) models.CourseAttempt {
	p := points
	return models.CourseAttempt{
		ID:              id,
		StudentID:       "s1",
		CourseID:        courseID,
		TermID:          "2025-FA",
		Credits:         credits,
		GradeCode:       "G",
		GradePoints:     &p,
		IncludeInGpa:    true,
		CountsAttempted: true,
		CountsEarned:    points > 0,
	}
}

func withdrawalAttempt(id, courseID string, credits float64) models.CourseAttempt {
	return models.CourseAttempt{
		ID:              id,
		StudentID:       "s1",
		CourseID:        courseID,
		TermID:          "2025-FA",
		Credits:         credits,
		GradeCode:       "W",
		IncludeInGpa:    false,
		CountsAttempted: true,
		CountsEarned:    false,
	}
}

func passAttempt(id, courseID string, credits float64) models.CourseAttempt {
	return models.CourseAttempt{
		ID:              id,
		StudentID:       "s1",
		CourseID:        courseID,
		TermID:          "2025-FA",
		Credits:         credits,
		GradeCode:       "P",
		IncludeInGpa:    false,
		CountsAttempted: true,
		CountsEarned:    true,
	}
}

func TestGpaCalculateBasic(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 4.0),
		gradedAttempt("a2", "ENG201", 3, 3.0),
		gradedAttempt("a3", "HIS110", 1, 3.0),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 7, result.AttemptedCredits, 1e-9)
	assert.InDelta(t, 7, result.EarnedCredits, 1e-9)
	assert.InDelta(t, 7, result.GpaCredits, 1e-9)
	assert.InDelta(t, 24, result.QualityPoints, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 3.429, *result.CumulativeGpa, 1e-9)
	assert.Len(t, result.Details, 3)
}

func TestGpaCalculateRoundsHalfToEven(t *testing.T) {
	assert.InDelta(t, 3.062, roundTo(3.0625, 3), 1e-9)
	assert.InDelta(t, 3.438, roundTo(3.4375, 3), 1e-9)
}

func TestGpaCalculateNilWithoutGpaCredits(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		withdrawalAttempt("a1", "MATH101", 3),
		passAttempt("a2", "PE100", 1),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.CumulativeGpa)
	assert.InDelta(t, 4, result.AttemptedCredits, 1e-9)
	assert.InDelta(t, 1, result.EarnedCredits, 1e-9)
	assert.Zero(t, result.GpaCredits)
}

func TestGpaCalculateEmptyHistory(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	result, err := svc.Calculate(nil, models.GpaCalculationOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.CumulativeGpa)
	assert.Zero(t, result.AttemptedCredits)
	assert.Empty(t, result.Details)
}

func TestGpaRepeatReplace(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 0),
		gradedAttempt("a2", "MATH101", 3, 4.0),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicyReplace})
	require.NoError(t, err)
	assert.InDelta(t, 3, result.AttemptedCredits, 1e-9)
	assert.InDelta(t, 3, result.GpaCredits, 1e-9)
	assert.InDelta(t, 12, result.QualityPoints, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 4.0, *result.CumulativeGpa, 1e-9)

	require.Len(t, result.Details, 2)
	assert.True(t, result.Details[0].Excluded)
	assert.Equal(t, "replaced by a more recent attempt", result.Details[0].ExcludedReason)
	assert.False(t, result.Details[1].Excluded)
}

func TestGpaRepeatAverage(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 0),
		gradedAttempt("a2", "MATH101", 3, 4.0),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicyAverage})
	require.NoError(t, err)
	assert.InDelta(t, 3, result.AttemptedCredits, 1e-9)
	assert.InDelta(t, 3, result.GpaCredits, 1e-9)
	assert.InDelta(t, 6, result.QualityPoints, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 2.0, *result.CumulativeGpa, 1e-9)
}

func TestGpaRepeatHighest(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 3.0),
		gradedAttempt("a2", "MATH101", 3, 4.0),
		gradedAttempt("a3", "MATH101", 3, 2.0),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicyHighest})
	require.NoError(t, err)
	assert.InDelta(t, 3, result.GpaCredits, 1e-9)
	assert.InDelta(t, 12, result.QualityPoints, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 4.0, *result.CumulativeGpa, 1e-9)
}

func TestGpaRepeatAllCount(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 0),
		gradedAttempt("a2", "MATH101", 3, 4.0),
	}

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicyAllCount})
	require.NoError(t, err)
	assert.InDelta(t, 6, result.AttemptedCredits, 1e-9)
	assert.InDelta(t, 6, result.GpaCredits, 1e-9)
	assert.InDelta(t, 12, result.QualityPoints, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 2.0, *result.CumulativeGpa, 1e-9)
}

func TestGpaAttemptPolicyOverridesDefault(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	attempts := []models.CourseAttempt{
		gradedAttempt("a1", "MATH101", 3, 0),
		gradedAttempt("a2", "MATH101", 3, 4.0),
	}
	attempts[1].RepeatPolicy = models.RepeatPolicyAllCount

	result, err := svc.Calculate(attempts, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicyReplace})
	require.NoError(t, err)
	assert.InDelta(t, 6, result.GpaCredits, 1e-9)
	require.NotNil(t, result.CumulativeGpa)
	assert.InDelta(t, 2.0, *result.CumulativeGpa, 1e-9)
}

func TestGpaRejectsNegativeCredits(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	bad := gradedAttempt("a1", "MATH101", -3, 4.0)

	_, err := svc.Calculate([]models.CourseAttempt{bad}, models.GpaCalculationOptions{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGpaRejectsEligibleAttemptWithoutPoints(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	bad := models.CourseAttempt{ID: "a1", CourseID: "MATH101", Credits: 3, GradeCode: "A", IncludeInGpa: true, CountsAttempted: true}

	_, err := svc.Calculate([]models.CourseAttempt{bad}, models.GpaCalculationOptions{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGpaRejectsUnknownDefaultPolicy(t *testing.T) {
	svc := NewGpaService(zap.NewNop())
	_, err := svc.Calculate(nil, models.GpaCalculationOptions{DefaultRepeatPolicy: models.RepeatPolicy("latest")})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
