package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexander-vyh/student-information-system-sub004/internal/dto"
	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
	appErrors "github.com/alexander-vyh/student-information-system-sub004/pkg/errors"
)

const (
	sapPolicyCachePrefix = "policy:sap"
	policyDocCachePrefix = "policy:doc"
)

type policyStore interface {
	GetEffectiveSapPolicy(ctx context.Context, programID *string) (*models.SapPolicy, error)
	ListSapPolicies(ctx context.Context) ([]models.SapPolicy, error)
	UpsertSapPolicy(ctx context.Context, policy *models.SapPolicy) error
	GetDocument(ctx context.Context, kind models.PolicyDocumentKind) (*models.PolicyDocument, error)
	SaveDocument(ctx context.Context, doc *models.PolicyDocument) error
}

// PolicyService resolves the policies every calculation depends on.
// Resolution order for SAP policies is program override first, then the
// institution default; resolved policies are cached in redis so batch runs
// do not hammer the policy table. Honors and graduation policies are
// institution-wide JSONB documents with sensible defaults when unset.
type PolicyService struct {
	repo     policyStore
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewPolicyService constructs the service.
func NewPolicyService(repo policyStore, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &PolicyService{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// EffectiveSapPolicy returns the active policy for a program, falling back
// to the institution default. The second return reports whether the policy
// came from cache.
func (s *PolicyService) EffectiveSapPolicy(ctx context.Context, programID *string) (*models.SapPolicy, bool, error) {
	key := sapPolicyCachePrefix + ":default"
	if programID != nil && *programID != "" {
		key = fmt.Sprintf("%s:program:%s", sapPolicyCachePrefix, *programID)
	}

	var cached models.SapPolicy
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	policy, err := s.repo.GetEffectiveSapPolicy(ctx, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no active progress policy is configured")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve progress policy")
	}
	if err := s.cache.Set(ctx, key, policy, s.cacheTTL); err != nil {
		s.logger.Sugar().Warnw("failed to cache sap policy", "key", key, "error", err)
	}
	return policy, false, nil
}

// ListSapPolicies returns every configured policy, defaults first.
func (s *PolicyService) ListSapPolicies(ctx context.Context) ([]models.SapPolicy, error) {
	policies, err := s.repo.ListSapPolicies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress policies")
	}
	return policies, nil
}

// SaveSapPolicy validates and writes a policy, then drops cached
// resolutions so the next evaluation sees it.
func (s *PolicyService) SaveSapPolicy(ctx context.Context, req dto.SapPolicyRequest) (*models.SapPolicy, error) {
	policy := &models.SapPolicy{
		ID:                     req.ID,
		ProgramID:              req.ProgramID,
		MinimumGpa:             req.MinimumGpa,
		MinimumPace:            req.MinimumPace,
		MaxTimeframePercentage: req.MaxTimeframePercentage,
		GpaTiers:               req.GpaTiers,
		EvaluationCadence:      req.EvaluationCadence,
		Active:                 true,
	}
	if policy.EvaluationCadence == "" {
		policy.EvaluationCadence = "term"
	}
	if req.Active != nil {
		policy.Active = *req.Active
	}
	if err := validateSapPolicy(*policy); err != nil {
		return nil, err
	}
	for i := 1; i < len(policy.GpaTiers); i++ {
		if policy.GpaTiers[i].CreditFloor <= policy.GpaTiers[i-1].CreditFloor {
			return nil, appErrors.Clone(appErrors.ErrValidation, "gpa tiers must be ordered by ascending credit floor")
		}
	}
	if err := s.repo.UpsertSapPolicy(ctx, policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save progress policy")
	}
	if err := s.cache.Invalidate(ctx, sapPolicyCachePrefix+":*"); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate sap policy cache", "error", err)
	}
	return policy, nil
}

// HonorsConfig returns the Latin honors configuration, or institution
// defaults when none has been saved.
func (s *PolicyService) HonorsConfig(ctx context.Context) (*models.LatinHonorsConfig, error) {
	key := policyDocCachePrefix + ":" + string(models.PolicyDocumentHonors)
	var cached models.LatinHonorsConfig
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	cfg := defaultHonorsConfig()
	doc, err := s.repo.GetDocument(ctx, models.PolicyDocumentHonors)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load honors policy")
		}
	} else if err := json.Unmarshal(doc.Document, &cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed honors policy document")
	}

	if err := s.cache.Set(ctx, key, cfg, s.cacheTTL); err != nil {
		s.logger.Sugar().Warnw("failed to cache honors policy", "error", err)
	}
	return &cfg, nil
}

// SaveHonorsConfig validates threshold ordering and persists the document.
func (s *PolicyService) SaveHonorsConfig(ctx context.Context, cfg models.LatinHonorsConfig) error {
	if cfg.SummaThreshold <= 0 || cfg.MagnaThreshold <= 0 || cfg.CumThreshold <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "honors thresholds must be positive")
	}
	if cfg.SummaThreshold < cfg.MagnaThreshold || cfg.MagnaThreshold < cfg.CumThreshold {
		return appErrors.Clone(appErrors.ErrValidation, "honors thresholds must descend from summa to magna to cum")
	}
	if cfg.MinimumCredits < 0 || cfg.MinimumInstitutionalCredits < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "honors credit minimums must not be negative")
	}
	return s.saveDocument(ctx, models.PolicyDocumentHonors, cfg)
}

// GraduationConfig returns the graduation policy, or institution defaults
// when none has been saved.
func (s *PolicyService) GraduationConfig(ctx context.Context) (*models.GraduationPolicyConfig, error) {
	key := policyDocCachePrefix + ":" + string(models.PolicyDocumentGraduation)
	var cached models.GraduationPolicyConfig
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	cfg := defaultGraduationConfig()
	doc, err := s.repo.GetDocument(ctx, models.PolicyDocumentGraduation)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graduation policy")
		}
	} else if err := json.Unmarshal(doc.Document, &cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "malformed graduation policy document")
	}

	if err := s.cache.Set(ctx, key, cfg, s.cacheTTL); err != nil {
		s.logger.Sugar().Warnw("failed to cache graduation policy", "error", err)
	}
	return &cfg, nil
}

// SaveGraduationConfig validates and persists the document.
func (s *PolicyService) SaveGraduationConfig(ctx context.Context, cfg models.GraduationPolicyConfig) error {
	if cfg.MinimumCredits <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "graduation minimum credits must be positive")
	}
	if cfg.MinimumGpa < 0 || cfg.MaxOutstandingBalance < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "graduation policy values must not be negative")
	}
	return s.saveDocument(ctx, models.PolicyDocumentGraduation, cfg)
}

func (s *PolicyService) saveDocument(ctx context.Context, kind models.PolicyDocumentKind, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode policy document")
	}
	doc := &models.PolicyDocument{Kind: kind, Document: raw}
	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save policy document")
	}
	if err := s.cache.Invalidate(ctx, policyDocCachePrefix+":*"); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate policy document cache", "error", err)
	}
	return nil
}

func defaultHonorsConfig() models.LatinHonorsConfig {
	return models.LatinHonorsConfig{
		SummaThreshold:                 3.9,
		MagnaThreshold:                 3.7,
		CumThreshold:                   3.5,
		MinimumCredits:                 60,
		MinimumInstitutionalCredits:    30,
		ExcludeTransferCredits:         true,
		DisqualifyForAcademicIntegrity: true,
	}
}

func defaultGraduationConfig() models.GraduationPolicyConfig {
	return models.GraduationPolicyConfig{
		MinimumCredits:        120,
		MinimumGpa:            2.0,
		MaxOutstandingBalance: 0,
		RequireExitCounseling: true,
	}
}
