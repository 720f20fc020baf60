package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alexander-vyh/student-information-system-sub004/internal/models"
)

const sapPolicyColumns = `id, program_id, minimum_gpa, minimum_pace, max_timeframe_percentage, gpa_tiers, evaluation_cadence, active, created_at, updated_at`

// PolicyRepository manages progress policies and the JSONB policy
// documents for honors and graduation configuration.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository constructs the repository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// GetEffectiveSapPolicy resolves the active policy for a program: a
// program-specific row wins, otherwise the institution default (the row
// with a null program_id). sql.ErrNoRows means no default is configured.
func (r *PolicyRepository) GetEffectiveSapPolicy(ctx context.Context, programID *string) (*models.SapPolicy, error) {
	var policy models.SapPolicy
	if programID != nil && *programID != "" {
		query := fmt.Sprintf(`SELECT %s FROM sap_policies WHERE program_id = $1 AND active = true ORDER BY updated_at DESC LIMIT 1`, sapPolicyColumns)
		err := r.db.GetContext(ctx, &policy, query, *programID)
		if err == nil {
			return &policy, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("get program sap policy: %w", err)
		}
	}
	query := fmt.Sprintf(`SELECT %s FROM sap_policies WHERE program_id IS NULL AND active = true ORDER BY updated_at DESC LIMIT 1`, sapPolicyColumns)
	if err := r.db.GetContext(ctx, &policy, query); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListSapPolicies returns every policy row, defaults first.
func (r *PolicyRepository) ListSapPolicies(ctx context.Context) ([]models.SapPolicy, error) {
	query := fmt.Sprintf(`SELECT %s FROM sap_policies ORDER BY program_id NULLS FIRST, updated_at DESC`, sapPolicyColumns)
	var policies []models.SapPolicy
	if err := r.db.SelectContext(ctx, &policies, query); err != nil {
		return nil, fmt.Errorf("list sap policies: %w", err)
	}
	return policies, nil
}

// UpsertSapPolicy writes a policy keyed by its program scope. One row per
// program (or one institution default) is kept.
func (r *PolicyRepository) UpsertSapPolicy(ctx context.Context, policy *models.SapPolicy) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now
	const query = `INSERT INTO sap_policies (id, program_id, minimum_gpa, minimum_pace, max_timeframe_percentage, gpa_tiers, evaluation_cadence, active, created_at, updated_at)
VALUES (:id, :program_id, :minimum_gpa, :minimum_pace, :max_timeframe_percentage, :gpa_tiers, :evaluation_cadence, :active, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
	program_id = EXCLUDED.program_id,
	minimum_gpa = EXCLUDED.minimum_gpa,
	minimum_pace = EXCLUDED.minimum_pace,
	max_timeframe_percentage = EXCLUDED.max_timeframe_percentage,
	gpa_tiers = EXCLUDED.gpa_tiers,
	evaluation_cadence = EXCLUDED.evaluation_cadence,
	active = EXCLUDED.active,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, policy); err != nil {
		return fmt.Errorf("upsert sap policy: %w", err)
	}
	return nil
}

// GetDocument returns one policy document by kind.
func (r *PolicyRepository) GetDocument(ctx context.Context, kind models.PolicyDocumentKind) (*models.PolicyDocument, error) {
	const query = `SELECT kind, document, updated_at FROM policy_documents WHERE kind = $1`
	var doc models.PolicyDocument
	if err := r.db.GetContext(ctx, &doc, query, kind); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveDocument writes a policy document, replacing any prior version.
func (r *PolicyRepository) SaveDocument(ctx context.Context, doc *models.PolicyDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO policy_documents (kind, document, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (kind) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, doc.Kind, doc.Document, doc.UpdatedAt); err != nil {
		return fmt.Errorf("save policy document: %w", err)
	}
	return nil
}
