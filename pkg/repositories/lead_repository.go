// Package repositories contains the PostgreSQL data access layer.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadforge/leadforge-engine/pkg/apperrors"
	"github.com/leadforge/leadforge-engine/pkg/models"
)

// LeadRepository persists extracted leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, limit, offset int) ([]*models.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type leadRepository struct {
	pool *pgxpool.Pool
}

var _ LeadRepository = (*leadRepository)(nil)

// NewLeadRepository creates a lead repository backed by the given pool.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

// Create inserts a lead, assigning its ID and creation time when unset.
func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	contact, err := json.Marshal(lead.Contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}

	query := `
		INSERT INTO leads (
			id, company_name, contact, pain_points, requirements,
			budget_info, timeline, decision_makers, industry, company_size,
			urgency_level, current_solution, competitors_mentioned,
			confidence_score, data_completeness, extraction_method, source,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18
		)`

	_, err = r.pool.Exec(ctx, query,
		lead.ID, lead.CompanyName, contact,
		jsonList(lead.PainPoints), jsonList(lead.Requirements),
		lead.BudgetInfo, lead.Timeline, jsonList(lead.DecisionMakers),
		lead.Industry, lead.CompanySize, string(lead.UrgencyLevel),
		lead.CurrentSolution, jsonList(lead.CompetitorsMentioned),
		lead.ConfidenceScore, lead.DataCompleteness,
		string(lead.ExtractionMethod), lead.Source, lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// GetByID fetches one lead, returning apperrors.ErrNotFound when absent.
func (r *leadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	query := selectColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// List returns leads newest-first.
func (r *leadRepository) List(ctx context.Context, limit, offset int) ([]*models.Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	query := selectColumns + ` FROM leads ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Delete removes one lead, returning apperrors.ErrNotFound when absent.
func (r *leadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const selectColumns = `
	SELECT id, company_name, contact, pain_points, requirements,
	       budget_info, timeline, decision_makers, industry, company_size,
	       urgency_level, current_solution, competitors_mentioned,
	       confidence_score, data_completeness, extraction_method, source,
	       created_at`

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead                        models.Lead
		contact                     []byte
		painPoints, requirements    []byte
		decisionMakers, competitors []byte
		urgency, method             string
	)

	err := row.Scan(
		&lead.ID, &lead.CompanyName, &contact, &painPoints, &requirements,
		&lead.BudgetInfo, &lead.Timeline, &decisionMakers, &lead.Industry,
		&lead.CompanySize, &urgency, &lead.CurrentSolution, &competitors,
		&lead.ConfidenceScore, &lead.DataCompleteness, &method, &lead.Source,
		&lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.UrgencyLevel = models.UrgencyLevel(urgency)
	lead.ExtractionMethod = models.ExtractionMethod(method)

	if err := json.Unmarshal(contact, &lead.Contact); err != nil {
		return nil, fmt.Errorf("unmarshal contact: %w", err)
	}
	for _, pair := range []struct {
		raw  []byte
		dest *[]string
	}{
		{painPoints, &lead.PainPoints},
		{requirements, &lead.Requirements},
		{decisionMakers, &lead.DecisionMakers},
		{competitors, &lead.CompetitorsMentioned},
	} {
		if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
			return nil, fmt.Errorf("unmarshal list column: %w", err)
		}
	}

	return &lead, nil
}

// jsonList marshals a string slice for a jsonb column, storing [] rather
// than NULL for empty slices.
func jsonList(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return data
}
