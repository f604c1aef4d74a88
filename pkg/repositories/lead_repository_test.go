//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge-engine/pkg/apperrors"
	"github.com/leadforge/leadforge-engine/pkg/models"
	"github.com/leadforge/leadforge-engine/pkg/testhelpers"
)

func testLead() *models.Lead {
	return &models.Lead{
		CompanyName: "Acme Corp",
		Contact: models.Contact{
			Name:  "Sarah Johnson",
			Email: "sarah@acme.com",
			Phone: "555-123-4567",
			Title: "VP Operations",
		},
		PainPoints:           []string{"manual reporting"},
		Requirements:         []string{"CRM integration"},
		BudgetInfo:           "$250,000",
		Timeline:             "Q3 2026",
		DecisionMakers:       []string{"Sarah Johnson"},
		Industry:             "manufacturing",
		CompanySize:          "500 employees",
		UrgencyLevel:         models.UrgencyHigh,
		CurrentSolution:      "spreadsheets",
		CompetitorsMentioned: []string{"CompetitorX"},
		ConfidenceScore:      85,
		DataCompleteness:     100,
		ExtractionMethod:     models.ExtractionMethodAI,
		Source:               "integration-test",
	}
}

func TestLeadRepository_CreateAndGet(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewLeadRepository(db.DB.Pool)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, repo.Create(ctx, lead))
	require.NotEqual(t, uuid.Nil, lead.ID)

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)

	assert.Equal(t, lead.CompanyName, got.CompanyName)
	assert.Equal(t, lead.Contact, got.Contact)
	assert.Equal(t, lead.PainPoints, got.PainPoints)
	assert.Equal(t, lead.Requirements, got.Requirements)
	assert.Equal(t, lead.UrgencyLevel, got.UrgencyLevel)
	assert.Equal(t, lead.ExtractionMethod, got.ExtractionMethod)
	assert.Equal(t, lead.ConfidenceScore, got.ConfidenceScore)
	assert.Equal(t, lead.DataCompleteness, got.DataCompleteness)
}

func TestLeadRepository_GetByID_NotFound(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewLeadRepository(db.DB.Pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLeadRepository_List(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewLeadRepository(db.DB.Pool)
	ctx := context.Background()

	first := testLead()
	second := testLead()
	second.CompanyName = "Globex Corporation"
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	leads, err := repo.List(ctx, 100, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(leads), 2)
}

func TestLeadRepository_Delete(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewLeadRepository(db.DB.Pool)
	ctx := context.Background()

	lead := testLead()
	require.NoError(t, repo.Create(ctx, lead))

	require.NoError(t, repo.Delete(ctx, lead.ID))
	assert.ErrorIs(t, repo.Delete(ctx, lead.ID), apperrors.ErrNotFound)

	_, err := repo.GetByID(ctx, lead.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLeadRepository_EmptyListsRoundTrip(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	repo := NewLeadRepository(db.DB.Pool)
	ctx := context.Background()

	lead := &models.Lead{
		CompanyName:      "Minimal Inc",
		ExtractionMethod: models.ExtractionMethodPatternFallback,
	}
	require.NoError(t, repo.Create(ctx, lead))

	got, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PainPoints)
	assert.Empty(t, got.Requirements)
	assert.Equal(t, models.ExtractionMethodPatternFallback, got.ExtractionMethod)
}
