package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/apperrors"
	"github.com/leadforge/leadforge-engine/pkg/extract"
	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/models"
)

// fakeLeadRepo is an in-memory LeadRepository for service tests.
type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*models.Lead

	createErr error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uuid.UUID]*models.Lead)}
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadRepo) List(ctx context.Context, limit, offset int) ([]*models.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Lead
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeLeadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func newTestService(client llm.Client, repo *fakeLeadRepo) *LeadExtractionService {
	scoring := extract.DefaultScoringConfig()
	return NewLeadExtractionService(client, extract.NewParser(scoring), scoring, repo, zap.NewNop())
}

func TestAnalyze_EmptyConversation(t *testing.T) {
	svc := newTestService(&llm.MockClient{}, newFakeLeadRepo())

	_, err := svc.Analyze(context.Background(), "", AnalyzeOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Analyze(context.Background(), "   \n\t  ", AnalyzeOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAnalyze_AIPath(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			assert.Contains(t, prompt, "they need faster reporting")
			return &llm.CompletionResult{
				Text:        `{"company_name": "Acme Corp", "requirements": ["faster reporting"]}`,
				TotalTokens: 50,
			}, nil
		},
	}
	repo := newFakeLeadRepo()
	svc := newTestService(mock, repo)

	lead, err := svc.Analyze(context.Background(), "they need faster reporting", AnalyzeOptions{Source: "web-form"})
	require.NoError(t, err)

	assert.Equal(t, models.ExtractionMethodAI, lead.ExtractionMethod)
	assert.Equal(t, "Acme Corp", lead.CompanyName)
	assert.Equal(t, "web-form", lead.Source)
	assert.Equal(t, 1, mock.CompleteCalls)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead, stored)
}

func TestAnalyze_FallbackOnAIError(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			return nil, llm.NewError(llm.KindQuotaExhausted, "all API keys exhausted", true, nil)
		},
	}
	svc := newTestService(mock, newFakeLeadRepo())

	lead, err := svc.Analyze(context.Background(),
		"Contact Sarah at sarah@acme.com, she's with Acme Corp", AnalyzeOptions{})
	require.NoError(t, err, "analysis must degrade, not fail")

	assert.Equal(t, models.ExtractionMethodPatternFallback, lead.ExtractionMethod)
	assert.Equal(t, "sarah@acme.com", lead.Contact.Email)
	assert.Equal(t, "Acme Corp", lead.CompanyName)
	assert.LessOrEqual(t, lead.ConfidenceScore, 60)
}

func TestAnalyze_NoClientConfigured(t *testing.T) {
	svc := newTestService(nil, newFakeLeadRepo())

	lead, err := svc.Analyze(context.Background(), "email me at jo@corp.io", AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionMethodPatternFallback, lead.ExtractionMethod)
}

func TestAnalyze_UrgencyHintAppliedWhenMissing(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: `{"company_name": "Acme Corp"}`, TotalTokens: 10}, nil
		},
	}
	svc := newTestService(mock, newFakeLeadRepo())

	lead, err := svc.Analyze(context.Background(), "some conversation", AnalyzeOptions{Urgency: models.UrgencyMedium})
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyMedium, lead.UrgencyLevel)
}

func TestAnalyze_UrgencyHintDoesNotOverrideExtraction(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: `{"urgency_level": "high"}`, TotalTokens: 10}, nil
		},
	}
	svc := newTestService(mock, newFakeLeadRepo())

	lead, err := svc.Analyze(context.Background(), "some conversation", AnalyzeOptions{Urgency: models.UrgencyLow})
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyHigh, lead.UrgencyLevel)
}

func TestAnalyze_PersistenceFailureSurfaces(t *testing.T) {
	repo := newFakeLeadRepo()
	repo.createErr = errors.New("connection lost")
	svc := newTestService(nil, repo)

	_, err := svc.Analyze(context.Background(), "email jo@corp.io", AnalyzeOptions{})
	assert.Error(t, err)
}
