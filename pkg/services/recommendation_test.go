package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/models"
)

func TestRecommend_Success(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			assert.Contains(t, prompt, "Acme Corp")
			return &llm.CompletionResult{
				Text: `{"next_steps": ["schedule a demo"], "talking_points": ["ROI on reporting"], "risk_factors": ["no budget owner identified"]}`,
			}, nil
		},
	}
	svc := NewRecommendationService(mock, zap.NewNop())

	rec, err := svc.Recommend(context.Background(), &models.Lead{CompanyName: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"schedule a demo"}, rec.NextSteps)
	assert.Len(t, rec.TalkingPoints, 1)
	assert.Len(t, rec.RiskFactors, 1)
}

func TestRecommend_UnparseableResponse(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, prompt, system string) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: "I suggest you call them."}, nil
		},
	}
	svc := NewRecommendationService(mock, zap.NewNop())

	_, err := svc.Recommend(context.Background(), &models.Lead{CompanyName: "Acme Corp"})
	assert.Error(t, err)
}

func TestRecommend_NoClient(t *testing.T) {
	svc := NewRecommendationService(nil, zap.NewNop())

	_, err := svc.Recommend(context.Background(), &models.Lead{})
	assert.Error(t, err)
}
