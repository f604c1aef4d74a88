package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/models"
	"github.com/leadforge/leadforge-engine/pkg/prompts"
)

// Recommendation is the follow-up guidance generated for one lead.
type Recommendation struct {
	NextSteps     []string `json:"next_steps"`
	TalkingPoints []string `json:"talking_points"`
	RiskFactors   []string `json:"risk_factors"`
}

// RecommendationService generates follow-up guidance for extracted leads.
// Recommendations are advisory: failures here never block lead extraction.
type RecommendationService struct {
	client llm.Client
	logger *zap.Logger
}

// NewRecommendationService creates the recommendation service. client may be
// nil when no API keys are configured.
func NewRecommendationService(client llm.Client, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		client: client,
		logger: logger,
	}
}

// Recommend produces follow-up guidance for a lead.
func (s *RecommendationService) Recommend(ctx context.Context, lead *models.Lead) (*Recommendation, error) {
	if s.client == nil {
		return nil, fmt.Errorf("no AI provider configured")
	}

	prompt := prompts.BuildRecommendationPrompt(lead)
	result, err := s.client.Complete(ctx, prompt, prompts.RecommendationSystemMessage())
	if err != nil {
		return nil, fmt.Errorf("generate recommendation: %w", err)
	}

	rec, err := llm.ParseJSONResponse[Recommendation](result.Text)
	if err != nil {
		s.logger.Warn("recommendation response not parseable", zap.Error(err))
		return nil, fmt.Errorf("parse recommendation: %w", err)
	}

	return &rec, nil
}
