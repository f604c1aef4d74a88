// Package services contains the business logic between the HTTP handlers
// and the AI/data layers.
package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/apperrors"
	"github.com/leadforge/leadforge-engine/pkg/extract"
	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/logging"
	"github.com/leadforge/leadforge-engine/pkg/models"
	"github.com/leadforge/leadforge-engine/pkg/prompts"
	"github.com/leadforge/leadforge-engine/pkg/repositories"
)

// AnalyzeOptions carries optional caller context for one conversation.
type AnalyzeOptions struct {
	// Source records where the conversation came from (web form, call
	// transcript, chat widget).
	Source string

	// Urgency is a caller-supplied hint used when the extraction itself
	// finds no urgency signal.
	Urgency models.UrgencyLevel
}

// LeadExtractionService turns raw conversation text into persisted leads.
// The AI path is preferred; when it fails for any reason the service
// degrades to pattern extraction so analysis always produces a lead.
type LeadExtractionService struct {
	client  llm.Client
	parser  *extract.Parser
	scoring extract.ScoringConfig
	repo    repositories.LeadRepository
	logger  *zap.Logger
}

// NewLeadExtractionService creates the extraction service. client may be nil
// when no API keys are configured; the service then serves pattern
// extraction only. repo may be nil in tests to skip persistence.
func NewLeadExtractionService(
	client llm.Client,
	parser *extract.Parser,
	scoring extract.ScoringConfig,
	repo repositories.LeadRepository,
	logger *zap.Logger,
) *LeadExtractionService {
	return &LeadExtractionService{
		client:  client,
		parser:  parser,
		scoring: scoring,
		repo:    repo,
		logger:  logger,
	}
}

// Analyze extracts a lead from one conversation. Empty or whitespace-only
// text is rejected with apperrors.ErrInvalidInput; every other input yields
// a lead, by AI extraction when possible and pattern fallback otherwise.
func (s *LeadExtractionService) Analyze(ctx context.Context, conversation string, opts AnalyzeOptions) (*models.Lead, error) {
	if strings.TrimSpace(conversation) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	lead := s.extract(ctx, conversation, opts)

	lead.Source = opts.Source
	if lead.UrgencyLevel == "" && models.IsValidUrgencyLevel(opts.Urgency) {
		lead.UrgencyLevel = opts.Urgency
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, lead); err != nil {
			return nil, err
		}
	}

	s.logger.Info("conversation analyzed",
		zap.String("lead_id", lead.ID.String()),
		zap.String("method", string(lead.ExtractionMethod)),
		zap.Int("confidence", lead.ConfidenceScore),
		zap.Int("completeness", lead.DataCompleteness),
		zap.String("conversation", logging.TruncateString(conversation, logging.MaxConversationLogLength)))

	return lead, nil
}

// extract runs the AI path and falls back to pattern extraction when the
// provider is unavailable or every key is out of quota.
func (s *LeadExtractionService) extract(ctx context.Context, conversation string, opts AnalyzeOptions) *models.Lead {
	if s.client == nil {
		return extract.ExtractLeadFallback(conversation, s.scoring)
	}

	prompt := prompts.BuildLeadExtractionPrompt(conversation, opts.Source, opts.Urgency)
	result, err := s.client.Complete(ctx, prompt, prompts.ExtractionSystemMessage())
	if err != nil {
		s.logger.Warn("AI extraction unavailable, using pattern fallback",
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err))
		return extract.ExtractLeadFallback(conversation, s.scoring)
	}

	return s.parser.ParseLead(result.Text)
}
