package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/apperrors"
	"github.com/leadforge/leadforge-engine/pkg/models"
	"github.com/leadforge/leadforge-engine/pkg/repositories"
	"github.com/leadforge/leadforge-engine/pkg/services"
)

// AnalyzeRequest is the body of POST /api/leads/analyze.
type AnalyzeRequest struct {
	Conversation string `json:"conversation"`
	Source       string `json:"source,omitempty"`
	Urgency      string `json:"urgency,omitempty"`
}

// LeadsHandler exposes conversation analysis and lead CRUD over HTTP.
type LeadsHandler struct {
	extraction      *services.LeadExtractionService
	recommendations *services.RecommendationService
	repo            repositories.LeadRepository
	logger          *zap.Logger
}

// NewLeadsHandler creates a new LeadsHandler.
func NewLeadsHandler(
	extraction *services.LeadExtractionService,
	recommendations *services.RecommendationService,
	repo repositories.LeadRepository,
	logger *zap.Logger,
) *LeadsHandler {
	return &LeadsHandler{
		extraction:      extraction,
		recommendations: recommendations,
		repo:            repo,
		logger:          logger,
	}
}

// RegisterRoutes registers the lead routes on the given mux, wrapping each
// one with the given middleware (typically auth.Middleware.RequireAuth).
func (h *LeadsHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/leads/analyze", wrap(h.Analyze))
	mux.HandleFunc("GET /api/leads", wrap(h.List))
	mux.HandleFunc("GET /api/leads/{id}", wrap(h.Get))
	mux.HandleFunc("DELETE /api/leads/{id}", wrap(h.Delete))
	mux.HandleFunc("GET /api/leads/{id}/recommendations", wrap(h.Recommendations))
}

// Analyze handles POST /api/leads/analyze: extract a lead from raw
// conversation text and persist it.
func (h *LeadsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	lead, err := h.extraction.Analyze(r.Context(), req.Conversation, services.AnalyzeOptions{
		Source:  req.Source,
		Urgency: models.UrgencyLevel(req.Urgency),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "conversation text is required")
			return
		}
		h.logger.Error("Failed to analyze conversation", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to analyze conversation")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

// List handles GET /api/leads with optional limit/offset query parameters.
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	leads, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list leads", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"leads": leads}); err != nil {
		h.logger.Error("Failed to encode leads response", zap.Error(err))
	}
}

// Get handles GET /api/leads/{id}.
func (h *LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.leadFromPath(w, r)
	if !ok {
		return
	}

	if err := WriteJSON(w, http.StatusOK, lead); err != nil {
		h.logger.Error("Failed to encode lead response", zap.Error(err))
	}
}

// Delete handles DELETE /api/leads/{id}.
func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "lead id must be a valid UUID")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "lead not found")
			return
		}
		h.logger.Error("Failed to delete lead", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to delete lead")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recommendations handles GET /api/leads/{id}/recommendations: follow-up
// guidance generated on demand for a stored lead.
func (h *LeadsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.leadFromPath(w, r)
	if !ok {
		return
	}

	rec, err := h.recommendations.Recommend(r.Context(), lead)
	if err != nil {
		h.logger.Warn("Failed to generate recommendations", zap.Error(err))
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "unavailable", "recommendations are temporarily unavailable")
		return
	}

	if err := WriteJSON(w, http.StatusOK, rec); err != nil {
		h.logger.Error("Failed to encode recommendations response", zap.Error(err))
	}
}

// leadFromPath parses the {id} path value and loads the lead, writing the
// error response itself when either step fails.
func (h *LeadsHandler) leadFromPath(w http.ResponseWriter, r *http.Request) (*models.Lead, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "lead id must be a valid UUID")
		return nil, false
	}

	lead, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "lead not found")
			return nil, false
		}
		h.logger.Error("Failed to load lead", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to load lead")
		return nil, false
	}

	return lead, true
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
