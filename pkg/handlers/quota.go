package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/quota"
)

// QuotaReporter provides the active key's usage snapshot. The llm.Gate
// implements it.
type QuotaReporter interface {
	Usage() quota.Usage
}

// QuotaHandler exposes quota telemetry for dashboards and alerting.
type QuotaHandler struct {
	reporter QuotaReporter
	logger   *zap.Logger
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(reporter QuotaReporter, logger *zap.Logger) *QuotaHandler {
	return &QuotaHandler{reporter: reporter, logger: logger}
}

// RegisterRoutes registers the quota routes on the given mux, wrapping each
// one with the given middleware.
func (h *QuotaHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/quota", wrap(h.Usage))
}

// Usage handles GET /api/quota with the active key's window counters and
// health annotations.
func (h *QuotaHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, h.reporter.Usage()); err != nil {
		h.logger.Error("Failed to encode quota response", zap.Error(err))
	}
}
