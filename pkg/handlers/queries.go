package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
)

// QueryService is the manager surface the HTTP layer depends on.
type QueryService interface {
	ExecuteSafeQuery(ctx context.Context, query string, settings models.QuerySettings) (*models.SafeQueryResult, error)
	GetEnhancedSchema(ctx context.Context, settings models.QuerySettings) (string, error)
	GetTableList(ctx context.Context) ([]datasource.TableInfo, error)
	FindRelevantTables(ctx context.Context, freeText string, settings models.QuerySettings) ([]string, error)
	GetPerformanceReport() *models.PerformanceReport
	GetOptimizationSuggestions(query string) []models.Suggestion
}

// ExecuteQueryRequest is the POST /api/query payload.
type ExecuteQueryRequest struct {
	Query         string `json:"query"`
	EnabledTables string `json:"enabled_tables"`
	MaxResults    int    `json:"max_results"`
}

// QueryHandler exposes safe query execution and diagnostics.
type QueryHandler struct {
	service QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(service QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{service: service, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.ExecuteQuery)
	mux.HandleFunc("GET /api/performance", h.PerformanceReport)
	mux.HandleFunc("GET /api/suggestions", h.Suggestions)
}

// ExecuteQuery handles POST /api/query.
func (h *QueryHandler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req ExecuteQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Query == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	settings := models.QuerySettings{
		EnabledTables: req.EnabledTables,
		MaxResults:    req.MaxResults,
	}

	result, err := h.service.ExecuteSafeQuery(r.Context(), req.Query, settings)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// PerformanceReport handles GET /api/performance.
func (h *QueryHandler) PerformanceReport(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, h.service.GetPerformanceReport()); err != nil {
		h.logger.Error("Failed to encode performance report", zap.Error(err))
	}
}

// Suggestions handles GET /api/suggestions?query=...
func (h *QueryHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "query parameter is required")
		return
	}

	suggestions := h.service.GetOptimizationSuggestions(query)
	if err := WriteJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions}); err != nil {
		h.logger.Error("Failed to encode suggestions", zap.Error(err))
	}
}

func (h *QueryHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsRejected(err):
		_ = ErrorResponse(w, http.StatusBadRequest, "query_rejected", err.Error())
	case apperrors.IsAccessDenied(err):
		_ = ErrorResponse(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, apperrors.ErrNotConnected):
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "not_connected", err.Error())
	default:
		h.logger.Error("query execution failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "execution_error", err.Error())
	}
}
