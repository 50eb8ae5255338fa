package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
)

// SchemaHandler exposes schema listing and enrichment endpoints.
type SchemaHandler struct {
	service QueryService
	logger  *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(service QueryService, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{service: service, logger: logger}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tables", h.Tables)
	mux.HandleFunc("GET /api/schema", h.EnhancedSchema)
	mux.HandleFunc("GET /api/relevant-tables", h.RelevantTables)
}

// Tables handles GET /api/tables.
func (h *SchemaHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.GetTableList(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tables", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_error", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"tables": tables}); err != nil {
		h.logger.Error("Failed to encode table list", zap.Error(err))
	}
}

// EnhancedSchema handles GET /api/schema?tables=a,b,c.
func (h *SchemaHandler) EnhancedSchema(w http.ResponseWriter, r *http.Request) {
	settings := models.QuerySettings{EnabledTables: r.URL.Query().Get("tables")}

	schema, err := h.service.GetEnhancedSchema(r.Context(), settings)
	if err != nil {
		h.logger.Error("Failed to build enhanced schema", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_error", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"schema": schema}); err != nil {
		h.logger.Error("Failed to encode schema", zap.Error(err))
	}
}

// RelevantTables handles GET /api/relevant-tables?q=...&tables=a,b,c.
func (h *SchemaHandler) RelevantTables(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("q")
	if question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "q parameter is required")
		return
	}
	settings := models.QuerySettings{EnabledTables: r.URL.Query().Get("tables")}

	tables, err := h.service.FindRelevantTables(r.Context(), question, settings)
	if err != nil {
		h.logger.Error("Failed to rank tables", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "schema_error", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"tables": tables}); err != nil {
		h.logger.Error("Failed to encode relevant tables", zap.Error(err))
	}
}
