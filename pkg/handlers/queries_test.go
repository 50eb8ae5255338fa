package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
)

// stubService scripts the QueryService surface for handler tests.
type stubService struct {
	result      *models.SafeQueryResult
	err         error
	schema      string
	tables      []datasource.TableInfo
	relevant    []string
	report      *models.PerformanceReport
	suggestions []models.Suggestion

	lastQuery    string
	lastSettings models.QuerySettings
}

func (s *stubService) ExecuteSafeQuery(ctx context.Context, query string, settings models.QuerySettings) (*models.SafeQueryResult, error) {
	s.lastQuery = query
	s.lastSettings = settings
	return s.result, s.err
}

func (s *stubService) GetEnhancedSchema(ctx context.Context, settings models.QuerySettings) (string, error) {
	return s.schema, s.err
}

func (s *stubService) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	return s.tables, s.err
}

func (s *stubService) FindRelevantTables(ctx context.Context, freeText string, settings models.QuerySettings) ([]string, error) {
	return s.relevant, s.err
}

func (s *stubService) GetPerformanceReport() *models.PerformanceReport {
	return s.report
}

func (s *stubService) GetOptimizationSuggestions(query string) []models.Suggestion {
	return s.suggestions
}

func newQueryMux(svc QueryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewQueryHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestExecuteQuery_Success(t *testing.T) {
	svc := &stubService{
		result: &models.SafeQueryResult{
			Data:            []map[string]any{{"id": 1.0}},
			Columns:         []datasource.ResultColumn{{Name: "id", Type: "INT8"}},
			ExecutionTimeMs: 3.5,
		},
	}
	mux := newQueryMux(svc)

	body := `{"query":"SELECT * FROM products","enabled_tables":"products","max_results":50}`
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SELECT * FROM products", svc.lastQuery)
	assert.Equal(t, "products", svc.lastSettings.EnabledTables)
	assert.Equal(t, 50, svc.lastSettings.MaxResults)

	var decoded models.SafeQueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Len(t, decoded.Data, 1)
	assert.Equal(t, 3.5, decoded.ExecutionTimeMs)
}

func TestExecuteQuery_MalformedBody(t *testing.T) {
	mux := newQueryMux(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteQuery_MissingQuery(t *testing.T) {
	mux := newQueryMux(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"enabled_tables":"users"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "rejected query",
			err:        &apperrors.RejectedQueryError{Reason: "DDL statements are not allowed"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "query_rejected",
		},
		{
			name:       "access denied",
			err:        &apperrors.AccessDeniedError{Tables: []string{"secrets"}},
			wantStatus: http.StatusForbidden,
			wantCode:   "access_denied",
		},
		{
			name:       "not connected",
			err:        apperrors.ErrNotConnected,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "not_connected",
		},
		{
			name:       "execution failure",
			err:        &apperrors.ExecutionError{Err: errors.New("connection reset")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "execution_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newQueryMux(&stubService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"SELECT 1"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestPerformanceReportEndpoint(t *testing.T) {
	svc := &stubService{report: &models.PerformanceReport{TotalQueries: 7, UniqueQueries: 3}}
	mux := newQueryMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/performance", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.PerformanceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 7, report.TotalQueries)
}

func TestSuggestionsEndpoint(t *testing.T) {
	svc := &stubService{suggestions: []models.Suggestion{{Kind: "missing_index", Message: "add an index"}}}
	mux := newQueryMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/suggestions?query=SELECT+1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_index")
}

func TestSuggestionsEndpoint_RequiresQuery(t *testing.T) {
	mux := newQueryMux(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/suggestions", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
