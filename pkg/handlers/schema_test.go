package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

func newSchemaMux(svc QueryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSchemaHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestTablesEndpoint(t *testing.T) {
	svc := &stubService{tables: []datasource.TableInfo{
		{Name: "users", EstimatedRows: 40},
		{Name: "orders", Comment: "customer orders", EstimatedRows: 1200},
	}}
	mux := newSchemaMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tables []datasource.TableInfo `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tables, 2)
	assert.Equal(t, "users", body.Tables[0].Name)
}

func TestTablesEndpoint_Error(t *testing.T) {
	mux := newSchemaMux(&stubService{err: errors.New("catalog unavailable")})

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEnhancedSchemaEndpoint(t *testing.T) {
	svc := &stubService{schema: "Table: users\n  - id int NOT NULL [primary key]\n"}
	mux := newSchemaMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/schema?tables=users", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Table: users")
}

func TestRelevantTablesEndpoint(t *testing.T) {
	svc := &stubService{relevant: []string{"users", "orders"}}
	mux := newSchemaMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/relevant-tables?q=top+users&tables=users,orders,products", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "users")
}

func TestRelevantTablesEndpoint_RequiresQuestion(t *testing.T) {
	mux := newSchemaMux(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/relevant-tables", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
