package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	adapter, err := NewAdapter(&datasource.EngineConfig{
		Engine:   "postgres",
		Host:     "localhost",
		Database: "shop",
	}, nil)
	require.NoError(t, err)
	return adapter
}

func TestQuoteIdentifier(t *testing.T) {
	a := newTestAdapter(t)
	assert.Equal(t, `"users"`, a.QuoteIdentifier("users"))
	assert.Equal(t, `"odd""name"`, a.QuoteIdentifier(`odd"name`))
}

func TestApplyRowLimit(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  string
	}{
		{
			name:  "appends limit",
			query: "SELECT * FROM users",
			limit: 25,
			want:  "SELECT * FROM users LIMIT 25",
		},
		{
			name:  "existing limit preserved",
			query: "SELECT * FROM users LIMIT 5",
			limit: 25,
			want:  "SELECT * FROM users LIMIT 5",
		},
		{
			name:  "negative limit falls back to cap",
			query: "SELECT * FROM users",
			limit: -1,
			want:  "SELECT * FROM users LIMIT 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ApplyRowLimit(tt.query, tt.limit))
		})
	}
}

func TestSanitizeQuery_EngineRules(t *testing.T) {
	a := newTestAdapter(t)

	rejected := []string{
		"SELECT pg_sleep(10)",
		"SELECT pg_read_file('/etc/passwd')",
		"SELECT * FROM pg_shadow",
		"SELECT * FROM pg_catalog.pg_tables",
	}
	for _, q := range rejected {
		_, err := a.SanitizeQuery(q)
		require.Error(t, err, "query %q should be rejected", q)
		assert.True(t, apperrors.IsRejected(err))
	}

	_, err := a.SanitizeQuery("SELECT id, name FROM users ORDER BY name")
	assert.NoError(t, err)
}

func TestExtractTableNames_FiltersCatalog(t *testing.T) {
	a := newTestAdapter(t)

	names := a.ExtractTableNames("SELECT * FROM users JOIN pg_catalog.pg_class ON 1=1")
	assert.Equal(t, []string{"users"}, names)
}

func TestExecuteQuery_NotConnected(t *testing.T) {
	a := newTestAdapter(t)

	_, err := a.ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
}

func TestTypeNameFromOID(t *testing.T) {
	assert.Equal(t, "INT8", typeNameFromOID(20))
	assert.Equal(t, "TEXT", typeNameFromOID(25))
	assert.Equal(t, "TIMESTAMPTZ", typeNameFromOID(1184))
	assert.Equal(t, "UNKNOWN", typeNameFromOID(99999))
}
