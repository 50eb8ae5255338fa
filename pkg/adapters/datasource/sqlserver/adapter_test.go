package sqlserver

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter, err := NewAdapter(&datasource.EngineConfig{
		Engine:   "sqlserver",
		Host:     "localhost",
		Database: "shop",
	}, zap.NewNop())
	require.NoError(t, err)
	adapter.db = db

	return adapter, mock
}

func TestQuoteIdentifier(t *testing.T) {
	a := &Adapter{}
	assert.Equal(t, "[users]", a.QuoteIdentifier("users"))
	assert.Equal(t, "[odd]]name]", a.QuoteIdentifier("odd]name"))
}

func TestApplyRowLimit(t *testing.T) {
	a := &Adapter{}

	tests := []struct {
		name  string
		query string
		limit int
		want  string
	}{
		{
			name:  "wraps with top subselect",
			query: "SELECT * FROM users",
			limit: 50,
			want:  "SELECT TOP (50) * FROM (SELECT * FROM users) AS _limited",
		},
		{
			name:  "existing top preserved",
			query: "SELECT TOP (10) * FROM users",
			limit: 50,
			want:  "SELECT TOP (10) * FROM users",
		},
		{
			name:  "limit above cap clamped",
			query: "SELECT * FROM users",
			limit: 99999,
			want:  "SELECT TOP (1000) * FROM (SELECT * FROM users) AS _limited",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ApplyRowLimit(tt.query, tt.limit))
		})
	}
}

func TestSanitizeQuery_EngineRules(t *testing.T) {
	a, _ := newMockAdapter(t)

	rejected := []string{
		"SELECT * FROM users; EXEC xp_cmdshell 'dir'",
		"SELECT * FROM users WAITFOR DELAY '0:0:10'",
		"SELECT * FROM OPENROWSET('SQLNCLI', 'server', 'query')",
		"SELECT name FROM sys.tables",
		"SELECT * FROM master.dbo.logins",
	}
	for _, q := range rejected {
		_, err := a.SanitizeQuery(q)
		require.Error(t, err, "query %q should be rejected", q)
		assert.True(t, apperrors.IsRejected(err))
	}

	_, err := a.SanitizeQuery("SELECT * FROM users WHERE id = 3")
	assert.NoError(t, err)
}

func TestExecuteQuery_NotConnected(t *testing.T) {
	adapter, err := NewAdapter(&datasource.EngineConfig{
		Engine:   "sqlserver",
		Host:     "localhost",
		Database: "shop",
	}, nil)
	require.NoError(t, err)

	_, err = adapter.ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
}

func TestGetTableList(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM sys.tables").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rows"}).
			AddRow("customers", int64(300)).
			AddRow("orders", int64(9000)))

	tables, err := adapter.GetTableList(context.Background())
	require.NoError(t, err)

	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, int64(9000), tables[1].EstimatedRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForeignKeys(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM sys.foreign_key_columns").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"parent_column", "referenced_table", "referenced_column"}).
			AddRow("customer_id", "customers", "id"))

	edges, err := adapter.GetForeignKeys(context.Background(), "orders")
	require.NoError(t, err)

	require.Len(t, edges, 1)
	assert.Equal(t, "orders", edges[0].SourceTable)
	assert.Equal(t, "customer_id", edges[0].SourceColumn)
	assert.Equal(t, "customers", edges[0].TargetTable)
	assert.Equal(t, 1.0, edges[0].Confidence)
	assert.Equal(t, datasource.OriginExplicit, edges[0].Origin)
	require.NoError(t, mock.ExpectationsWereMet())
}
