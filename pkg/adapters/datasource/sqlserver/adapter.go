// Package sqlserver implements the datasource.Adapter contract for
// Microsoft SQL Server.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// Adapter provides SQL Server connection lifecycle, execution, introspection
// and validation.
type Adapter struct {
	*datasource.Guard

	cfg    *datasource.EngineConfig
	logger *zap.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewAdapter creates a SQL Server adapter. The pool is not opened until
// Connect. If logger is nil, a no-op logger is used.
func NewAdapter(cfg *datasource.EngineConfig, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		Guard:  datasource.NewGuard(denyRules, catalogPrefixes),
		cfg:    cfg,
		logger: logger.Named("sqlserver-adapter"),
	}, nil
}

// Connect opens the connection pool and verifies reachability.
// Idempotent: calling Connect on a live pool is a no-op.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return nil
	}

	connURL := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(a.cfg.User, a.cfg.Password),
		Host:   fmt.Sprintf("%s:%d", a.cfg.Host, a.port()),
		RawQuery: url.Values{
			"database": []string{a.cfg.Database},
		}.Encode(),
	}

	db, err := sql.Open("sqlserver", connURL.String())
	if err != nil {
		return &apperrors.ConnectError{Engine: "sqlserver", Err: err}
	}
	db.SetMaxOpenConns(a.cfg.PoolSize)
	db.SetMaxIdleConns(a.cfg.PoolSize / 2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &apperrors.ConnectError{Engine: "sqlserver", Err: err}
	}

	a.db = db
	a.logger.Info("connected",
		zap.String("host", a.cfg.Host),
		zap.String("database", a.cfg.Database),
		zap.Int("pool_size", a.cfg.PoolSize))
	return nil
}

// Close drains and closes the pool. Safe on an already-closed adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// ExecuteQuery runs a single statement and collects its rows.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...any) (*datasource.QueryResult, error) {
	db, err := a.pool()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// QuoteIdentifier quotes a SQL Server identifier with brackets.
func (a *Adapter) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ApplyRowLimit wraps the query with a TOP subselect unless it already
// carries a limiting clause. SQL Server has no LIMIT keyword.
func (a *Adapter) ApplyRowLimit(query string, limit int) string {
	if sqltext.ContainsLimit(query) {
		return query
	}
	return fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited", datasource.ClampLimit(limit), query)
}

// EngineType returns "sqlserver".
func (a *Adapter) EngineType() string {
	return "sqlserver"
}

func (a *Adapter) pool() (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, apperrors.ErrNotConnected
	}
	return a.db, nil
}

func (a *Adapter) port() int {
	if a.cfg.Port > 0 {
		return a.cfg.Port
	}
	return DefaultPort()
}

// collectRows drains a database/sql result into the common shape.
func collectRows(rows *sql.Rows) (*datasource.QueryResult, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	columns := make([]datasource.ResultColumn, len(columnNames))
	for i, name := range columnNames {
		columns[i] = datasource.ResultColumn{
			Name: name,
			Type: columnTypes[i].DatabaseTypeName(),
		}
	}

	resultRows := make([]map[string]any, 0)
	values := make([]any, len(columnNames))
	scanTargets := make([]any, len(columnNames))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			if b, ok := values[i].([]byte); ok {
				rowMap[name] = string(b)
			} else {
				rowMap[name] = values[i]
			}
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &datasource.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// Ensure Adapter implements the full contract at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
