// Package postgres implements the datasource.Adapter contract for PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// Adapter provides PostgreSQL connection lifecycle, execution, introspection
// and validation on top of pgxpool.
type Adapter struct {
	*datasource.Guard

	cfg    *datasource.EngineConfig
	logger *zap.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewAdapter creates a PostgreSQL adapter. The pool is not opened until
// Connect. If logger is nil, a no-op logger is used.
func NewAdapter(cfg *datasource.EngineConfig, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		Guard:  datasource.NewGuard(denyRules, catalogPrefixes),
		cfg:    cfg,
		logger: logger.Named("postgres-adapter"),
	}, nil
}

// Connect opens the pgx pool and verifies reachability.
// Idempotent: calling Connect on a live pool is a no-op.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pool != nil {
		return nil
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?pool_max_conns=%d",
		a.cfg.User, a.cfg.Password, a.cfg.Host, a.port(), a.cfg.Database, a.cfg.PoolSize)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return &apperrors.ConnectError{Engine: "postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return &apperrors.ConnectError{Engine: "postgres", Err: err}
	}

	a.pool = pool
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

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return nil
}

// ExecuteQuery runs a single statement and collects its rows.
func (a *Adapter) ExecuteQuery(ctx context.Context, query string, params ...any) (*datasource.QueryResult, error) {
	pool, err := a.livePool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.ResultColumn, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ResultColumn{
			Name: fd.Name,
			Type: typeNameFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
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

// QuoteIdentifier quotes a PostgreSQL identifier with double quotes.
func (a *Adapter) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// ApplyRowLimit appends a LIMIT clause unless the query already has one.
func (a *Adapter) ApplyRowLimit(query string, limit int) string {
	if sqltext.ContainsLimit(query) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, datasource.ClampLimit(limit))
}

// EngineType returns "postgres".
func (a *Adapter) EngineType() string {
	return "postgres"
}

func (a *Adapter) livePool() (*pgxpool.Pool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pool == nil {
		return nil, apperrors.ErrNotConnected
	}
	return a.pool, nil
}

func (a *Adapter) port() int {
	if a.cfg.Port > 0 {
		return a.cfg.Port
	}
	return DefaultPort()
}

// typeNameFromOID maps common PostgreSQL type OIDs to readable type names.
func typeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 114:
		return "JSON"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}

// Ensure Adapter implements the full contract at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
