package datasource

import "context"

// MaxQueryLimit is the hard cap on rows returned by ExecuteQuery.
// Request-level maxResults above this value are clamped down to it.
const MaxQueryLimit = 1000

// Connector manages the adapter's connection pool lifecycle.
type Connector interface {
	// Connect establishes the connection pool. Idempotent: calling Connect
	// on a live pool is a no-op.
	Connect(ctx context.Context) error

	// Close drains and closes the pool. Safe to call on an already-closed
	// adapter. Intended to run once, after request intake has stopped.
	Close() error
}

// QueryRunner executes a single validated statement.
type QueryRunner interface {
	// ExecuteQuery runs one statement and returns its rows. Never retries.
	ExecuteQuery(ctx context.Context, query string, params ...any) (*QueryResult, error)
}

// CatalogIntrospector reads engine catalog metadata into the common shapes.
type CatalogIntrospector interface {
	// GetTableList returns all user tables, excluding system schemas.
	GetTableList(ctx context.Context) ([]TableInfo, error)

	// GetTableSchema returns the ordered column list and explicit foreign
	// keys for one table.
	GetTableSchema(ctx context.Context, table string) (*TableSchema, error)

	// GetTableCount returns the row count for a table.
	GetTableCount(ctx context.Context, table string) (int64, error)

	// GetForeignKeys returns the catalog-declared foreign key edges for a
	// table. Every returned edge has origin "explicit" and confidence 1.0.
	GetForeignKeys(ctx context.Context, table string) ([]RelationshipEdge, error)
}

// QueryGuard validates candidate query text before execution. Rejections are
// RejectedQueryError values and are terminal: a rejected query is never
// retried.
type QueryGuard interface {
	// SanitizeQuery rejects queries matching the engine's deny-list and
	// returns the normalized statement otherwise.
	SanitizeQuery(query string) (string, error)

	// ValidateSelectQuery runs SanitizeQuery and additionally rejects
	// anything that is not a read-only SELECT.
	ValidateSelectQuery(query string) (string, error)

	// ExtractTableNames returns the lower-cased table names the query
	// references, with system catalog references filtered out.
	ExtractTableNames(query string) []string
}

// Dialect encapsulates engine-specific SQL text construction. No caller ever
// builds a quoted identifier or row cap itself.
type Dialect interface {
	// QuoteIdentifier safely quotes a table or column name.
	QuoteIdentifier(name string) string

	// ApplyRowLimit rewrites the query to return at most limit rows, with
	// the engine's own syntax. Queries that already carry a limiting clause
	// are returned unchanged.
	ApplyRowLimit(query string, limit int) string

	// EngineType returns the registry type, e.g. "mysql".
	EngineType() string
}

// Adapter is the full per-engine contract: connection lifecycle, execution,
// catalog introspection, query validation and SQL dialect.
type Adapter interface {
	Connector
	QueryRunner
	CatalogIntrospector
	QueryGuard
	Dialect
}
