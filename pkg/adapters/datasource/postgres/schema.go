package postgres

import (
	"context"
	"fmt"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

// GetTableList returns all public base tables with comments and the
// planner's row estimates from pg_class.reltuples.
func (a *Adapter) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	pool, err := a.livePool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT t.table_name,
		       COALESCE(obj_description(c.oid), '') AS comment,
		       COALESCE(c.reltuples::bigint, 0) AS estimated_rows
		FROM information_schema.tables t
		LEFT JOIN pg_class c ON c.relname = t.table_name
		LEFT JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = t.table_schema
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_name`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableInfo
	for rows.Next() {
		var t datasource.TableInfo
		if err := rows.Scan(&t.Name, &t.Comment, &t.EstimatedRows); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		if t.EstimatedRows < 0 {
			// reltuples is -1 for never-analyzed tables
			t.EstimatedRows = 0
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetTableSchema returns the ordered column list and explicit FK edges for a
// table. Primary key detection uses pg_index.indisprimary, which is correct
// even when the constraint name is non-standard.
func (a *Adapter) GetTableSchema(ctx context.Context, table string) (*datasource.TableSchema, error) {
	pool, err := a.livePool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       COALESCE(pk.is_pk, false),
		       COALESCE(uq.is_unique, false),
		       COALESCE(col_description(cls.oid, c.ordinal_position), ''),
		       COALESCE(c.character_maximum_length, 0)
		FROM information_schema.columns c
		LEFT JOIN pg_class cls ON cls.relname = c.table_name
		LEFT JOIN pg_namespace ns ON ns.oid = cls.relnamespace AND ns.nspname = c.table_schema
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_pk
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE t.relname = $1 AND ix.indisprimary
		) pk ON pk.column_name = c.column_name
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_unique
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE t.relname = $1 AND ix.indisunique AND NOT ix.indisprimary
		) uq ON uq.column_name = c.column_name
		WHERE c.table_name = $1
		  AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY c.ordinal_position`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("get columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			col      datasource.ColumnInfo
			isPK     bool
			isUnique bool
		)
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &isPK, &isUnique, &col.Comment, &col.MaxLength); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		switch {
		case isPK:
			col.Key = datasource.KeyPrimary
		case isUnique:
			col.Key = datasource.KeyUnique
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrTableNotFound, table)
	}

	fks, err := a.GetForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	return &datasource.TableSchema{
		Name:        table,
		Columns:     columns,
		ForeignKeys: fks,
	}, nil
}

// GetTableCount returns the exact row count for a table.
func (a *Adapter) GetTableCount(ctx context.Context, table string) (int64, error) {
	pool, err := a.livePool()
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.QuoteIdentifier(table))
	if err := pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// GetForeignKeys returns the catalog-declared FK edges for a table.
func (a *Adapter) GetForeignKeys(ctx context.Context, table string) ([]datasource.RelationshipEdge, error) {
	pool, err := a.livePool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_name = $1
		  AND tc.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`

	rows, err := pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("get foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var edges []datasource.RelationshipEdge
	for rows.Next() {
		edge := datasource.RelationshipEdge{
			SourceTable: table,
			Confidence:  1.0,
			Origin:      datasource.OriginExplicit,
		}
		if err := rows.Scan(&edge.SourceColumn, &edge.TargetTable, &edge.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

var _ datasource.CatalogIntrospector = (*Adapter)(nil)
