package mysql

import (
	"context"
	"fmt"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

// GetTableList returns all base tables in the configured database with their
// comments and the optimizer's row estimates.
func (a *Adapter) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	db, err := a.pool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT table_name, COALESCE(table_comment, ''), COALESCE(table_rows, 0)
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query)
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
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetTableSchema returns the ordered column list and explicit FK edges for a
// table.
func (a *Adapter) GetTableSchema(ctx context.Context, table string) (*datasource.TableSchema, error) {
	db, err := a.pool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT column_name, data_type, is_nullable, column_key,
		       COALESCE(column_comment, ''), COALESCE(character_maximum_length, 0)
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("get columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			col        datasource.ColumnInfo
			isNullable string
			columnKey  string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &columnKey, &col.Comment, &col.MaxLength); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.Nullable = isNullable == "YES"
		col.Key = keyRoleFromColumnKey(columnKey)
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
	db, err := a.pool()
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.QuoteIdentifier(table))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// GetForeignKeys returns the catalog-declared FK edges for a table.
func (a *Adapter) GetForeignKeys(ctx context.Context, table string) ([]datasource.RelationshipEdge, error) {
	db, err := a.pool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, table)
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

func keyRoleFromColumnKey(columnKey string) datasource.KeyRole {
	switch columnKey {
	case "PRI":
		return datasource.KeyPrimary
	case "UNI":
		return datasource.KeyUnique
	case "MUL":
		return datasource.KeyIndexed
	default:
		return datasource.KeyNone
	}
}

var _ datasource.CatalogIntrospector = (*Adapter)(nil)
