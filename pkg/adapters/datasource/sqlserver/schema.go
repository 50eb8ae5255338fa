package sqlserver

import (
	"context"
	"fmt"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

// GetTableList returns all user tables with row estimates from
// sys.partitions. SQL Server has no lightweight table comment; Comment stays
// empty.
func (a *Adapter) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	db, err := a.pool()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT t.name, COALESCE(SUM(p.rows), 0)
		FROM sys.tables t
		LEFT JOIN sys.partitions p ON p.object_id = t.object_id AND p.index_id IN (0, 1)
		WHERE t.is_ms_shipped = 0
		GROUP BY t.name
		ORDER BY t.name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.TableInfo
	for rows.Next() {
		var t datasource.TableInfo
		if err := rows.Scan(&t.Name, &t.EstimatedRows); err != nil {
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
		SELECT c.COLUMN_NAME,
		       c.DATA_TYPE,
		       CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
		       CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 'primary'
		            WHEN uq.COLUMN_NAME IS NOT NULL THEN 'unique'
		            ELSE '' END,
		       COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0)
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT kcu.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			  ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_NAME = @p1
		) pk ON pk.COLUMN_NAME = c.COLUMN_NAME
		LEFT JOIN (
			SELECT kcu.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			  ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'UNIQUE' AND tc.TABLE_NAME = @p1
		) uq ON uq.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("get columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.ColumnInfo
	for rows.Next() {
		var (
			col      datasource.ColumnInfo
			nullable int
			keyRole  string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &keyRole, &col.MaxLength); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.Nullable = nullable == 1
		col.Key = datasource.KeyRole(keyRole)
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
		SELECT cp.name, tr.name, cr.name
		FROM sys.foreign_key_columns fkc
		JOIN sys.tables tp ON tp.object_id = fkc.parent_object_id
		JOIN sys.columns cp ON cp.object_id = fkc.parent_object_id AND cp.column_id = fkc.parent_column_id
		JOIN sys.tables tr ON tr.object_id = fkc.referenced_object_id
		JOIN sys.columns cr ON cr.object_id = fkc.referenced_object_id AND cr.column_id = fkc.referenced_column_id
		WHERE tp.name = @p1`

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

var _ datasource.CatalogIntrospector = (*Adapter)(nil)
