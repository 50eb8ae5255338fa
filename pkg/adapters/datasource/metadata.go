package datasource

// KeyRole describes a column's role in table keys.
type KeyRole string

const (
	KeyNone    KeyRole = ""
	KeyPrimary KeyRole = "primary"
	KeyUnique  KeyRole = "unique"
	KeyIndexed KeyRole = "indexed"
)

// EdgeOrigin tags how a relationship edge was produced.
type EdgeOrigin string

const (
	// OriginExplicit marks an edge read from catalog FK metadata.
	// Explicit edges always have confidence 1.0.
	OriginExplicit EdgeOrigin = "explicit"
	// OriginIDSuffix marks an edge inferred from a *_id column name.
	OriginIDSuffix EdgeOrigin = "id_suffix"
	// OriginTablePrefix marks an edge inferred from a <table>_<suffix> column name.
	OriginTablePrefix EdgeOrigin = "table_prefix"
	// OriginSemantic marks an edge inferred from a conventional column name.
	OriginSemantic EdgeOrigin = "semantic_pattern"
)

// ColumnInfo describes one column as reported by the engine catalog.
// Refreshed on every schema fetch, never cached indefinitely.
type ColumnInfo struct {
	Name      string  `json:"name"`
	DataType  string  `json:"data_type"`
	Nullable  bool    `json:"nullable"`
	Key       KeyRole `json:"key,omitempty"`
	Comment   string  `json:"comment,omitempty"`
	MaxLength int     `json:"max_length,omitempty"` // 0 when not applicable
}

// TableInfo is a catalog listing entry.
type TableInfo struct {
	Name          string `json:"name"`
	Comment       string `json:"comment,omitempty"`
	EstimatedRows int64  `json:"estimated_rows"`
}

// TableSchema is one table's ordered columns plus its explicit FK edges.
type TableSchema struct {
	Name        string             `json:"name"`
	Columns     []ColumnInfo       `json:"columns"`
	ForeignKeys []RelationshipEdge `json:"foreign_keys"`
}

// RelationshipEdge is a directed table/column relationship, either declared
// in the catalog or inferred from naming conventions. Inferred edges never
// exceed confidence 0.9.
type RelationshipEdge struct {
	SourceTable  string     `json:"source_table"`
	SourceColumn string     `json:"source_column"`
	TargetTable  string     `json:"target_table"`
	TargetColumn string     `json:"target_column"`
	Confidence   float64    `json:"confidence"`
	Origin       EdgeOrigin `json:"origin"`
}

// ResultColumn describes a result column with the engine's type name.
type ResultColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds the rows returned by ExecuteQuery.
type QueryResult struct {
	Columns  []ResultColumn   `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}
