package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

// semanticPatterns maps conventional column names to candidate target tables.
// Matches are still gated by type compatibility and produce the lowest
// inference confidence.
var semanticPatterns = map[string][]string{
	"customer_id": {"customers", "customer"},
	"user_id":     {"users", "user"},
	"created_by":  {"users", "user"},
	"updated_by":  {"users", "user"},
	"deleted_by":  {"users", "user"},
	"owner_id":    {"users", "owners"},
	"author_id":   {"users", "authors"},
	"product_id":  {"products", "product"},
	"order_id":    {"orders", "order"},
	"category_id": {"categories", "category"},
	"company_id":  {"companies", "company"},
	"account_id":  {"accounts", "account"},
}

// Inference confidence per method. Explicit catalog edges are always 1.0 and
// never produced here; inferred edges never exceed 0.9.
const (
	confidenceIDSuffix    = 0.9
	confidenceTablePrefix = 0.8
	confidenceSemantic    = 0.7
)

// SchemaAnalyzer infers foreign-key-like relationships the schema does not
// declare. Results are cached per table set and must be explicitly
// invalidated when the allow-list or the schema changes; staleness here is a
// correctness risk accepted to avoid repeated catalog scans on every query.
type SchemaAnalyzer struct {
	introspector datasource.CatalogIntrospector
	logger       *zap.Logger

	mu    sync.Mutex
	cache map[string][]datasource.RelationshipEdge
}

// NewSchemaAnalyzer creates a SchemaAnalyzer over the given introspector.
// If logger is nil, a no-op logger is used.
func NewSchemaAnalyzer(introspector datasource.CatalogIntrospector, logger *zap.Logger) *SchemaAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaAnalyzer{
		introspector: introspector,
		logger:       logger.Named("schema-analyzer"),
		cache:        make(map[string][]datasource.RelationshipEdge),
	}
}

// AnalyzeRelationships returns the explicit plus inferred edges among the
// given tables, sorted by descending confidence. Three independent inference
// methods run per column; duplicate edges keep the highest-confidence origin.
func (sa *SchemaAnalyzer) AnalyzeRelationships(ctx context.Context, tables []string) ([]datasource.RelationshipEdge, error) {
	key := cacheKeyForTables(tables)

	sa.mu.Lock()
	if cached, ok := sa.cache[key]; ok {
		sa.mu.Unlock()
		return cached, nil
	}
	sa.mu.Unlock()

	schemas, err := sa.loadSchemas(ctx, tables)
	if err != nil {
		return nil, err
	}

	var candidates []datasource.RelationshipEdge
	for _, schema := range schemas {
		candidates = append(candidates, schema.ForeignKeys...)
		for _, col := range schema.Columns {
			candidates = append(candidates, sa.inferByIDSuffix(schema, col, schemas)...)
			candidates = append(candidates, sa.inferByTablePrefix(schema, col, schemas)...)
			candidates = append(candidates, sa.inferBySemanticPattern(schema, col, schemas)...)
		}
	}

	edges := dedupeEdges(candidates)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Confidence > edges[j].Confidence
	})

	sa.mu.Lock()
	sa.cache[key] = edges
	sa.mu.Unlock()

	sa.logger.Debug("analyzed relationships",
		zap.Int("tables", len(schemas)),
		zap.Int("edges", len(edges)))
	return edges, nil
}

// SuggestJoins returns the known edges connecting any two of the given
// tables. Advisory only: suggestions are logged and surfaced, never rewritten
// into the query.
func (sa *SchemaAnalyzer) SuggestJoins(ctx context.Context, tables []string) ([]datasource.RelationshipEdge, error) {
	edges, err := sa.AnalyzeRelationships(ctx, tables)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		wanted[strings.ToLower(t)] = struct{}{}
	}

	var suggestions []datasource.RelationshipEdge
	for _, edge := range edges {
		_, srcOK := wanted[strings.ToLower(edge.SourceTable)]
		_, dstOK := wanted[strings.ToLower(edge.TargetTable)]
		if srcOK && dstOK {
			suggestions = append(suggestions, edge)
		}
	}
	return suggestions, nil
}

// ClearCache invalidates all cached analysis. Call when the allow-list or
// the underlying schema changes.
func (sa *SchemaAnalyzer) ClearCache() {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.cache = make(map[string][]datasource.RelationshipEdge)
}

func (sa *SchemaAnalyzer) loadSchemas(ctx context.Context, tables []string) (map[string]*datasource.TableSchema, error) {
	schemas := make(map[string]*datasource.TableSchema, len(tables))
	for _, table := range tables {
		schema, err := sa.introspector.GetTableSchema(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("load schema for %s: %w", table, err)
		}
		schemas[strings.ToLower(schema.Name)] = schema
	}
	return schemas, nil
}

// inferByIDSuffix matches columns named *_id against singular/plural spelling
// variants of the prefix ("companie" vs "company" handled by the inflection
// library).
func (sa *SchemaAnalyzer) inferByIDSuffix(schema *datasource.TableSchema, col datasource.ColumnInfo, schemas map[string]*datasource.TableSchema) []datasource.RelationshipEdge {
	name := strings.ToLower(col.Name)
	if !strings.HasSuffix(name, "_id") || name == "_id" {
		return nil
	}
	prefix := strings.TrimSuffix(name, "_id")

	for _, candidate := range nameVariants(prefix) {
		target, ok := schemas[candidate]
		if !ok || target.Name == schema.Name {
			continue
		}
		pk := primaryKeyColumn(target)
		if pk == nil || !typesCompatible(col.DataType, pk.DataType) {
			continue
		}
		return []datasource.RelationshipEdge{{
			SourceTable:  schema.Name,
			SourceColumn: col.Name,
			TargetTable:  target.Name,
			TargetColumn: pk.Name,
			Confidence:   confidenceIDSuffix,
			Origin:       datasource.OriginIDSuffix,
		}}
	}
	return nil
}

// inferByTablePrefix matches columns named <tablename>_<suffix> for any other
// known table against that table's primary key.
func (sa *SchemaAnalyzer) inferByTablePrefix(schema *datasource.TableSchema, col datasource.ColumnInfo, schemas map[string]*datasource.TableSchema) []datasource.RelationshipEdge {
	name := strings.ToLower(col.Name)

	var edges []datasource.RelationshipEdge
	for tableName, target := range schemas {
		if target.Name == schema.Name {
			continue
		}
		if !strings.HasPrefix(name, tableName+"_") {
			continue
		}
		pk := primaryKeyColumn(target)
		if pk == nil || !typesCompatible(col.DataType, pk.DataType) {
			continue
		}
		edges = append(edges, datasource.RelationshipEdge{
			SourceTable:  schema.Name,
			SourceColumn: col.Name,
			TargetTable:  target.Name,
			TargetColumn: pk.Name,
			Confidence:   confidenceTablePrefix,
			Origin:       datasource.OriginTablePrefix,
		})
	}
	return edges
}

// inferBySemanticPattern maps conventional column names directly to candidate
// target tables.
func (sa *SchemaAnalyzer) inferBySemanticPattern(schema *datasource.TableSchema, col datasource.ColumnInfo, schemas map[string]*datasource.TableSchema) []datasource.RelationshipEdge {
	targets, ok := semanticPatterns[strings.ToLower(col.Name)]
	if !ok {
		return nil
	}

	for _, candidate := range targets {
		target, ok := schemas[candidate]
		if !ok || target.Name == schema.Name {
			continue
		}
		pk := primaryKeyColumn(target)
		if pk == nil || !typesCompatible(col.DataType, pk.DataType) {
			continue
		}
		return []datasource.RelationshipEdge{{
			SourceTable:  schema.Name,
			SourceColumn: col.Name,
			TargetTable:  target.Name,
			TargetColumn: pk.Name,
			Confidence:   confidenceSemantic,
			Origin:       datasource.OriginSemantic,
		}}
	}
	return nil
}

// nameVariants returns candidate table names for a column prefix, in match
// priority order.
func nameVariants(prefix string) []string {
	variants := []string{prefix}
	seen := map[string]struct{}{prefix: {}}
	for _, v := range []string{inflection.Plural(prefix), inflection.Singular(prefix)} {
		v = strings.ToLower(v)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			variants = append(variants, v)
		}
	}
	return variants
}

// primaryKeyColumn returns the table's primary key column, falling back to a
// column named "id" when the catalog declares no key.
func primaryKeyColumn(schema *datasource.TableSchema) *datasource.ColumnInfo {
	for i := range schema.Columns {
		if schema.Columns[i].Key == datasource.KeyPrimary {
			return &schema.Columns[i]
		}
	}
	for i := range schema.Columns {
		if strings.EqualFold(schema.Columns[i].Name, "id") {
			return &schema.Columns[i]
		}
	}
	return nil
}

// typeClass buckets engine type names into equivalence classes so an INT4
// column can reference a BIGINT key. Exact string equality is too strict
// across engines.
func typeClass(dataType string) string {
	t := strings.ToLower(dataType)
	switch {
	case strings.Contains(t, "int") || strings.Contains(t, "serial") ||
		strings.Contains(t, "numeric") || strings.Contains(t, "decimal") ||
		strings.Contains(t, "number"):
		return "integer"
	case strings.Contains(t, "char") || strings.Contains(t, "text") ||
		strings.Contains(t, "string") || strings.Contains(t, "uuid") ||
		strings.Contains(t, "uniqueidentifier"):
		return "string"
	case strings.Contains(t, "float") || strings.Contains(t, "double") ||
		strings.Contains(t, "real"):
		return "float"
	case strings.Contains(t, "date") || strings.Contains(t, "time"):
		return "temporal"
	default:
		return t
	}
}

func typesCompatible(a, b string) bool {
	return typeClass(a) == typeClass(b)
}

// dedupeEdges collapses identical (source, target) pairs keeping the
// highest-confidence origin, so an explicit FK is never shadowed by an
// inferred duplicate.
func dedupeEdges(edges []datasource.RelationshipEdge) []datasource.RelationshipEdge {
	best := make(map[string]datasource.RelationshipEdge, len(edges))
	order := make([]string, 0, len(edges))
	for _, edge := range edges {
		key := strings.ToLower(edge.SourceTable + "." + edge.SourceColumn + ">" + edge.TargetTable + "." + edge.TargetColumn)
		existing, ok := best[key]
		if !ok {
			best[key] = edge
			order = append(order, key)
			continue
		}
		if edge.Confidence > existing.Confidence {
			best[key] = edge
		}
	}

	result := make([]datasource.RelationshipEdge, 0, len(best))
	for _, key := range order {
		result = append(result, best[key])
	}
	return result
}

func cacheKeyForTables(tables []string) string {
	lowered := make([]string, len(tables))
	for i, t := range tables {
		lowered[i] = strings.ToLower(t)
	}
	sort.Strings(lowered)
	return strings.Join(lowered, ",")
}
