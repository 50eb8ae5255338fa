package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
)

// Relevance scoring weights for FindRelevantTables.
const (
	tableNameScore  = 5
	columnNameScore = 2
	commentScore    = 1
	topRelevant     = 3
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// GetEnhancedSchema renders a human-readable schema description for the
// allow-listed tables: columns with type/nullability/key markers, explicit
// and detected relationships, and one sample row per table. The output is
// intended for embedding into an LLM prompt.
func (m *Manager) GetEnhancedSchema(ctx context.Context, settings models.QuerySettings) (string, error) {
	tables := sortedAllowList(settings)
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables enabled")
	}

	edges, err := m.analyzer.AnalyzeRelationships(ctx, tables)
	if err != nil {
		// Relationships are enrichment; the schema text is still useful
		// without them.
		m.logger.Warn("relationship analysis failed", zap.Error(err))
		edges = nil
	}

	var b strings.Builder
	for _, table := range tables {
		schema, err := m.adapter.GetTableSchema(ctx, table)
		if err != nil {
			return "", fmt.Errorf("describe table %s: %w", table, err)
		}

		fmt.Fprintf(&b, "Table: %s\n", schema.Name)
		for _, col := range schema.Columns {
			b.WriteString("  - ")
			b.WriteString(col.Name)
			b.WriteString(" ")
			b.WriteString(columnTypeLabel(col))
			if !col.Nullable {
				b.WriteString(" NOT NULL")
			}
			switch col.Key {
			case datasource.KeyPrimary:
				b.WriteString(" [primary key]")
			case datasource.KeyUnique:
				b.WriteString(" [unique]")
			case datasource.KeyIndexed:
				b.WriteString(" [indexed]")
			}
			if col.Comment != "" {
				fmt.Fprintf(&b, " -- %s", col.Comment)
			}
			b.WriteString("\n")
		}

		writeRelationshipSections(&b, schema.Name, edges)

		if sample := m.sampleRow(ctx, schema.Name); sample != "" {
			fmt.Fprintf(&b, "Sample data: %s\n", sample)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// FindRelevantTables scores the allow-listed tables against the free-text
// question by token overlap: table-name match 5 points, column-name match 2,
// comment-token match 1. Near misses within edit distance one count as
// matches. Returns the top three table names.
func (m *Manager) FindRelevantTables(ctx context.Context, freeText string, settings models.QuerySettings) ([]string, error) {
	tables := sortedAllowList(settings)
	tokens := questionTokens(freeText)
	if len(tokens) == 0 || len(tables) == 0 {
		return nil, nil
	}

	type scored struct {
		table string
		score int
	}
	var results []scored

	for _, table := range tables {
		schema, err := m.adapter.GetTableSchema(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("describe table %s: %w", table, err)
		}

		score := 0
		for _, token := range tokens {
			if tokenMatches(token, strings.ToLower(schema.Name)) {
				score += tableNameScore
			}
			for _, col := range schema.Columns {
				if tokenMatches(token, strings.ToLower(col.Name)) {
					score += columnNameScore
				}
				if col.Comment != "" && containsToken(col.Comment, token) {
					score += commentScore
				}
			}
		}
		if score > 0 {
			results = append(results, scored{table: schema.Name, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	names := make([]string, 0, topRelevant)
	for i, r := range results {
		if i >= topRelevant {
			break
		}
		names = append(names, r.table)
	}
	return names, nil
}

func (m *Manager) sampleRow(ctx context.Context, table string) string {
	query := m.adapter.ApplyRowLimit("SELECT * FROM "+m.adapter.QuoteIdentifier(table), 1)
	result, err := m.adapter.ExecuteQuery(ctx, query)
	if err != nil || result.RowCount == 0 {
		return ""
	}
	encoded, err := json.Marshal(result.Rows[0])
	if err != nil {
		return ""
	}
	return string(encoded)
}

func writeRelationshipSections(b *strings.Builder, table string, edges []datasource.RelationshipEdge) {
	var explicit, implicit []datasource.RelationshipEdge
	for _, edge := range edges {
		if !strings.EqualFold(edge.SourceTable, table) {
			continue
		}
		if edge.Origin == datasource.OriginExplicit {
			explicit = append(explicit, edge)
		} else {
			implicit = append(implicit, edge)
		}
	}

	if len(explicit) > 0 {
		b.WriteString("Explicit Relationships:\n")
		for _, edge := range explicit {
			fmt.Fprintf(b, "  %s.%s -> %s.%s\n", edge.SourceTable, edge.SourceColumn, edge.TargetTable, edge.TargetColumn)
		}
	}
	if len(implicit) > 0 {
		b.WriteString("Implicit Relationships (detected):\n")
		for _, edge := range implicit {
			fmt.Fprintf(b, "  %s.%s -> %s.%s (%s, confidence %.1f)\n",
				edge.SourceTable, edge.SourceColumn, edge.TargetTable, edge.TargetColumn, edge.Origin, edge.Confidence)
		}
	}
}

func columnTypeLabel(col datasource.ColumnInfo) string {
	if col.MaxLength > 0 {
		return fmt.Sprintf("%s(%d)", col.DataType, col.MaxLength)
	}
	return col.DataType
}

func sortedAllowList(settings models.QuerySettings) []string {
	allowed := settings.AllowList()
	tables := make([]string, 0, len(allowed))
	for table := range allowed {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

func questionTokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) >= 3 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// tokenMatches accepts exact, substring, and edit-distance-one matches so
// "order" still hits "orders" and small typos do not zero the score.
func tokenMatches(token, name string) bool {
	if token == name || strings.Contains(name, token) {
		return true
	}
	return levenshtein.DistanceForStrings([]rune(token), []rune(name), levenshtein.DefaultOptions) <= 1
}

func containsToken(comment, token string) bool {
	for _, word := range tokenPattern.FindAllString(strings.ToLower(comment), -1) {
		if word == token {
			return true
		}
	}
	return false
}
