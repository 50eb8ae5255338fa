package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/testhelpers"
)

func intColumn(name string, key datasource.KeyRole) datasource.ColumnInfo {
	return datasource.ColumnInfo{Name: name, DataType: "int", Key: key}
}

func shopFixture() *testhelpers.FakeAdapter {
	fake := testhelpers.NewFakeAdapter()
	fake.Schemas["users"] = &datasource.TableSchema{
		Name: "users",
		Columns: []datasource.ColumnInfo{
			intColumn("id", datasource.KeyPrimary),
			{Name: "name", DataType: "varchar"},
		},
	}
	fake.Schemas["orders"] = &datasource.TableSchema{
		Name: "orders",
		Columns: []datasource.ColumnInfo{
			intColumn("id", datasource.KeyPrimary),
			intColumn("user_id", datasource.KeyIndexed),
			{Name: "total", DataType: "decimal"},
		},
	}
	return fake
}

func TestAnalyzeRelationships_IDSuffix(t *testing.T) {
	analyzer := NewSchemaAnalyzer(shopFixture(), nil)

	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"users", "orders"})
	require.NoError(t, err)

	require.Len(t, edges, 1)
	edge := edges[0]
	assert.Equal(t, "orders", edge.SourceTable)
	assert.Equal(t, "user_id", edge.SourceColumn)
	assert.Equal(t, "users", edge.TargetTable)
	assert.Equal(t, "id", edge.TargetColumn)
	assert.Equal(t, datasource.OriginIDSuffix, edge.Origin)
	assert.Equal(t, 0.9, edge.Confidence)
}

func TestAnalyzeRelationships_ExplicitBeatsInferred(t *testing.T) {
	fake := shopFixture()
	fake.Schemas["orders"].ForeignKeys = []datasource.RelationshipEdge{{
		SourceTable:  "orders",
		SourceColumn: "user_id",
		TargetTable:  "users",
		TargetColumn: "id",
		Confidence:   1.0,
		Origin:       datasource.OriginExplicit,
	}}

	analyzer := NewSchemaAnalyzer(fake, nil)
	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"users", "orders"})
	require.NoError(t, err)

	require.Len(t, edges, 1)
	assert.Equal(t, datasource.OriginExplicit, edges[0].Origin)
	assert.Equal(t, 1.0, edges[0].Confidence)
}

func TestAnalyzeRelationships_TypeMismatchSkipped(t *testing.T) {
	fake := shopFixture()
	fake.Schemas["orders"].Columns[1].DataType = "varchar"

	analyzer := NewSchemaAnalyzer(fake, nil)
	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"users", "orders"})
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestAnalyzeRelationships_PluralVariant(t *testing.T) {
	fake := testhelpers.NewFakeAdapter()
	fake.Schemas["companies"] = &datasource.TableSchema{
		Name:    "companies",
		Columns: []datasource.ColumnInfo{intColumn("id", datasource.KeyPrimary)},
	}
	fake.Schemas["employees"] = &datasource.TableSchema{
		Name: "employees",
		Columns: []datasource.ColumnInfo{
			intColumn("id", datasource.KeyPrimary),
			intColumn("company_id", datasource.KeyIndexed),
		},
	}

	analyzer := NewSchemaAnalyzer(fake, nil)
	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"companies", "employees"})
	require.NoError(t, err)

	require.Len(t, edges, 1)
	assert.Equal(t, "companies", edges[0].TargetTable)
	assert.Equal(t, datasource.OriginIDSuffix, edges[0].Origin)
}

func TestAnalyzeRelationships_SortedByConfidence(t *testing.T) {
	fake := testhelpers.NewFakeAdapter()
	fake.Schemas["users"] = &datasource.TableSchema{
		Name:    "users",
		Columns: []datasource.ColumnInfo{intColumn("id", datasource.KeyPrimary)},
	}
	fake.Schemas["audit"] = &datasource.TableSchema{
		Name: "audit",
		Columns: []datasource.ColumnInfo{
			intColumn("id", datasource.KeyPrimary),
			intColumn("created_by", datasource.KeyNone),
			intColumn("user_id", datasource.KeyIndexed),
		},
	}

	analyzer := NewSchemaAnalyzer(fake, nil)
	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"users", "audit"})
	require.NoError(t, err)

	require.Len(t, edges, 2)
	assert.Equal(t, datasource.OriginIDSuffix, edges[0].Origin)
	assert.Equal(t, datasource.OriginSemantic, edges[1].Origin)
	assert.GreaterOrEqual(t, edges[0].Confidence, edges[1].Confidence)
}

func TestAnalyzeRelationships_CachesPerTableSet(t *testing.T) {
	fake := shopFixture()
	analyzer := NewSchemaAnalyzer(fake, nil)

	_, err := analyzer.AnalyzeRelationships(context.Background(), []string{"users", "orders"})
	require.NoError(t, err)

	// Drop the backing schema; the cached result must still be served.
	delete(fake.Schemas, "orders")

	edges, err := analyzer.AnalyzeRelationships(context.Background(), []string{"orders", "users"})
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	// Invalidation forces a reload, which now fails.
	analyzer.ClearCache()
	_, err = analyzer.AnalyzeRelationships(context.Background(), []string{"users", "orders"})
	assert.Error(t, err)
}

func TestSuggestJoins_OnlyEdgesWithinSet(t *testing.T) {
	fake := shopFixture()
	fake.Schemas["products"] = &datasource.TableSchema{
		Name:    "products",
		Columns: []datasource.ColumnInfo{intColumn("id", datasource.KeyPrimary)},
	}

	analyzer := NewSchemaAnalyzer(fake, nil)
	suggestions, err := analyzer.SuggestJoins(context.Background(), []string{"users", "orders"})
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "orders", suggestions[0].SourceTable)
	assert.Equal(t, "users", suggestions[0].TargetTable)
}
