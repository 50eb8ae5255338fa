// Package testhelpers provides shared test fixtures for service and handler
// tests.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// FakeAdapter is an in-memory datasource.Adapter with scripted results.
// Validation uses the real guard so tests exercise the same deny rules as
// production adapters.
type FakeAdapter struct {
	*datasource.Guard

	// Tables, Schemas and Counts back the introspection methods.
	Tables  []datasource.TableInfo
	Schemas map[string]*datasource.TableSchema
	Counts  map[string]int64

	// Result and ExecErr script ExecuteQuery. Delay simulates a slow
	// engine and respects context cancellation.
	Result  *datasource.QueryResult
	ExecErr error
	Delay   time.Duration

	ConnectErr error

	mu        sync.Mutex
	connected bool
	closed    bool
	executed  []string
}

var _ datasource.Adapter = (*FakeAdapter)(nil)

// NewFakeAdapter returns a fake with the base deny rules and no scripted
// state.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		Guard:   datasource.NewGuard(nil, []string{"information_schema."}),
		Schemas: map[string]*datasource.TableSchema{},
		Counts:  map[string]int64{},
	}
}

func (f *FakeAdapter) Connect(ctx context.Context) error {
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *FakeAdapter) Close() error {
	f.mu.Lock()
	f.closed = true
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *FakeAdapter) ExecuteQuery(ctx context.Context, query string, params ...any) (*datasource.QueryResult, error) {
	f.mu.Lock()
	f.executed = append(f.executed, query)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.ExecErr != nil {
		return nil, f.ExecErr
	}
	if f.Result == nil {
		return &datasource.QueryResult{Rows: []map[string]any{}}, nil
	}
	return f.Result, nil
}

func (f *FakeAdapter) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	return f.Tables, nil
}

func (f *FakeAdapter) GetTableSchema(ctx context.Context, table string) (*datasource.TableSchema, error) {
	schema, ok := f.Schemas[table]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", table, apperrors.ErrTableNotFound)
	}
	return schema, nil
}

func (f *FakeAdapter) GetTableCount(ctx context.Context, table string) (int64, error) {
	return f.Counts[table], nil
}

func (f *FakeAdapter) GetForeignKeys(ctx context.Context, table string) ([]datasource.RelationshipEdge, error) {
	schema, ok := f.Schemas[table]
	if !ok {
		return nil, nil
	}
	return schema.ForeignKeys, nil
}

func (f *FakeAdapter) QuoteIdentifier(name string) string {
	return "`" + name + "`"
}

func (f *FakeAdapter) ApplyRowLimit(query string, limit int) string {
	if sqltext.ContainsLimit(query) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, datasource.ClampLimit(limit))
}

func (f *FakeAdapter) EngineType() string { return "fake" }

// ExecutedQueries returns the statements passed to ExecuteQuery, in order.
func (f *FakeAdapter) ExecutedQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	copy(out, f.executed)
	return out
}

// Connected reports whether Connect has been called without a later Close.
func (f *FakeAdapter) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
