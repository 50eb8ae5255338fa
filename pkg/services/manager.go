package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/logging"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

const (
	// DefaultCacheTTL is how long a cached result stays valid. Caching
	// introduces bounded staleness by design; results are read-only
	// analytical snapshots.
	DefaultCacheTTL = 60 * time.Second
	// DefaultCacheSize is the soft bound on cached entries.
	DefaultCacheSize = 100
)

// ManagerOptions tunes the manager's caching and timing behavior.
// Zero values fall back to defaults.
type ManagerOptions struct {
	CacheTTL           time.Duration
	CacheSize          int
	SlowQueryThreshold time.Duration
	// QueryTimeout bounds each adapter execution. Zero means no deadline
	// beyond the caller's context.
	QueryTimeout time.Duration
}

type cachedResult struct {
	data            []map[string]any
	columns         []datasource.ResultColumn
	insights        []models.Insight
	joinSuggestions []datasource.RelationshipEdge
}

// Manager owns the active adapter, enforces the table allow-list, caches
// results and wires the analyzer, monitor and insight engine together around
// ExecuteSafeQuery.
type Manager struct {
	adapter  datasource.Adapter
	analyzer *SchemaAnalyzer
	monitor  *PerformanceMonitor
	insights *InsightEngine
	logger   *zap.Logger
	opts     ManagerOptions

	cache *expirable.LRU[string, *cachedResult]
}

// NewManager wires a manager around the given adapter. If logger is nil, a
// no-op logger is used.
func NewManager(adapter datasource.Adapter, opts ManagerOptions, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	return &Manager{
		adapter:  adapter,
		analyzer: NewSchemaAnalyzer(adapter, logger),
		monitor:  NewPerformanceMonitor(opts.SlowQueryThreshold, logger),
		insights: NewInsightEngine(logger),
		logger:   logger.Named("db-manager"),
		opts:     opts,
		cache:    expirable.NewLRU[string, *cachedResult](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Initialize connects the adapter. Fatal on failure; not retried here.
func (m *Manager) Initialize(ctx context.Context) error {
	return m.adapter.Connect(ctx)
}

// Shutdown closes the adapter. Expected to run once, after request intake
// has stopped.
func (m *Manager) Shutdown() error {
	return m.adapter.Close()
}

// InvalidateSchemaCache drops cached relationship analysis. Call when the
// underlying schema changes.
func (m *Manager) InvalidateSchemaCache() {
	m.analyzer.ClearCache()
}

// ExecuteSafeQuery validates, authorizes, executes and enriches a candidate
// query under the caller's allow-list and row cap.
//
// Validation and authorization failures are terminal and surfaced; the
// enrichment subsystems (join suggestions, performance recording, insights)
// are best-effort and never prevent returning valid data.
func (m *Manager) ExecuteSafeQuery(ctx context.Context, query string, settings models.QuerySettings) (*models.SafeQueryResult, error) {
	cacheKey := m.cacheKey(query, settings)

	if cached, ok := m.cache.Get(cacheKey); ok {
		m.monitor.Record(query, 0, len(cached.data), true)
		return &models.SafeQueryResult{
			Data:            cached.data,
			Columns:         cached.columns,
			Insights:        cached.insights,
			JoinSuggestions: cached.joinSuggestions,
			ExecutionTimeMs: 0,
			Cached:          true,
		}, nil
	}

	sanitized, err := m.adapter.ValidateSelectQuery(query)
	if err != nil {
		rejectedQueriesTotal.Inc()
		m.logger.Warn("query rejected",
			zap.String("query", logging.TruncateQuery(query)),
			zap.Error(err))
		return nil, err
	}

	tables := m.adapter.ExtractTableNames(sanitized)
	if denied := deniedTables(tables, settings.AllowList()); len(denied) > 0 {
		accessDeniedTotal.Inc()
		m.logger.Warn("allow-list violation",
			zap.Strings("tables", denied))
		return nil, &apperrors.AccessDeniedError{Tables: denied}
	}

	// Join suggestions are advisory only: logged and attached, never
	// rewritten into the query, to avoid silently changing its semantics.
	var joinSuggestions []datasource.RelationshipEdge
	if len(tables) >= 2 && !strings.Contains(strings.ToLower(sanitized), "join") {
		suggestions, err := m.analyzer.SuggestJoins(ctx, tables)
		if err != nil {
			m.logger.Warn("join suggestion failed", zap.Error(err))
		} else if len(suggestions) > 0 {
			joinSuggestions = suggestions
			m.logger.Info("join suggestions available",
				zap.Strings("tables", tables),
				zap.Int("suggestions", len(suggestions)))
		}
	}

	limited := m.adapter.ApplyRowLimit(sanitized, settings.MaxResults)

	execCtx := ctx
	if m.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, m.opts.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := m.adapter.ExecuteQuery(execCtx, limited)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &apperrors.ExecutionError{Err: err}
	}

	m.monitor.Record(sanitized, elapsed, result.RowCount, false)

	insights := m.insights.Generate(sanitized, result)

	m.cache.Add(cacheKey, &cachedResult{
		data:            result.Rows,
		columns:         result.Columns,
		insights:        insights,
		joinSuggestions: joinSuggestions,
	})

	return &models.SafeQueryResult{
		Data:            result.Rows,
		Columns:         result.Columns,
		Insights:        insights,
		JoinSuggestions: joinSuggestions,
		ExecutionTimeMs: float64(elapsed.Microseconds()) / 1000.0,
		Cached:          false,
	}, nil
}

// GetTableList returns the catalog listing from the active adapter.
func (m *Manager) GetTableList(ctx context.Context) ([]datasource.TableInfo, error) {
	return m.adapter.GetTableList(ctx)
}

// GetPerformanceReport returns the read-only diagnostics view.
func (m *Manager) GetPerformanceReport() *models.PerformanceReport {
	return m.monitor.Report(10)
}

// GetOptimizationSuggestions returns the advisory hints recorded for a query.
func (m *Manager) GetOptimizationSuggestions(query string) []models.Suggestion {
	return m.monitor.Suggestions(query)
}

// EngineType reports the active adapter's engine.
func (m *Manager) EngineType() string {
	return m.adapter.EngineType()
}

// cacheKey combines the normalized query text with a structural hash of the
// settings, so the same text under a different allow-list or row cap never
// hits the same entry.
func (m *Manager) cacheKey(query string, settings models.QuerySettings) string {
	h, err := hashstructure.Hash(settings, hashstructure.FormatV2, nil)
	if err != nil {
		// hashstructure cannot fail on a flat struct; fall back anyway.
		return sqltext.Normalize(query) + "|" + fmt.Sprintf("%+v", settings)
	}
	return fmt.Sprintf("%s|%x", sqltext.Normalize(query), h)
}

// deniedTables returns the referenced tables missing from the allow-list,
// sorted for deterministic error messages.
func deniedTables(tables []string, allowed map[string]struct{}) []string {
	var denied []string
	for _, table := range tables {
		if _, ok := allowed[strings.ToLower(table)]; !ok {
			denied = append(denied, table)
		}
	}
	sort.Strings(denied)
	return denied
}
