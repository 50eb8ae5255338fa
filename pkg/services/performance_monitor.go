package services

import (
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/logging"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

const (
	// DefaultSlowQueryThreshold triggers optimization suggestions.
	DefaultSlowQueryThreshold = 1000 * time.Millisecond
	// verySlowThreshold marks queries worth a large-result-set hint.
	verySlowThreshold = 5000 * time.Millisecond
	// maxExecutionsPerBucket bounds each bucket's rolling execution list.
	maxExecutionsPerBucket = 100
)

var (
	wherePattern     = regexp.MustCompile(`(?i)\bwhere\b`)
	indexHintPattern = regexp.MustCompile(`(?i)\b(use|force)\s+index\b`)
	joinPattern      = regexp.MustCompile(`(?i)\bjoin\b`)
	usingPattern     = regexp.MustCompile(`(?i)\busing\s*\(`)
	subqueryPattern  = regexp.MustCompile(`(?i)select[^(]*\(\s*select\b`)
	groupByPattern   = regexp.MustCompile(`(?i)\bgroup\s+by\b`)
	orderByPattern   = regexp.MustCompile(`(?i)\border\s+by\b`)
)

// PerformanceMonitor buckets executions by normalized query hash and
// accumulates aggregates. Suggestions are advisory strings attached to the
// bucket, not enforced.
type PerformanceMonitor struct {
	slowThreshold time.Duration
	logger        *zap.Logger

	mu      sync.Mutex
	buckets map[string]*models.QueryStats
}

// NewPerformanceMonitor creates a monitor with the given slow-query
// threshold; zero uses the default. If logger is nil, a no-op logger is used.
func NewPerformanceMonitor(slowThreshold time.Duration, logger *zap.Logger) *PerformanceMonitor {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowQueryThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceMonitor{
		slowThreshold: slowThreshold,
		logger:        logger.Named("performance-monitor"),
		buckets:       make(map[string]*models.QueryStats),
	}
}

// Record accumulates one execution into its query-shape bucket. Internal
// failures must never reach the caller; Record therefore returns nothing.
func (pm *PerformanceMonitor) Record(query string, duration time.Duration, rowCount int, cacheHit bool) {
	hash := sqltext.Hash(query)
	slow := duration > pm.slowThreshold

	pm.mu.Lock()
	bucket, ok := pm.buckets[hash]
	if !ok {
		bucket = &models.QueryStats{
			QueryHash:   hash,
			SampleQuery: logging.TruncateQuery(query),
			MinDuration: duration,
		}
		pm.buckets[hash] = bucket
	}

	bucket.Count++
	bucket.TotalDuration += duration
	bucket.AvgDuration = bucket.TotalDuration / time.Duration(bucket.Count)
	if duration < bucket.MinDuration {
		bucket.MinDuration = duration
	}
	if duration > bucket.MaxDuration {
		bucket.MaxDuration = duration
	}
	bucket.TotalRows += int64(rowCount)
	if cacheHit {
		bucket.CacheHits++
	}

	bucket.Executions = append(bucket.Executions, models.QueryExecution{
		Timestamp: time.Now(),
		Duration:  duration,
		RowCount:  rowCount,
		CacheHit:  cacheHit,
	})
	if len(bucket.Executions) > maxExecutionsPerBucket {
		bucket.Executions = bucket.Executions[len(bucket.Executions)-maxExecutionsPerBucket:]
	}

	if slow {
		mergeSuggestions(bucket, suggestOptimizations(query, duration))
	}
	pm.mu.Unlock()

	cacheLabel := "miss"
	if cacheHit {
		cacheLabel = "hit"
	}
	queriesTotal.WithLabelValues(cacheLabel).Inc()
	queryDurationMs.Observe(float64(duration.Milliseconds()))
	if slow {
		slowQueriesTotal.Inc()
		pm.logger.Warn("slow query",
			zap.String("query", logging.TruncateQuery(query)),
			zap.Duration("duration", duration),
			zap.Int("rows", rowCount))
	}
}

// Suggestions returns the advisory hints recorded for a query's bucket.
func (pm *PerformanceMonitor) Suggestions(query string) []models.Suggestion {
	hash := sqltext.Hash(query)

	pm.mu.Lock()
	defer pm.mu.Unlock()

	bucket, ok := pm.buckets[hash]
	if !ok {
		return nil
	}
	out := make([]models.Suggestion, len(bucket.Suggestions))
	copy(out, bucket.Suggestions)
	return out
}

// Report aggregates all buckets into the read-only diagnostics view.
// topN bounds the slow and frequent query lists.
func (pm *PerformanceMonitor) Report(topN int) *models.PerformanceReport {
	if topN <= 0 {
		topN = 10
	}

	pm.mu.Lock()
	stats := make([]models.QueryStats, 0, len(pm.buckets))
	for _, bucket := range pm.buckets {
		snapshot := *bucket
		snapshot.Executions = nil // report carries aggregates, not raw samples
		stats = append(stats, snapshot)
	}
	pm.mu.Unlock()

	report := &models.PerformanceReport{
		GeneratedAt:      time.Now(),
		UniqueQueries:    len(stats),
		SuggestionCounts: make(map[string]int),
	}

	var totalDuration time.Duration
	var cacheHits, slowBuckets int
	for _, s := range stats {
		report.TotalQueries += s.Count
		totalDuration += s.TotalDuration
		cacheHits += s.CacheHits
		if s.MaxDuration > pm.slowThreshold {
			slowBuckets++
		}
		for _, suggestion := range s.Suggestions {
			report.SuggestionCounts[suggestion.Kind]++
		}
	}
	if report.TotalQueries > 0 {
		report.AvgDurationMs = float64(totalDuration.Milliseconds()) / float64(report.TotalQueries)
		report.CacheHitRate = float64(cacheHits) / float64(report.TotalQueries)
	}
	if len(stats) > 0 {
		report.SlowQueryRate = float64(slowBuckets) / float64(len(stats))
	}

	bySlowness := make([]models.QueryStats, len(stats))
	copy(bySlowness, stats)
	sort.Slice(bySlowness, func(i, j int) bool {
		return bySlowness[i].AvgDuration > bySlowness[j].AvgDuration
	})
	report.TopSlowQueries = truncateStats(bySlowness, topN)

	byFrequency := make([]models.QueryStats, len(stats))
	copy(byFrequency, stats)
	sort.Slice(byFrequency, func(i, j int) bool {
		return byFrequency[i].Count > byFrequency[j].Count
	})
	report.TopFrequent = truncateStats(byFrequency, topN)

	return report
}

// suggestOptimizations runs the independent pattern checks over the raw query
// text. Each check contributes at most one suggestion.
func suggestOptimizations(query string, duration time.Duration) []models.Suggestion {
	var suggestions []models.Suggestion

	if wherePattern.MatchString(query) && !indexHintPattern.MatchString(query) {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "missing_index",
			Message: "Filtered query is slow - consider adding an index on the WHERE columns",
		})
	}
	if joinPattern.MatchString(query) && !usingPattern.MatchString(query) {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "join_optimization",
			Message: "JOIN detected - ensure join columns are indexed on both sides",
		})
	}
	if duration > verySlowThreshold {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "large_result_set",
			Message: "Execution took over 5s - narrow the selected columns or add filters",
		})
	}
	if !sqltext.ContainsLimit(query) {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "missing_limit",
			Message: "Query has no LIMIT clause - bound the result set explicitly",
		})
	}
	if subqueryPattern.MatchString(query) {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "subquery_in_select",
			Message: "Subquery in SELECT list runs per row - consider a JOIN instead",
		})
	}
	if groupByPattern.MatchString(query) && !orderByPattern.MatchString(query) {
		suggestions = append(suggestions, models.Suggestion{
			Kind:    "group_without_order",
			Message: "GROUP BY without ORDER BY returns unstable ordering - add ORDER BY if order matters",
		})
	}

	return suggestions
}

// mergeSuggestions adds hints the bucket does not already carry, keyed by kind.
func mergeSuggestions(bucket *models.QueryStats, fresh []models.Suggestion) {
	existing := make(map[string]struct{}, len(bucket.Suggestions))
	for _, s := range bucket.Suggestions {
		existing[s.Kind] = struct{}{}
	}
	for _, s := range fresh {
		if _, ok := existing[s.Kind]; !ok {
			bucket.Suggestions = append(bucket.Suggestions, s)
		}
	}
}

func truncateStats(stats []models.QueryStats, n int) []models.QueryStats {
	if len(stats) > n {
		return stats[:n]
	}
	return stats
}
