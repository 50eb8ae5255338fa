package models

import "time"

// QueryExecution is one recorded run of a query shape.
type QueryExecution struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	RowCount  int           `json:"row_count"`
	CacheHit  bool          `json:"cache_hit"`
}

// QueryStats aggregates executions for one normalized query shape.
type QueryStats struct {
	QueryHash     string           `json:"query_hash"`
	SampleQuery   string           `json:"sample_query"`
	Count         int              `json:"count"`
	TotalDuration time.Duration    `json:"total_duration"`
	AvgDuration   time.Duration    `json:"avg_duration"`
	MinDuration   time.Duration    `json:"min_duration"`
	MaxDuration   time.Duration    `json:"max_duration"`
	TotalRows     int64            `json:"total_rows"`
	CacheHits     int              `json:"cache_hits"`
	Executions    []QueryExecution `json:"executions"`
	Suggestions   []Suggestion     `json:"suggestions,omitempty"`
}

// Suggestion is an advisory optimization hint attached to a query shape.
// Never enforced.
type Suggestion struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PerformanceReport is the read-only diagnostics view over all buckets.
type PerformanceReport struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalQueries     int            `json:"total_queries"`
	UniqueQueries    int            `json:"unique_queries"`
	AvgDurationMs    float64        `json:"avg_duration_ms"`
	CacheHitRate     float64        `json:"cache_hit_rate"`
	SlowQueryRate    float64        `json:"slow_query_rate"`
	TopSlowQueries   []QueryStats   `json:"top_slow_queries"`
	TopFrequent      []QueryStats   `json:"top_frequent_queries"`
	SuggestionCounts map[string]int `json:"suggestion_counts"`
}
