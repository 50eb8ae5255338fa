// Package models holds the shared domain types exchanged between the manager,
// its subsystems and the HTTP surface.
package models

import (
	"strings"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

// QuerySettings is the per-request configuration supplied by the caller.
// EnabledTables is the single authorization input this layer trusts: a
// comma-separated, case-insensitive table list. Never persisted by the core.
type QuerySettings struct {
	EnabledTables string `json:"enabled_tables"`
	MaxResults    int    `json:"max_results"`
}

// AllowList returns the lower-cased table name set parsed from EnabledTables.
func (s QuerySettings) AllowList() map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, name := range strings.Split(s.EnabledTables, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			allowed[name] = struct{}{}
		}
	}
	return allowed
}

// SafeQueryResult is the outcome of one ExecuteSafeQuery call.
// ExecutionTimeMs is 0 when the result was served from cache.
type SafeQueryResult struct {
	Data            []map[string]any              `json:"data"`
	Columns         []datasource.ResultColumn     `json:"columns"`
	Insights        []Insight                     `json:"insights"`
	JoinSuggestions []datasource.RelationshipEdge `json:"join_suggestions,omitempty"`
	ExecutionTimeMs float64                       `json:"execution_time_ms"`
	Cached          bool                          `json:"cached"`
}
