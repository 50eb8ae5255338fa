package models

// InsightType classifies a derived observation about a result set.
type InsightType string

const (
	InsightTrend        InsightType = "trend_analysis"
	InsightComparison   InsightType = "comparison"
	InsightAnomaly      InsightType = "anomaly_detection"
	InsightRelationship InsightType = "relationship_analysis"
	InsightStatistical  InsightType = "statistical"
)

// Insight is a derived, human-readable observation about a result set.
// Purely derived, never persisted.
type Insight struct {
	Type        InsightType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
	Details     map[string]any `json:"details,omitempty"`
}
