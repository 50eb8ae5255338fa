package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/models"
)

// queryTemplates classify the executed query's shape. Ordered: first match
// wins; queries matching nothing are classified "general" and still get
// statistical summaries.
var queryTemplates = []struct {
	insightType models.InsightType
	pattern     *regexp.Regexp
}{
	{models.InsightTrend, regexp.MustCompile(`(?i)\b(date_trunc|date_format|to_char)\s*\(|\bgroup\s+by\b[^;]*\b(date|month|year|week|day|hour)\b`)},
	{models.InsightComparison, regexp.MustCompile(`(?i)\bgroup\s+by\b[^;]*|\b(count|sum|avg)\s*\([^)]*\)[^;]*\bgroup\s+by\b`)},
	{models.InsightAnomaly, regexp.MustCompile(`(?i)\b(having|stddev|variance|percentile)\b`)},
	{models.InsightRelationship, regexp.MustCompile(`(?i)\bjoin\b`)},
}

// joinConditionPattern extracts a.x = b.y equality conditions from JOIN ... ON
// and WHERE clauses.
var joinConditionPattern = regexp.MustCompile(`(?i)\b(\w+)\.(\w+)\s*=\s*(\w+)\.(\w+)`)

const (
	// trendThreshold separates increasing/decreasing from stable slopes.
	trendThreshold = 0.10
	// anomalyStdDevs is how many population standard deviations mark an outlier.
	anomalyStdDevs = 2.0
	// minAnomalyRows is the smallest result set anomaly detection runs on.
	minAnomalyRows = 3
	// anomalyTolerance is the relative slack applied to the sigma threshold.
	anomalyTolerance = 1e-4
)

// InsightEngine derives human-readable observations from a result set.
// Purely best-effort: failures are logged and swallowed so a broken insight
// never prevents returning valid data.
type InsightEngine struct {
	logger *zap.Logger
}

// NewInsightEngine creates an InsightEngine. If logger is nil, a no-op logger
// is used.
func NewInsightEngine(logger *zap.Logger) *InsightEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightEngine{logger: logger.Named("insight-engine")}
}

// Generate classifies the query shape, dispatches the matching generator, and
// always appends per-column statistical summaries.
func (ie *InsightEngine) Generate(query string, result *datasource.QueryResult) []models.Insight {
	if result == nil || len(result.Rows) == 0 {
		return nil
	}

	var insights []models.Insight

	for _, tmpl := range queryTemplates {
		if !tmpl.pattern.MatchString(query) {
			continue
		}
		matches := len(tmpl.pattern.FindAllStringIndex(query, -1))
		confidence := templateConfidence(len(result.Rows), matches)

		var insight *models.Insight
		switch tmpl.insightType {
		case models.InsightTrend:
			insight = ie.trendInsight(result, confidence)
		case models.InsightComparison:
			insight = ie.comparisonInsight(result, confidence)
		case models.InsightAnomaly:
			insight = ie.anomalyInsight(result, confidence)
		case models.InsightRelationship:
			insight = ie.relationshipInsight(query, result, confidence)
		}
		if insight != nil {
			insights = append(insights, *insight)
		}
		break // first match wins
	}

	// Anomaly detection also runs unclassified; surprising values matter
	// regardless of what the query asked for.
	if !hasInsightType(insights, models.InsightAnomaly) {
		if insight := ie.anomalyInsight(result, templateConfidence(len(result.Rows), 1)); insight != nil {
			insights = append(insights, *insight)
		}
	}

	insights = append(insights, ie.statisticalInsights(result)...)
	return insights
}

// trendInsight requires a time-like column and at least two rows. The slope
// is a discrete linear regression over row order, normalized by the series
// mean, labeled at the ±10% threshold.
func (ie *InsightEngine) trendInsight(result *datasource.QueryResult, confidence float64) *models.Insight {
	if len(result.Rows) < 2 || !hasTimeLikeColumn(result) {
		return nil
	}

	name, values := firstNumericColumn(result)
	if name == "" || len(values) < 2 {
		return nil
	}

	slope := regressionSlope(values)
	seriesMean := mean(values)
	if seriesMean == 0 {
		return nil
	}
	normalized := slope / math.Abs(seriesMean)

	direction := "stable"
	switch {
	case normalized > trendThreshold:
		direction = "increasing"
	case normalized < -trendThreshold:
		direction = "decreasing"
	}

	return &models.Insight{
		Type:        models.InsightTrend,
		Title:       fmt.Sprintf("%s trend in %s", strings.ToUpper(direction[:1])+direction[1:], name),
		Description: fmt.Sprintf("Values of %s are %s over the series (normalized slope %.2f).", name, direction, normalized),
		Confidence:  confidence,
		Details: map[string]any{
			"column":           name,
			"direction":        direction,
			"normalized_slope": normalized,
			"points":           len(values),
		},
	}
}

// comparisonInsight requires one categorical and one numeric column.
func (ie *InsightEngine) comparisonInsight(result *datasource.QueryResult, confidence float64) *models.Insight {
	catColumn := firstStringColumn(result)
	numColumn, values := firstNumericColumn(result)
	if catColumn == "" || numColumn == "" || len(values) == 0 {
		return nil
	}

	categories := make(map[string]struct{})
	var topCategory string
	topValue := math.Inf(-1)
	for _, row := range result.Rows {
		category, _ := row[catColumn].(string)
		if category != "" {
			categories[category] = struct{}{}
		}
		if v, ok := toFloat64(row[numColumn]); ok && v > topValue {
			topValue = v
			topCategory = category
		}
	}

	minV, maxV := minMax(values)
	return &models.Insight{
		Type:  models.InsightComparison,
		Title: fmt.Sprintf("Comparison of %s by %s", numColumn, catColumn),
		Description: fmt.Sprintf("%d categories compared on %s; values range %.2f to %.2f (mean %.2f). Highest: %s (%.2f).",
			len(categories), numColumn, minV, maxV, mean(values), topCategory, topValue),
		Confidence: confidence,
		Details: map[string]any{
			"category_column": catColumn,
			"value_column":    numColumn,
			"categories":      len(categories),
			"min":             minV,
			"max":             maxV,
			"mean":            mean(values),
			"top_category":    topCategory,
			"top_value":       topValue,
		},
	}
}

// anomalyInsight flags values more than two population standard deviations
// from their column mean. Only emitted for result sets of three or more rows
// with at least one outlier.
func (ie *InsightEngine) anomalyInsight(result *datasource.QueryResult, confidence float64) *models.Insight {
	if len(result.Rows) < minAnomalyRows {
		return nil
	}

	type outlier struct {
		Column string  `json:"column"`
		Row    int     `json:"row"`
		Value  float64 `json:"value"`
		Mean   float64 `json:"mean"`
		StdDev float64 `json:"stddev"`
	}

	var outliers []outlier
	for _, col := range numericColumnNames(result) {
		values, rowIdx := columnValues(result, col)
		if len(values) < minAnomalyRows {
			continue
		}
		m := mean(values)
		sd := stdDev(values, m)
		if sd == 0 {
			continue
		}
		// A dominant outlier inflates the stddev it is measured against and
		// can land a hair under the exact 2-sigma line; the relative
		// tolerance keeps such boundary values flagged.
		threshold := anomalyStdDevs * sd * (1 - anomalyTolerance)
		for i, v := range values {
			if math.Abs(v-m) > threshold {
				outliers = append(outliers, outlier{
					Column: col, Row: rowIdx[i], Value: v, Mean: m, StdDev: sd,
				})
			}
		}
	}
	if len(outliers) == 0 {
		return nil
	}

	return &models.Insight{
		Type:        models.InsightAnomaly,
		Title:       fmt.Sprintf("%d anomalous value(s) detected", len(outliers)),
		Description: fmt.Sprintf("%d value(s) deviate more than %.0f standard deviations from their column mean.", len(outliers), anomalyStdDevs),
		Confidence:  confidence,
		Details: map[string]any{
			"outliers":  outliers,
			"threshold": anomalyStdDevs,
		},
	}
}

// relationshipInsight parses JOIN/WHERE equality conditions and estimates
// relationship strength as the ratio of distinct joined values to total rows,
// capped at 1.0.
func (ie *InsightEngine) relationshipInsight(query string, result *datasource.QueryResult, confidence float64) *models.Insight {
	matches := joinConditionPattern.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return nil
	}

	type joinEdge struct {
		Left     string  `json:"left"`
		Right    string  `json:"right"`
		Strength float64 `json:"strength"`
	}

	var edges []joinEdge
	for _, m := range matches {
		leftColumn := m[2]
		strength := 1.0
		if values, _ := columnValues(result, leftColumn); len(values) > 0 {
			distinct := make(map[float64]struct{}, len(values))
			for _, v := range values {
				distinct[v] = struct{}{}
			}
			strength = math.Min(float64(len(distinct))/float64(len(result.Rows)), 1.0)
		}
		edges = append(edges, joinEdge{
			Left:     m[1] + "." + m[2],
			Right:    m[3] + "." + m[4],
			Strength: strength,
		})
	}

	return &models.Insight{
		Type:        models.InsightRelationship,
		Title:       fmt.Sprintf("%d table relationship(s) in query", len(edges)),
		Description: "Relationship strength estimated as distinct joined values over total rows.",
		Confidence:  confidence,
		Details: map[string]any{
			"edges": edges,
		},
	}
}

// statisticalInsights always run: per numeric column mean/median/stddev/min/max/count.
func (ie *InsightEngine) statisticalInsights(result *datasource.QueryResult) []models.Insight {
	var insights []models.Insight
	for _, col := range numericColumnNames(result) {
		values, _ := columnValues(result, col)
		if len(values) == 0 {
			continue
		}
		m := mean(values)
		minV, maxV := minMax(values)
		insights = append(insights, models.Insight{
			Type:        models.InsightStatistical,
			Title:       fmt.Sprintf("Statistics for %s", col),
			Description: fmt.Sprintf("%s: mean %.2f, median %.2f, stddev %.2f over %d values.", col, m, median(values), stdDev(values, m), len(values)),
			Confidence:  1.0,
			Details: map[string]any{
				"column": col,
				"mean":   m,
				"median": median(values),
				"stddev": stdDev(values, m),
				"min":    minV,
				"max":    maxV,
				"count":  len(values),
			},
		})
	}
	return insights
}

// templateConfidence follows min(rows/100, 1) + min(matches/10, 0.3), capped
// at 1.0. Heuristic, not statistically calibrated.
func templateConfidence(rows, patternMatches int) float64 {
	confidence := math.Min(float64(rows)/100.0, 1.0) + math.Min(float64(patternMatches)/10.0, 0.3)
	return math.Min(confidence, 1.0)
}

func hasInsightType(insights []models.Insight, t models.InsightType) bool {
	for _, insight := range insights {
		if insight.Type == t {
			return true
		}
	}
	return false
}

// --- column helpers ---

func numericColumnNames(result *datasource.QueryResult) []string {
	if len(result.Rows) == 0 {
		return nil
	}
	var names []string
	for _, col := range result.Columns {
		if _, ok := toFloat64(firstNonNil(result.Rows, col.Name)); ok {
			names = append(names, col.Name)
		}
	}
	return names
}

func columnValues(result *datasource.QueryResult, column string) ([]float64, []int) {
	var values []float64
	var rowIdx []int
	for i, row := range result.Rows {
		if v, ok := toFloat64(row[column]); ok {
			values = append(values, v)
			rowIdx = append(rowIdx, i)
		}
	}
	return values, rowIdx
}

func firstNumericColumn(result *datasource.QueryResult) (string, []float64) {
	for _, col := range numericColumnNames(result) {
		values, _ := columnValues(result, col)
		if len(values) > 0 {
			return col, values
		}
	}
	return "", nil
}

func firstStringColumn(result *datasource.QueryResult) string {
	for _, col := range result.Columns {
		if _, ok := firstNonNil(result.Rows, col.Name).(string); ok {
			return col.Name
		}
	}
	return ""
}

func hasTimeLikeColumn(result *datasource.QueryResult) bool {
	for _, col := range result.Columns {
		name := strings.ToLower(col.Name)
		if strings.Contains(name, "date") || strings.Contains(name, "time") ||
			strings.Contains(name, "month") || strings.Contains(name, "year") ||
			strings.Contains(name, "day") || strings.Contains(name, "created") {
			return true
		}
		if _, ok := firstNonNil(result.Rows, col.Name).(time.Time); ok {
			return true
		}
	}
	return false
}

func firstNonNil(rows []map[string]any, column string) any {
	for _, row := range rows {
		if v := row[column]; v != nil {
			return v
		}
	}
	return nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// --- statistics ---

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdDev is the population standard deviation over the full result set.
func stdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

// regressionSlope fits y = a + b*x over row order x = 0..n-1 and returns b.
func regressionSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
