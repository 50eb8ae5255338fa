package sql

import (
	"regexp"
	"strings"
)

// DenyRule pairs a compiled pattern with the reason reported on a match.
// Patterns are matched against a whitespace-normalized, lower-cased copy of
// the query, so rules are written in lower case with single spaces.
type DenyRule struct {
	Pattern *regexp.Regexp
	Reason  string
}

// BaseDenyRules are the engine-independent deny-list entries. Each adapter
// appends its own engine-specific rules (dangerous functions, system
// catalogs) on top of these. This is defense-in-depth only: the table
// allow-list is the authorization boundary.
var BaseDenyRules = []DenyRule{
	{regexp.MustCompile(`\b(drop|truncate|alter|create|rename)\b`), "DDL statements are not allowed"},
	{regexp.MustCompile(`\b(insert|update|delete|replace|merge)\b`), "data-modifying statements are not allowed"},
	{regexp.MustCompile(`\b(grant|revoke)\b`), "permission statements are not allowed"},
	{regexp.MustCompile(`\b(exec|execute|call)\b`), "procedure execution is not allowed"},
	{regexp.MustCompile(`\bunion\s+(all\s+)?select\b`), "UNION SELECT is not allowed"},
	{regexp.MustCompile(`--`), "SQL comments are not allowed"},
	{regexp.MustCompile(`/\*`), "SQL comments are not allowed"},
	{regexp.MustCompile(`\b(sleep|benchmark|waitfor)\b`), "timing functions are not allowed"},
	{regexp.MustCompile(`\bconcat\s*\(`), "string construction functions are not allowed"},
	{regexp.MustCompile(`\b(substring|substr|mid)\s*\(`), "substring functions are not allowed"},
	{regexp.MustCompile(`\bcase\s+when\b`), "conditional expressions are not allowed"},
	{regexp.MustCompile(`\b(and|or)\s+\d+\s*=\s*\d+`), "tautology expressions are not allowed"},
	{regexp.MustCompile(`\bchar\s*\(`), "character construction functions are not allowed"},
}

// MatchDenyRules reports the first rule the query matches, or nil.
// Matching is case-insensitive over collapsed whitespace so a rule cannot be
// dodged with tabs, newlines or mixed case.
func MatchDenyRules(query string, rules []DenyRule) *DenyRule {
	normalized := Normalize(query)
	for i := range rules {
		if rules[i].Pattern.MatchString(normalized) {
			return &rules[i]
		}
	}
	return nil
}

// CombineRules concatenates rule sets without mutating either input.
func CombineRules(sets ...[]DenyRule) []DenyRule {
	total := 0
	for _, s := range sets {
		total += len(s)
	}
	combined := make([]DenyRule, 0, total)
	for _, s := range sets {
		combined = append(combined, s...)
	}
	return combined
}

// ContainsLimit reports whether the query already carries a row-limiting
// clause (LIMIT or TOP) so callers do not append a second one.
func ContainsLimit(query string) bool {
	normalized := Normalize(query)
	return strings.Contains(normalized, " limit ") ||
		strings.HasSuffix(normalized, " limit") ||
		limitPattern.MatchString(normalized) ||
		topPattern.MatchString(normalized)
}

var (
	limitPattern = regexp.MustCompile(`\blimit\s+\d+`)
	topPattern   = regexp.MustCompile(`\btop\s*\(?\s*\d+`)
)
