package sql

import (
	"regexp"
	"strings"
)

// modifyingCTEPattern matches CTEs that contain data-modifying operations.
// Example: WITH deleted AS (DELETE FROM ...) SELECT * FROM deleted
var modifyingCTEPattern = regexp.MustCompile(`(?i)\bAS\s*\(\s*(INSERT|UPDATE|DELETE)\b`)

// IsReadOnlySelect reports whether the statement is a plain SELECT, or a CTE
// whose body is free of data-modifying operations.
//
// CTEs starting with WITH could be:
//  1. Pure SELECT: WITH cte AS (SELECT ...) SELECT * FROM cte
//  2. Data-modifying: WITH deleted AS (DELETE FROM ...) SELECT * FROM deleted
//
// The second form is rejected.
func IsReadOnlySelect(query string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(normalized, "SELECT"):
		return true
	case strings.HasPrefix(normalized, "WITH"):
		return !modifyingCTEPattern.MatchString(query)
	default:
		return false
	}
}
