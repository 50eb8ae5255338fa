// Package sql provides engine-neutral SQL text validation utilities.
package sql

import (
	"strings"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

// NormalizeStatement strips the trailing semicolon from a statement and
// rejects input containing more than one statement.
//
// The validation order is:
// 1. Trim whitespace and the trailing semicolon (normalize)
// 2. Reject any remaining semicolon outside string literals
func NormalizeStatement(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", apperrors.ErrEmptyQuery
	}

	normalized := stripTrailingSemicolon(query)

	// The trailing semicolon is already gone, so any semicolon left outside
	// a string literal means statement chaining.
	if hasSemicolonOutsideStrings(normalized) {
		return "", apperrors.ErrMultipleStatements
	}

	return normalized, nil
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(query string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range query {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handle both backslash escape (\') and SQL standard escape ('').
			// A doubled quote exits here and immediately re-enters on the next
			// quote, which correctly keeps us inside the string.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding whitespace.
func stripTrailingSemicolon(query string) string {
	query = strings.TrimRight(query, " \t\n\r")
	if strings.HasSuffix(query, ";") {
		query = strings.TrimSuffix(query, ";")
		query = strings.TrimRight(query, " \t\n\r")
	}
	return query
}
