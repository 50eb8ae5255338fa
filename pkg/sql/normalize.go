package sql

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalize produces the canonical form of a query used for cache keys and
// performance bucketing: lower-cased, whitespace collapsed to single spaces,
// trailing semicolon stripped.
func Normalize(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSuffix(normalized, ";")
	return strings.TrimSpace(normalized)
}

// Hash returns a stable hex digest of the normalized query, used to key
// performance buckets without retaining unbounded query text.
func Hash(query string) string {
	sum := sha256.Sum256([]byte(Normalize(query)))
	return hex.EncodeToString(sum[:8])
}
