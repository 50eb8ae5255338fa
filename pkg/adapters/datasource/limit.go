package datasource

// ClampLimit normalizes a requested row limit against the hard ceiling.
// Non-positive values fall back to MaxQueryLimit; values above the ceiling
// are capped. The ceiling is independent of configuration.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
