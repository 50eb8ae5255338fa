package mysql

import (
	"regexp"

	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// denyRules holds MySQL-specific deny-list entries layered on top of
// sqltext.BaseDenyRules. Defense-in-depth only: the table allow-list is the
// authorization boundary.
var denyRules = []sqltext.DenyRule{
	{Pattern: regexp.MustCompile(`\bload_file\s*\(`), Reason: "file access functions are not allowed"},
	{Pattern: regexp.MustCompile(`\binto\s+(outfile|dumpfile)\b`), Reason: "file write clauses are not allowed"},
	{Pattern: regexp.MustCompile(`\b(extractvalue|updatexml)\s*\(`), Reason: "XML functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bload\s+data\b`), Reason: "LOAD DATA is not allowed"},
	{Pattern: regexp.MustCompile(`\binformation_schema\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\bperformance_schema\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\bmysql\s*\.`), Reason: "system schema access is not allowed"},
	{Pattern: regexp.MustCompile(`\bsys\s*\.`), Reason: "system schema access is not allowed"},
}

// catalogPrefixes are dropped from extracted table references.
var catalogPrefixes = []string{
	"information_schema.",
	"performance_schema.",
	"mysql.",
	"sys.",
}
