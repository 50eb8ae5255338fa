package sqlserver

import (
	"regexp"

	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// denyRules holds SQL Server-specific deny-list entries layered on top of
// sqltext.BaseDenyRules.
var denyRules = []sqltext.DenyRule{
	{Pattern: regexp.MustCompile(`\bxp_\w+`), Reason: "extended stored procedures are not allowed"},
	{Pattern: regexp.MustCompile(`\bsp_\w+`), Reason: "system stored procedures are not allowed"},
	{Pattern: regexp.MustCompile(`\bwaitfor\s+(delay|time)\b`), Reason: "timing statements are not allowed"},
	{Pattern: regexp.MustCompile(`\bopen(rowset|query|datasource)\s*\(`), Reason: "remote data access is not allowed"},
	{Pattern: regexp.MustCompile(`\bbulk\s+insert\b`), Reason: "BULK INSERT is not allowed"},
	{Pattern: regexp.MustCompile(`\bsys\s*\.`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\binformation_schema\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\bmsdb\s*\.`), Reason: "system database access is not allowed"},
	{Pattern: regexp.MustCompile(`\bmaster\s*\.`), Reason: "system database access is not allowed"},
}

// catalogPrefixes are dropped from extracted table references.
var catalogPrefixes = []string{
	"sys.",
	"information_schema.",
	"msdb.",
	"master.",
	"tempdb.",
}
