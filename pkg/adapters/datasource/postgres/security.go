package postgres

import (
	"regexp"

	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// denyRules holds PostgreSQL-specific deny-list entries layered on top of
// sqltext.BaseDenyRules.
var denyRules = []sqltext.DenyRule{
	{Pattern: regexp.MustCompile(`\bpg_sleep\s*\(`), Reason: "timing functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bpg_(read|write)_file\s*\(`), Reason: "file access functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bpg_ls_dir\s*\(`), Reason: "file access functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bcopy\b`), Reason: "COPY is not allowed"},
	{Pattern: regexp.MustCompile(`\blo_(import|export)\s*\(`), Reason: "large object functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bdblink\b`), Reason: "remote connection functions are not allowed"},
	{Pattern: regexp.MustCompile(`\bpg_catalog\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\binformation_schema\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\bpg_shadow\b`), Reason: "system catalog access is not allowed"},
	{Pattern: regexp.MustCompile(`\bcurrent_setting\s*\(`), Reason: "settings functions are not allowed"},
}

// catalogPrefixes are dropped from extracted table references.
var catalogPrefixes = []string{
	"pg_catalog.",
	"information_schema.",
	"pg_",
}
