package datasource

import (
	"fmt"
	"strings"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

// Guard implements QueryGuard from a combined deny-rule set plus the engine's
// system-catalog prefixes. Each adapter builds one with its own rules;
// dangerous function names and quoting differ per engine.
type Guard struct {
	rules           []sqltext.DenyRule
	catalogPrefixes []string
}

// NewGuard combines the shared base deny rules with engine-specific rules.
// catalogPrefixes name the system schemas whose references are both rejected
// by the deny-list and filtered from ExtractTableNames.
func NewGuard(engineRules []sqltext.DenyRule, catalogPrefixes []string) *Guard {
	return &Guard{
		rules:           sqltext.CombineRules(sqltext.BaseDenyRules, engineRules),
		catalogPrefixes: catalogPrefixes,
	}
}

// SanitizeQuery normalizes the statement, rejects deny-list matches, and runs
// libinjection over string literals as defense-in-depth. The allow-list check
// in the manager, not this filter, is the authorization boundary.
func (g *Guard) SanitizeQuery(query string) (string, error) {
	normalized, err := sqltext.NormalizeStatement(query)
	if err != nil {
		return "", &apperrors.RejectedQueryError{Reason: err.Error()}
	}

	if rule := sqltext.MatchDenyRules(normalized, g.rules); rule != nil {
		return "", &apperrors.RejectedQueryError{Reason: rule.Reason}
	}

	if finding := sqltext.CheckStringLiterals(normalized); finding != nil {
		return "", &apperrors.RejectedQueryError{
			Reason: fmt.Sprintf("string literal matches injection fingerprint %s", finding.Fingerprint),
		}
	}

	return normalized, nil
}

// ValidateSelectQuery runs SanitizeQuery and additionally rejects anything
// that is not a read-only SELECT.
func (g *Guard) ValidateSelectQuery(query string) (string, error) {
	sanitized, err := g.SanitizeQuery(query)
	if err != nil {
		return "", err
	}
	if !sqltext.IsReadOnlySelect(sanitized) {
		return "", &apperrors.RejectedQueryError{Reason: "only SELECT statements are allowed"}
	}
	return sanitized, nil
}

// ExtractTableNames returns the bare, lower-cased table names the query
// references, with system catalog references dropped.
func (g *Guard) ExtractTableNames(query string) []string {
	refs := sqltext.ExtractTableRefs(query)

	names := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if g.isCatalogRef(ref) {
			continue
		}
		name := sqltext.BareTableName(ref)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (g *Guard) isCatalogRef(ref string) bool {
	for _, prefix := range g.catalogPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}
