package sql

import (
	"regexp"
	"strings"
)

var (
	// refKeywordPattern anchors the clauses that introduce table references.
	refKeywordPattern = regexp.MustCompile(`(?i)\b(?:from|join|into)\b`)

	// identAtStart matches a possibly quoted, possibly schema-qualified
	// identifier at the start of the remaining text. Quoting may use
	// backticks, double quotes or brackets.
	identAtStart = regexp.MustCompile("^[`\"\\[]?[a-zA-Z_][a-zA-Z0-9_]*[`\"\\]]?(?:\\.[`\"\\[]?[a-zA-Z_][a-zA-Z0-9_]*[`\"\\]]?)*")

	// aliasAtStart matches an optional table alias, with or without AS.
	aliasAtStart = regexp.MustCompile(`(?i)^(as\s+)?([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// clauseKeywords terminate a FROM list; a bare word matching one of these is
// a clause, not an alias.
var clauseKeywords = map[string]struct{}{
	"where": {}, "on": {}, "join": {}, "inner": {}, "left": {}, "right": {},
	"full": {}, "cross": {}, "outer": {}, "group": {}, "order": {},
	"limit": {}, "offset": {}, "having": {}, "union": {}, "natural": {},
	"using": {}, "fetch": {}, "for": {},
}

// ExtractTableRefs scans the query text for table references in FROM/JOIN/INTO
// clauses, including comma-separated FROM lists with aliases. Names are
// lower-cased with quoting stripped; schema qualifiers are preserved so
// callers can filter system catalogs by prefix. This is a regex scan, not a
// parse: subqueries and derived tables yield their inner references, which is
// the conservative direction for an allow-list check.
func ExtractTableRefs(query string) []string {
	seen := make(map[string]struct{})
	refs := make([]string, 0, 4)

	add := func(raw string) {
		name := strings.ToLower(stripIdentifierQuotes(raw))
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}

	for _, loc := range refKeywordPattern.FindAllStringIndex(query, -1) {
		rest := query[loc[1]:]
		for {
			rest = strings.TrimLeft(rest, " \t\n\r")
			ident := identAtStart.FindString(rest)
			if ident == "" || isClauseKeyword(ident) {
				break
			}
			add(ident)
			rest = strings.TrimLeft(rest[len(ident):], " \t\n\r")

			// Skip over an alias so "users u, orders o" still walks the
			// whole list. An explicit AS always marks an alias; a bare word
			// only when it is not a clause keyword.
			if m := aliasAtStart.FindStringSubmatch(rest); m != nil {
				if m[1] != "" || !isClauseKeyword(m[2]) {
					rest = strings.TrimLeft(rest[len(m[0]):], " \t\n\r")
				}
			}
			if !strings.HasPrefix(rest, ",") {
				break
			}
			rest = rest[1:]
		}
	}
	return refs
}

// BareTableName strips any schema qualifier, returning the final segment of a
// possibly dotted reference.
func BareTableName(ref string) string {
	if idx := strings.LastIndexByte(ref, '.'); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

func isClauseKeyword(word string) bool {
	_, ok := clauseKeywords[strings.ToLower(word)]
	return ok
}

func stripIdentifierQuotes(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '`', '"', '[', ']':
			return -1
		}
		return r
	}, name)
}
