package sql

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionFinding describes a string literal that libinjection flagged as a
// SQL injection payload.
type InjectionFinding struct {
	Literal     string // the literal content that was flagged
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckStringLiterals runs libinjection over every single-quoted string
// literal in the query. Generated queries carry user-supplied text only
// inside literals, so a literal that itself fingerprints as SQLi means the
// generator was steered into smuggling a payload.
//
// Returns nil when every literal is clean.
func CheckStringLiterals(query string) *InjectionFinding {
	for _, literal := range extractStringLiterals(query) {
		if literal == "" {
			continue
		}
		isSQLi, fingerprint := libinjection.IsSQLi(literal)
		if isSQLi {
			return &InjectionFinding{
				Literal:     literal,
				Fingerprint: fingerprint,
			}
		}
	}
	return nil
}

// extractStringLiterals returns the contents of single-quoted literals,
// honoring the SQL standard '' escape.
func extractStringLiterals(query string) []string {
	var literals []string
	var current strings.Builder
	inString := false

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		if !inString {
			if char == '\'' {
				inString = true
				current.Reset()
			}
			continue
		}
		if char == '\'' {
			// Doubled quote is an escaped quote inside the literal.
			if i+1 < len(runes) && runes[i+1] == '\'' {
				current.WriteRune('\'')
				i++
				continue
			}
			inString = false
			literals = append(literals, current.String())
			continue
		}
		current.WriteRune(char)
	}

	return literals
}
