// Package identity holds the canonical identifier handling for the pipeline:
// normalization of raw values, format classification, and one-way digesting.
// Both the reconciliation engine and the standalone validate command import
// this package, so there is exactly one predicate table in the repository.
package identity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// missingMarkers are raw values that mean "no identifier" in the source data.
// Exports from spreadsheets frequently carry "-", "nan" or "null" in place of
// an empty cell.
var missingMarkers = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"n/a":  {},
	"na":   {},
	"nan":  {},
	"none": {},
	"null": {},
}

// Normalize returns the canonical form of a raw identifier value and whether
// a value is present at all. ok is false for empty, whitespace-only, and
// placeholder values.
//
// Normalization: NFKC fold, trim, uppercase, strip a trailing ".0" float
// artifact from digit strings (numeric identifiers round-tripped through a
// spreadsheet arrive as floats), then apply the whitespace policy: internal
// whitespace is collapsed to a single space for structured alphanumeric
// identifiers and rejected for pure-digit ones.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, bool) {
	v := strings.TrimSpace(norm.NFKC.String(raw))
	if _, missing := missingMarkers[strings.ToLower(v)]; missing {
		return "", false
	}

	v = strings.ToUpper(v)

	if s, found := strings.CutSuffix(v, ".0"); found && isDigits(s) {
		v = s
	}

	fields := strings.Fields(v)
	if len(fields) > 1 {
		if isDigits(strings.Join(fields, "")) {
			// A digit identifier with internal whitespace is unusable:
			// there is no way to tell a typo from a concatenation.
			return "", false
		}
		v = strings.Join(fields, " ")
	}

	return v, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
